package voice

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
)

// Audio is a synthesized clip. It can be played once.
type Audio struct {
	ID   string
	Text string
	WAV  []byte

	played atomic.Bool
}

// NewAudio wraps WAV bytes in a fresh handle.
func NewAudio(text string, wav []byte) (*Audio, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating audio id: %w", err)
	}
	return &Audio{ID: id.String(), Text: text, WAV: wav}, nil
}

// Played reports whether Play has been called.
func (a *Audio) Played() bool { return a.played.Load() }

// Play hands the clip to p and returns when p is done. Only the first call
// plays; later calls return ErrAlreadyPlayed.
func (a *Audio) Play(ctx context.Context, p Player) error {
	if !a.played.CompareAndSwap(false, true) {
		return ErrAlreadyPlayed
	}
	return p.Play(ctx, a.WAV)
}

// Player is an audio sink.
type Player interface {
	Play(ctx context.Context, wav []byte) error
}

// WriterPlayer streams the clip to W.
type WriterPlayer struct {
	W io.Writer
}

func (p WriterPlayer) Play(ctx context.Context, wav []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.W.Write(wav)
	return err
}

// FilePlayer writes the clip to Path.
type FilePlayer struct {
	Path string
}

func (p FilePlayer) Play(ctx context.Context, wav []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(p.Path, wav, 0o644)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, wav []byte) error

func (f PlayerFunc) Play(ctx context.Context, wav []byte) error { return f(ctx, wav) }

// IsWAV reports whether b starts with a RIFF/WAVE header.
func IsWAV(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE"
}

// EnsureWAV returns raw unchanged when it is already a WAV file and otherwise
// wraps it as 16-bit mono PCM at sampleRate.
func EnsureWAV(raw []byte, sampleRate int) []byte {
	if IsWAV(raw) {
		return raw
	}
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	out := make([]byte, 44+len(raw))
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(raw)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:], channels)
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], bitsPerSample)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(raw)))
	copy(out[44:], raw)
	return out
}
