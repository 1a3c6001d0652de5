package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndList(t *testing.T) {
	s := Open(MemoryDSN)
	defer s.Close()
	require.True(t, s.Persistent())

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	s.Save(ctx, Entry{SessionID: "a", MessageID: "m1", Role: "assistant", Content: "hi", Source: "greeting", CreatedAt: now})
	s.Save(ctx, Entry{SessionID: "b", MessageID: "m2", Role: "user", Content: "other", CreatedAt: now})
	s.Save(ctx, Entry{SessionID: "a", MessageID: "m3", Role: "user", Content: "skills?", CreatedAt: now})

	got := s.List(ctx, "a")
	require.Len(t, got, 2)
	require.Equal(t, "hi", got[0].Content)
	require.Equal(t, "greeting", got[0].Source)
	require.Equal(t, "skills?", got[1].Content)
	require.Less(t, got[0].ID, got[1].ID)

	require.Empty(t, s.List(ctx, "missing"))
}

func TestStore_SQLiteEntriesAreNotDuplicatedInMemory(t *testing.T) {
	s := Open(MemoryDSN)
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		s.Save(ctx, Entry{SessionID: "a", Role: "user", Content: "hi", CreatedAt: time.Now()})
	}
	require.Len(t, s.List(ctx, "a"), 50)
	require.Empty(t, s.entries)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, s := range map[string]*Store{
		"sqlite": Open(MemoryDSN),
		"memory": Open(t.TempDir()),
	} {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			s.Save(ctx, Entry{SessionID: "gone", Role: "user", Content: "bye"})
			s.Save(ctx, Entry{SessionID: "stays", Role: "user", Content: "hi"})

			s.Delete(ctx, "gone")
			require.Empty(t, s.List(ctx, "gone"))
			require.Len(t, s.List(ctx, "stays"), 1)
		})
	}
}

func TestStore_FileDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s := Open(path)
	s.Save(ctx, Entry{SessionID: "x", Role: "user", Content: "persisted", CreatedAt: time.Now()})
	require.NoError(t, s.Close())

	reopened := Open(path)
	defer reopened.Close()
	got := reopened.List(ctx, "x")
	require.Len(t, got, 1)
	require.Equal(t, "persisted", got[0].Content)
}

func TestStore_MemoryFallback(t *testing.T) {
	// a directory cannot be opened as a database file
	s := Open(t.TempDir())
	require.False(t, s.Persistent())

	ctx := context.Background()
	s.Save(ctx, Entry{SessionID: "x", Role: "user", Content: "kept"})
	got := s.List(ctx, "x")
	require.Len(t, got, 1)
	require.Equal(t, "kept", got[0].Content)
	require.NoError(t, s.Close())
}
