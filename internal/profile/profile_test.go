package profile

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_IncludesProfileSections(t *testing.T) {
	p := Default()
	prompt := BuildPrompt(p)

	require.Contains(t, prompt, p.Bio)
	require.Contains(t, prompt, strings.Join(p.Skills, ", "))
	require.Contains(t, prompt, "- "+p.Experience[0])
	require.Contains(t, prompt, "Kisan App")
	require.Contains(t, prompt, "third person")
	require.Contains(t, prompt, "contact form")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	p := Default()
	p.Contact = map[string]string{"zeta": "z", "alpha": "a", "mid": "m"}

	first := BuildPrompt(p)
	for range 20 {
		require.Equal(t, first, BuildPrompt(p))
	}
	require.Less(t, strings.Index(first, "alpha: a"), strings.Index(first, "zeta: z"))
}

func TestBuildPrompt_ZeroProfile(t *testing.T) {
	prompt := BuildPrompt(Profile{})
	require.NotEmpty(t, prompt)
	require.Contains(t, prompt, "This developer")
	require.Contains(t, prompt, "Self-taught developer")
}

func TestClone_IsDeep(t *testing.T) {
	p := Default()
	c := p.Clone()
	c.Skills[0] = "COBOL"
	c.Projects[0].Tech[0] = "Fortran"
	c.Contact["github"] = "elsewhere"

	require.Equal(t, "React", p.Skills[0])
	require.Equal(t, "MongoDB", p.Projects[0].Tech[0])
	require.Equal(t, "https://github.com/chirag847", p.Contact["github"])
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := NewStore(Default())
	snap := s.Snapshot()
	snap.Profile.Skills[0] = "mutated"

	require.Equal(t, "React", s.Profile().Skills[0])
}

func TestStore_UpdateRegeneratesPrompt(t *testing.T) {
	s := NewStore(Default())
	name := "Ada"
	snap := s.Update(Patch{Name: &name, Skills: []string{"Go", "Rust"}})

	require.Equal(t, "Ada", snap.Profile.Name)
	require.Equal(t, []string{"Go", "Rust"}, snap.Profile.Skills)
	require.Equal(t, Default().Bio, snap.Profile.Bio, "untouched fields are kept")
	require.Equal(t, BuildPrompt(snap.Profile), snap.Prompt)
	require.Equal(t, snap.Prompt, s.Prompt())
	require.Contains(t, s.Prompt(), "Ada's personal AI assistant")
}

func TestStore_ReadersNeverSeeMismatch(t *testing.T) {
	s := NewStore(Default())
	names := []string{"Ada", "Grace", "Linus"}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 200 {
			n := names[i%len(names)]
			s.Update(Patch{Name: &n})
		}
	}()

	for range 500 {
		snap := s.Snapshot()
		require.Equal(t, BuildPrompt(snap.Profile), snap.Prompt)
	}
	wg.Wait()
}

func TestPatch_Empty(t *testing.T) {
	require.True(t, Patch{}.Empty())
	bio := "x"
	require.False(t, Patch{Bio: &bio}.Empty())
}
