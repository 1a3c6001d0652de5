package profile

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Snapshot pairs a profile with the prompt built from it. Both come from the
// same atomic load, so they always match.
type Snapshot struct {
	Profile Profile
	Prompt  string
}

// Store is the process-wide holder of the profile. Reads are lock-free;
// Update replaces profile and prompt together.
type Store struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Snapshot]
}

// NewStore builds the prompt for p and returns a ready Store.
func NewStore(p Profile) *Store {
	s := &Store{}
	s.cur.Store(newSnapshot(p))
	return s
}

func newSnapshot(p Profile) *Snapshot {
	p = p.Clone()
	return &Snapshot{Profile: p, Prompt: BuildPrompt(p)}
}

// Snapshot returns a copy of the current profile and its prompt.
func (s *Store) Snapshot() Snapshot {
	cur := s.cur.Load()
	return Snapshot{Profile: cur.Profile.Clone(), Prompt: cur.Prompt}
}

// Profile is shorthand for Snapshot().Profile.
func (s *Store) Profile() Profile {
	return s.cur.Load().Profile.Clone()
}

// Prompt returns the cached system prompt.
func (s *Store) Prompt() string {
	return s.cur.Load().Prompt
}

// Patch carries a partial profile update. Nil fields are left untouched;
// non-nil fields replace the current value wholesale.
type Patch struct {
	Name         *string           `json:"name,omitempty"`
	Role         *string           `json:"role,omitempty"`
	Bio          *string           `json:"bio,omitempty"`
	Skills       []string          `json:"skills,omitempty"`
	Experience   []string          `json:"experience,omitempty"`
	Projects     []Project         `json:"projects,omitempty"`
	Education    []string          `json:"education,omitempty"`
	Achievements []string          `json:"achievements,omitempty"`
	Interests    []string          `json:"interests,omitempty"`
	Contact      map[string]string `json:"contact,omitempty"`
	Starters     []string          `json:"starters,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Role == nil && p.Bio == nil &&
		p.Skills == nil && p.Experience == nil && p.Projects == nil &&
		p.Education == nil && p.Achievements == nil && p.Interests == nil &&
		p.Contact == nil && p.Starters == nil
}

// Apply returns base with the patch merged over it.
func (p Patch) Apply(base Profile) Profile {
	out := base.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Bio != nil {
		out.Bio = *p.Bio
	}
	if p.Skills != nil {
		out.Skills = slices.Clone(p.Skills)
	}
	if p.Experience != nil {
		out.Experience = slices.Clone(p.Experience)
	}
	if p.Projects != nil {
		out.Projects = Profile{Projects: p.Projects}.Clone().Projects
	}
	if p.Education != nil {
		out.Education = slices.Clone(p.Education)
	}
	if p.Achievements != nil {
		out.Achievements = slices.Clone(p.Achievements)
	}
	if p.Interests != nil {
		out.Interests = slices.Clone(p.Interests)
	}
	if p.Contact != nil {
		out.Contact = Profile{Contact: p.Contact}.Clone().Contact
	}
	if p.Starters != nil {
		out.Starters = slices.Clone(p.Starters)
	}
	return out
}

// Update merges patch into the current profile, regenerates the prompt and
// publishes both in a single swap.
func (s *Store) Update(patch Patch) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := newSnapshot(patch.Apply(s.cur.Load().Profile))
	s.cur.Store(next)
	return Snapshot{Profile: next.Profile.Clone(), Prompt: next.Prompt}
}
