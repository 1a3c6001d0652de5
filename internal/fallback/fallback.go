// Package fallback answers questions about the profile without a remote
// model. Matching is a fixed, ordered rule table: the first rule whose
// keywords occur in the lower-cased message wins.
package fallback

import (
	"slices"
	"strings"
	"unicode"

	"github.com/comigor/portfolio-assistant/internal/profile"
)

// Topic names the rule that produced an answer.
type Topic string

const (
	TopicSkills       Topic = "skills"
	TopicExperience   Topic = "experience"
	TopicProjects     Topic = "projects"
	TopicAbout        Topic = "about"
	TopicContact      Topic = "contact"
	TopicEducation    Topic = "education"
	TopicAchievements Topic = "achievements"
	TopicGreeting     Topic = "greeting"
	TopicDefault      Topic = "default"
)

// Apology is the last-resort reply used when even the fallback cannot run.
const Apology = "I'm sorry, I encountered an error. Please try again later or ask me about skills, experience, or projects!"

// Rule is one (predicate, template) pair.
type Rule struct {
	Topic    Topic
	Keywords []string
	// WholeWord matches keywords against words instead of substrings.
	WholeWord bool
	Render    func(p profile.Profile) string
}

// Matches reports whether any keyword occurs in the lower-cased message.
func (r Rule) Matches(lower string) bool {
	if r.WholeWord {
		words := strings.FieldsFunc(lower, func(c rune) bool {
			return !unicode.IsLetter(c) && !unicode.IsDigit(c)
		})
		for _, w := range words {
			if slices.Contains(r.Keywords, w) {
				return true
			}
		}
		return false
	}
	for _, k := range r.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Responder evaluates its rules in order and falls through to Default.
type Responder struct {
	Rules   []Rule
	Default func(p profile.Profile) string
}

// New returns a Responder with the standard priority order:
// skills, experience, projects, about, contact, education, achievements.
func New() *Responder {
	return &Responder{Rules: DefaultRules(), Default: renderDefault}
}

// WithGreetings returns a Responder that also answers hellos with a short
// introduction, after every standard rule.
func WithGreetings() *Responder {
	return &Responder{Rules: append(DefaultRules(), GreetingRule()), Default: renderDefault}
}

// GreetingRule introduces the assistant when the message is a hello.
func GreetingRule() Rule {
	return Rule{
		Topic:     TopicGreeting,
		Keywords:  []string{"hello", "hi", "hey"},
		WholeWord: true,
		Render: func(p profile.Profile) string {
			return "Hi! I'm " + p.DisplayName() + "'s AI assistant. " + p.DisplayName() + " builds full-stack applications like " +
				joinFirst(p.ProjectNames(), 1, "a range of web projects") + ". What would you like to know?"
		},
	}
}

// Respond returns the canned reply for message. It never fails.
func (r *Responder) Respond(p profile.Profile, message string) string {
	text, _ := r.Match(p, message)
	return text
}

// Match is Respond plus the topic that produced the reply.
func (r *Responder) Match(p profile.Profile, message string) (string, Topic) {
	lower := strings.ToLower(message)
	for _, rule := range r.Rules {
		if rule.Matches(lower) {
			return rule.Render(p), rule.Topic
		}
	}
	if r.Default == nil {
		return renderDefault(p), TopicDefault
	}
	return r.Default(p), TopicDefault
}

// DefaultRules is the built-in rule table, in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Topic:    TopicSkills,
			Keywords: []string{"skill", "technolog", "tech", "stack"},
			Render: func(p profile.Profile) string {
				return p.DisplayName() + " has expertise in " + joinFirst(p.Skills, 5, "a broad set of modern tools") +
					" and many more technologies. They're particularly skilled in full-stack development with a focus on modern web technologies."
			},
		},
		{
			Topic:    TopicExperience,
			Keywords: []string{"experience", "work", "job", "intern"},
			Render: func(p profile.Profile) string {
				return p.DisplayName() + " is a " + first(p.Experience, "developer with hands-on project experience") +
					". They specialize in building scalable web applications and have experience across the full development stack."
			},
		},
		{
			Topic:    TopicProjects,
			Keywords: []string{"project", "portfolio", "built"},
			Render: func(p profile.Profile) string {
				return "Some of " + p.DisplayName() + "'s notable projects include: " + joinFirst(p.ProjectNames(), 3, "several personal and team projects") +
					". Each project demonstrates their ability to work with different technologies and solve complex problems."
			},
		},
		{
			Topic:    TopicAbout,
			Keywords: []string{"about", "who", "tell me", "yourself"},
			Render: func(p profile.Profile) string {
				bio := strings.TrimSpace(p.Bio)
				if bio != "" {
					bio += " "
				}
				return bio + p.DisplayName() + " brings hands-on full-stack experience and is passionate about creating innovative solutions."
			},
		},
		{
			Topic:    TopicContact,
			Keywords: []string{"contact", "hire", "hiring", "available", "reach", "email"},
			Render: func(p profile.Profile) string {
				return p.DisplayName() + " is open to new opportunities! Feel free to reach out through the contact form on this portfolio or connect via the social links provided."
			},
		},
		{
			Topic:    TopicEducation,
			Keywords: []string{"education", "study", "degree", "college", "learn"},
			Render: func(p profile.Profile) string {
				return p.DisplayName() + "'s education: " + first(p.Education, "a strong foundation in computer science") +
					". They believe in continuous learning and stay current through self-study and practical projects."
			},
		},
		{
			Topic:    TopicAchievements,
			Keywords: []string{"achievement", "award", "leetcode", "hackathon", "competition"},
			Render: func(p profile.Profile) string {
				return "Highlights from " + p.DisplayName() + "'s track record: " + joinFirst(p.Achievements, 3, "multiple successful projects") + "."
			},
		},
	}
}

func renderDefault(p profile.Profile) string {
	return "That's an interesting question! " + p.DisplayName() + " is a skilled developer with expertise in " +
		joinFirst(p.Skills, 3, "modern web technologies") + " and more. What specific aspect of their background would you like to know more about?"
}

func joinFirst(items []string, n int, empty string) string {
	if len(items) == 0 {
		return empty
	}
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}

func first(items []string, empty string) string {
	if len(items) == 0 || strings.TrimSpace(items[0]) == "" {
		return empty
	}
	return items[0]
}
