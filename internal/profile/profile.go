// Package profile holds the static description of the portfolio owner that
// grounds both model prompts and fallback answers.
package profile

import (
	"maps"
	"slices"
	"strings"
)

// Profile describes the portfolio owner. Treat it as a value: every accessor
// in this package hands out copies.
type Profile struct {
	Name         string            `mapstructure:"name" json:"name"`
	Role         string            `mapstructure:"role" json:"role,omitempty"`
	Bio          string            `mapstructure:"bio" json:"bio"`
	Skills       []string          `mapstructure:"skills" json:"skills"`
	Experience   []string          `mapstructure:"experience" json:"experience"`
	Projects     []Project         `mapstructure:"projects" json:"projects"`
	Education    []string          `mapstructure:"education" json:"education,omitempty"`
	Achievements []string          `mapstructure:"achievements" json:"achievements,omitempty"`
	Interests    []string          `mapstructure:"interests" json:"interests,omitempty"`
	Contact      map[string]string `mapstructure:"contact" json:"contact,omitempty"`
	Starters     []string          `mapstructure:"starters" json:"starters,omitempty"`
}

// Project is a portfolio entry. Only Name is required.
type Project struct {
	Name        string   `mapstructure:"name" json:"name"`
	Description string   `mapstructure:"description" json:"description,omitempty"`
	URL         string   `mapstructure:"url" json:"url,omitempty"`
	Tech        []string `mapstructure:"tech" json:"tech,omitempty"`
}

// String renders the project in its one-line form.
func (p Project) String() string {
	if p.Description == "" {
		return p.Name
	}
	return p.Name + " - " + p.Description
}

// ProjectNames returns the project names in order.
func (p Profile) ProjectNames() []string {
	names := make([]string, 0, len(p.Projects))
	for _, pr := range p.Projects {
		if pr.Name != "" {
			names = append(names, pr.Name)
		}
	}
	return names
}

// DisplayName is Name, or a neutral stand-in when the profile has none.
func (p Profile) DisplayName() string {
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return "This developer"
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	out := p
	out.Skills = slices.Clone(p.Skills)
	out.Experience = slices.Clone(p.Experience)
	out.Education = slices.Clone(p.Education)
	out.Achievements = slices.Clone(p.Achievements)
	out.Interests = slices.Clone(p.Interests)
	out.Starters = slices.Clone(p.Starters)
	out.Contact = maps.Clone(p.Contact)
	if p.Projects != nil {
		out.Projects = make([]Project, len(p.Projects))
		for i, pr := range p.Projects {
			pr.Tech = slices.Clone(pr.Tech)
			out.Projects[i] = pr
		}
	}
	return out
}

// Default is the built-in profile used when the configuration does not
// provide one.
func Default() Profile {
	return Profile{
		Name: "Chirag",
		Role: "Full-Stack Developer",
		Bio: "Passionate full-stack developer with expertise in modern web technologies and AI integration. " +
			"Loves building scalable applications that solve real-world problems and has a keen interest in emerging technologies.",
		Skills: []string{
			"React", "TypeScript", "Node.js", "Python", "JavaScript",
			"Next.js", "Tailwind CSS", "MongoDB", "PostgreSQL", "Express.js",
			"AI/ML", "OpenAI Integration", "Full Stack Development",
			"RESTful APIs", "GraphQL", "Docker", "AWS", "Git", "Agile",
			"Redux Toolkit", "Fastify", "JWT & OAuth Authentication", "Redis",
			"LLM Integration", "Prompt Engineering", "HTML5", "CSS3",
			"Data Structures & Algorithms", "Problem Solving", "Hackathon Development",
		},
		Experience: []string{
			"Full Stack Developer experienced in MERN stack (MongoDB, Express, React, Node.js)",
			"Frontend Developer building responsive and interactive UIs using React and Tailwind CSS",
			"Backend Developer with REST API expertise using Express and Fastify",
			"AI Enthusiast integrating LLMs and building intelligent web interfaces",
			"Built a Retail Supply Chain Optimization Website for Walmart Sparkathon",
			"Developed a Linktree-like app with custom user dashboards and dynamic routing",
			"Hands-on with Redis queues, authentication systems, and database design",
			"Strong foundation in DSA and algorithms with focus on performance optimization",
			"Open Source Contributor and passionate problem-solver",
		},
		Projects: []Project{
			{
				Name:        "Kisan App",
				Description: "grain trading platform letting farmers list, buy and sell produce with real-time market insights",
				URL:         "https://github.com/chirag847",
				Tech:        []string{"MongoDB", "Express.js", "React.js", "Node.js", "TypeScript", "Tailwind CSS", "JWT", "Cloudinary"},
			},
			{
				Name:        "Educate",
				Description: "MERN platform for engineering students to share notes, books and projects",
				URL:         "https://github.com/chirag847",
				Tech:        []string{"Node.js", "Express.js", "MongoDB", "React", "TypeScript", "Material-UI", "JWT", "Multer"},
			},
			{Name: "Modern Portfolio Website with AI Chatbot Integration"},
			{Name: "Retail Supply Chain Optimization Website (Walmart Sparkathon)"},
			{Name: "Linktree-like Personal Dashboard App"},
		},
		Education: []string{
			"B.Tech in Electronics and Communication Engineering, NIT Patna (2022-2026)",
			"Continuous learner through online courses and certifications",
		},
		Achievements: []string{
			"Solved 600+ LeetCode problems and 250+ GeeksforGeeks questions",
			"Built 10+ successful web applications",
			"Contributed to several open-source projects",
			"Successfully integrated AI features in multiple projects",
		},
		Interests: []string{
			"Artificial Intelligence and Machine Learning",
			"Competitive Programming",
			"Open Source Development",
			"Cloud Technologies",
		},
		Contact: map[string]string{
			"github":   "https://github.com/chirag847",
			"linkedin": "https://linkedin.com/in/chirag-jain-55869a316",
			"leetcode": "https://leetcode.com/chiragj07",
		},
		Starters: []string{
			"Tell me about the Kisan App project",
			"What technologies do you work with?",
			"What's your experience with full-stack development?",
			"What's your competitive programming experience?",
			"How can I get in touch about opportunities?",
		},
	}
}
