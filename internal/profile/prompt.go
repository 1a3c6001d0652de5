package profile

import (
	"fmt"
	"slices"
	"strings"
)

// BuildPrompt renders p into the system instruction sent to a remote model.
// It is a pure function of p.
func BuildPrompt(p Profile) string {
	name := p.DisplayName()

	var b strings.Builder
	b.WriteString("You are " + name + "'s personal AI assistant on their portfolio website. ")
	b.WriteString("You are knowledgeable, friendly, and professional. ")
	b.WriteString("Your role is to help visitors learn about " + name + "'s professional background, skills, and experience.\n\n")
	b.WriteString("Here's what you know about " + name + ":\n\n")

	if p.Role != "" {
		section(&b, "Role", p.Role)
	}
	section(&b, "Bio", orDefault(p.Bio, "No biography provided."))
	section(&b, "Technical Skills", orDefault(strings.Join(p.Skills, ", "), "Not listed."))
	listSection(&b, "Professional Experience", p.Experience, "Not listed.")

	projects := make([]string, 0, len(p.Projects))
	for _, pr := range p.Projects {
		line := pr.String()
		if len(pr.Tech) > 0 {
			line += " (" + strings.Join(pr.Tech, ", ") + ")"
		}
		if pr.URL != "" {
			line += " " + pr.URL
		}
		projects = append(projects, line)
	}
	listSection(&b, "Notable Projects", projects, "Not listed.")
	listSection(&b, "Education", p.Education, "Self-taught developer with continuous learning approach")
	listSection(&b, "Achievements", p.Achievements, "Multiple successful projects and continuous skill development")
	section(&b, "Interests", orDefault(strings.Join(p.Interests, ", "), "Technology, web development, and innovation"))

	if len(p.Contact) > 0 {
		channels := make([]string, 0, len(p.Contact))
		for ch := range p.Contact {
			channels = append(channels, ch)
		}
		slices.Sort(channels)
		lines := make([]string, len(channels))
		for i, ch := range channels {
			lines[i] = ch + ": " + p.Contact[ch]
		}
		listSection(&b, "Contact", lines, "")
	}

	b.WriteString("**Guidelines for responses**:\n")
	guidelines := []string{
		"Be concise but informative (2-3 sentences typically)",
		"Always speak about " + name + " in third person",
		"Focus on professional aspects unless asked about personal interests",
		"If asked about contact/hiring, encourage visitors to use the contact form or reach out directly",
		"If asked about something you don't know, be honest but redirect to " + name + "'s strengths",
		"Provide specific examples when possible",
		"Keep responses conversational and engaging",
	}
	for i, g := range guidelines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g)
	}
	b.WriteString("\nRemember, your goal is to showcase " + name + "'s expertise and encourage potential clients or employers to reach out!")
	return b.String()
}

func section(b *strings.Builder, title, body string) {
	b.WriteString("**" + title + "**: " + body + "\n\n")
}

func listSection(b *strings.Builder, title string, items []string, empty string) {
	if len(items) == 0 {
		section(b, title, empty)
		return
	}
	b.WriteString("**" + title + "**:\n")
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	b.WriteString("\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
