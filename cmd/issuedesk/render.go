package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pageza/issuedesk/backend/internal/client"
	"github.com/pageza/issuedesk/backend/internal/models"
	"github.com/pageza/issuedesk/backend/internal/tracker"
	"github.com/pageza/issuedesk/backend/internal/types"
)

const timeLayout = "2006-01-02 15:04"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	senderStyle = lipgloss.NewStyle().Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("245")).Padding(0, 1)
)

var statusColors = map[models.Status]lipgloss.Color{
	models.StatusOpen:       lipgloss.Color("33"),
	models.StatusInProgress: lipgloss.Color("214"),
	models.StatusResolved:   lipgloss.Color("42"),
	models.StatusClosed:     lipgloss.Color("245"),
}

var priorityColors = map[models.Priority]lipgloss.Color{
	models.PriorityLow:    lipgloss.Color("245"),
	models.PriorityMedium: lipgloss.Color("252"),
	models.PriorityHigh:   lipgloss.Color("208"),
	models.PriorityUrgent: lipgloss.Color("203"),
}

func statusBadge(s models.Status) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Width(11).Render(string(s))
}

func priorityBadge(p models.Priority) string {
	return lipgloss.NewStyle().Foreground(priorityColors[p]).Width(6).Render(string(p))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderList(w io.Writer, issues []models.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No issues match."))
		return
	}
	for _, i := range issues {
		fmt.Fprintf(w, "%s  %s  %s  %-9s  %s\n",
			mutedStyle.Render(shortID(i.ID)), statusBadge(i.Status), priorityBadge(i.Priority), i.Category, i.Title)
	}
}

func renderIssue(w io.Writer, issue models.Issue, thread []models.ChatMessage) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(issue.Title) + "\n")
	fmt.Fprintf(&b, "%s  %s  %s\n", statusBadge(issue.Status), priorityBadge(issue.Priority), issue.Category)
	b.WriteString(mutedStyle.Render(fmt.Sprintf("#%s by %s, %s, updated %s",
		issue.ID, issue.SubmittedBy, issue.SubmittedAt.Local().Format(timeLayout), issue.UpdatedAt.Local().Format(timeLayout))))
	if issue.Description != "" {
		b.WriteString("\n\n" + issue.Description)
	}
	if lines := detailLines(issue); len(lines) > 0 {
		b.WriteString("\n\n" + strings.Join(lines, "\n"))
	}
	if len(issue.Tags) > 0 {
		b.WriteString("\n\n" + mutedStyle.Render("tags: "+strings.Join(issue.Tags, ", ")))
	}
	for _, a := range issue.Attachments {
		fmt.Fprintf(&b, "\n%s %s (%s, %d bytes) %s", mutedStyle.Render("attachment:"), a.Name, a.Type, a.Size, a.URL)
	}
	fmt.Fprintln(w, boxStyle.Render(b.String()))

	for _, m := range thread {
		renderMessage(w, m)
	}
}

func detailLines(issue models.Issue) []string {
	var fields [][2]string
	switch d := issue.Details().(type) {
	case *models.ContentDetails:
		fields = [][2]string{{"content type", d.ContentType}, {"platform", d.Platform}, {"audience", d.TargetAudience}}
		if d.Deadline != nil {
			fields = append(fields, [2]string{"deadline", d.Deadline.Local().Format("2006-01-02")})
		}
	case *models.TechnicalDetails:
		fields = [][2]string{{"system", d.SystemType}, {"browser", d.Browser}, {"error", d.ErrorMessage}, {"steps", d.StepsToReproduce}}
	case *models.GeneralDetails:
		fields = [][2]string{{"category", d.Category}, {"department", d.Department}, {"urgency", d.Urgency}}
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		lines = append(lines, mutedStyle.Render(f[0]+":")+" "+f[1])
	}
	return lines
}

func renderMessage(w io.Writer, m models.ChatMessage) {
	ts := mutedStyle.Render(m.Timestamp.Local().Format(timeLayout))
	if m.IsSystem {
		fmt.Fprintf(w, "%s  %s\n", ts, systemStyle.Render(m.Message))
		return
	}
	fmt.Fprintf(w, "%s  %s: %s\n", ts, senderStyle.Render(m.Sender), m.Message)
}

func renderStats(w io.Writer, s tracker.Stats) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d issues", s.Total)))
	for _, st := range models.Statuses {
		fmt.Fprintf(w, "  %s %d\n", statusBadge(st), s.ByStatus[st])
	}
	for _, c := range models.Categories {
		fmt.Fprintf(w, "  %-11s %d\n", c, s.ByCategory[c])
	}
	for _, p := range models.Priorities {
		fmt.Fprintf(w, "  %s      %d\n", priorityBadge(p), s.ByPriority[p])
	}
}

func renderStatus(w io.Writer, status client.BackendStatus, health *types.HealthResponse) {
	fmt.Fprintf(w, "%s %s\n", senderStyle.Render("uploads:"), status)
	if health == nil {
		return
	}
	fmt.Fprintf(w, "%s %s at %s\n", senderStyle.Render("backend:"), health.Status, health.Timestamp.Local().Format(time.RFC3339))
	if health.Provider != "" {
		fmt.Fprintf(w, "%s %s (initialized: %t)\n", senderStyle.Render("provider:"), health.Provider, health.ProviderInitialized)
	}
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: issuedesk <command> [flags] [args]")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}
