// Package mockdata generates seed issues, chat threads and simulated uploads
// for when no backend is available.
package mockdata

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/issuedesk/backend/internal/models"
)

const (
	// SeedCount is the number of issues produced by Issues.
	SeedCount = 15
	// SystemSender is the sender name of automated messages.
	SystemSender = "System"
	// DefaultSupportAgent answers in generated threads.
	DefaultSupportAgent = "Support Team"

	mockURLPattern = "mock-upload"
	seedWindow     = 30 * 24 * time.Hour
	seedStep       = 2 * 24 * time.Hour
	seedMinAge     = time.Hour
)

// IsMockURL reports whether u was synthesized by MockUpload.
func IsMockURL(u string) bool {
	return strings.Contains(u, mockURLPattern)
}

// FileInfo describes a file handed to MockUpload.
type FileInfo struct {
	Name string
	Type string
	Size int64
}

// Generator produces randomized mock data. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
	sleep   func(context.Context, time.Duration)
	minWait time.Duration
	maxWait time.Duration

	users        []string
	supportAgent string
}

type Option func(*Generator)

// WithSeed fixes the random source.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLatency sets the simulated upload latency range.
func WithLatency(min, max time.Duration) Option {
	return func(g *Generator) { g.minWait, g.maxWait = min, max }
}

// WithSleep replaces the context-aware sleep used by MockUpload.
func WithSleep(sleep func(context.Context, time.Duration)) Option {
	return func(g *Generator) { g.sleep = sleep }
}

// WithUsers replaces the submitter pool.
func WithUsers(users ...string) Option {
	return func(g *Generator) {
		if len(users) > 0 {
			g.users = users
		}
	}
}

// WithSupportAgent sets the name used for support replies.
func WithSupportAgent(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.supportAgent = name
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
		sleep:        sleepContext,
		minWait:      1500 * time.Millisecond,
		maxWait:      2500 * time.Millisecond,
		users:        defaultUsers,
		supportAgent: DefaultSupportAgent,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *Generator) int63n(n int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Int63n(n)
}

func pick[T any](g *Generator, pool []T) T {
	return pool[g.intn(len(pool))]
}

// SupportAgent returns the name used for support replies.
func (g *Generator) SupportAgent() string {
	return g.supportAgent
}

// Issues returns SeedCount issues cycling through the categories, newest first.
// Submission times fall inside the last 30 days and strictly decrease by index.
func (g *Generator) Issues() []models.Issue {
	now := g.now().UTC()
	issues := make([]models.Issue, 0, SeedCount)
	for i := 0; i < SeedCount; i++ {
		category := models.Categories[i%len(models.Categories)]
		submitted := now.Add(-seedMinAge - time.Duration(i)*seedStep - time.Duration(g.int63n(int64(seedStep-seedMinAge))))
		if now.Sub(submitted) > seedWindow {
			submitted = now.Add(-seedWindow + time.Duration(SeedCount-i)*time.Minute)
		}
		updated := submitted.Add(time.Duration(g.int63n(int64(now.Sub(submitted)) + 1)))

		titles := titlePool[category]
		issue := models.Issue{
			ID:          uuid.NewString(),
			Title:       pick(g, titles),
			Description: pick(g, descriptionPool[category]),
			Priority:    pick(g, models.Priorities),
			Status:      pick(g, models.Statuses),
			SubmittedBy: pick(g, g.users),
			SubmittedAt: submitted,
			UpdatedAt:   updated,
			Tags:        g.tags(category),
			Attachments: []models.MediaFile{},
		}
		issue.SetDetails(g.details(category, submitted))
		issues = append(issues, issue)
	}
	return issues
}

func (g *Generator) tags(c models.Category) []string {
	pool := tagPool[c]
	n := 1 + g.intn(3)
	seen := make(map[string]bool, n)
	tags := make([]string, 0, n)
	for len(tags) < n && len(seen) < len(pool) {
		t := pick(g, pool)
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	return tags
}

func (g *Generator) details(c models.Category, submitted time.Time) models.Details {
	switch c {
	case models.CategoryContent:
		d := &models.ContentDetails{
			ContentType:    pick(g, contentTypes),
			Platform:       pick(g, platforms),
			TargetAudience: pick(g, audiences),
		}
		if g.intn(2) == 0 {
			dl := submitted.Add(time.Duration(7+g.intn(21)) * 24 * time.Hour).Truncate(24 * time.Hour)
			d.Deadline = &dl
		}
		return d
	case models.CategoryTechnical:
		d := &models.TechnicalDetails{SystemType: pick(g, systemTypes)}
		if g.intn(3) > 0 {
			d.Browser = pick(g, browsers)
		}
		if g.intn(2) == 0 {
			d.ErrorMessage = pick(g, errorMessages)
			d.StepsToReproduce = "1. Sign in\n2. Open the affected page\n3. Repeat the action"
		}
		return d
	default:
		return &models.GeneralDetails{
			Category:   pick(g, generalCategories),
			Department: pick(g, departments),
			Urgency:    pick(g, urgencies),
		}
	}
}

// Messages returns a 3 to 5 message thread for every issue: one system
// message, then 2 to 4 alternating between the submitter and support.
func (g *Generator) Messages(issues []models.Issue) models.MessageMap {
	now := g.now().UTC()
	out := make(models.MessageMap, len(issues))
	for _, issue := range issues {
		ts := issue.SubmittedAt
		thread := []models.ChatMessage{{
			ID:        uuid.NewString(),
			IssueID:   issue.ID,
			Sender:    SystemSender,
			Message:   fmt.Sprintf("Issue \"%s\" was created by %s", issue.Title, issue.SubmittedBy),
			Timestamp: ts,
			IsSystem:  true,
		}}

		gaps := g.replyGaps(2+g.intn(3), now.Sub(issue.SubmittedAt))
		for i, gap := range gaps {
			ts = ts.Add(gap)
			sender, text := issue.SubmittedBy, pick(g, userFollowUps)
			if i%2 == 0 {
				sender, text = g.supportAgent, pick(g, supportResponses)
			}
			thread = append(thread, models.ChatMessage{
				ID:        uuid.NewString(),
				IssueID:   issue.ID,
				Sender:    sender,
				Message:   text,
				Timestamp: ts,
			})
		}
		out[issue.ID] = thread
	}
	return out
}

// replyGaps returns n gaps of 5 to 125 minutes, squeezed into avail when
// they would run past now.
func (g *Generator) replyGaps(n int, avail time.Duration) []time.Duration {
	gaps := make([]time.Duration, n)
	var sum time.Duration
	for i := range gaps {
		gaps[i] = time.Duration(5+g.intn(120)) * time.Minute
		sum += gaps[i]
	}
	if sum <= avail {
		return gaps
	}
	for i := range gaps {
		if avail <= 0 {
			gaps[i] = time.Millisecond
			continue
		}
		gaps[i] = time.Duration(float64(gaps[i]) * float64(avail) / float64(sum))
	}
	return gaps
}

// InitialThread opens the conversation of a newly submitted issue.
func (g *Generator) InitialThread(issue models.Issue) []models.ChatMessage {
	ts := issue.SubmittedAt
	return []models.ChatMessage{
		{
			ID:        uuid.NewString(),
			IssueID:   issue.ID,
			Sender:    SystemSender,
			Message:   fmt.Sprintf("Issue \"%s\" was created by %s", issue.Title, issue.SubmittedBy),
			Timestamp: ts,
			IsSystem:  true,
		},
		{
			ID:        uuid.NewString(),
			IssueID:   issue.ID,
			Sender:    g.supportAgent,
			Message:   "Thanks for reporting this. Our team has been notified and will follow up shortly.",
			Timestamp: ts.Add(time.Millisecond),
		},
	}
}

// AutoReply returns a canned support reply for issueID stamped with the current time.
func (g *Generator) AutoReply(issueID string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		IssueID:   issueID,
		Sender:    g.supportAgent,
		Message:   pick(g, supportResponses),
		Timestamp: g.now(),
	}
}

// MockUpload waits a simulated network latency and returns a placeholder
// MediaFile for f. Cancelling ctx cuts the wait short; it never fails.
func (g *Generator) MockUpload(ctx context.Context, f FileInfo) models.MediaFile {
	wait := g.minWait
	if span := g.maxWait - g.minWait; span > 0 {
		wait += time.Duration(g.int63n(int64(span) + 1))
	}
	g.sleep(ctx, wait)

	id := uuid.NewString()
	return models.MediaFile{
		ID:         id,
		Name:       f.Name,
		URL:        fmt.Sprintf("https://placeholder.issuedesk.local/%s/%s/%s", mockURLPattern, id, url.PathEscape(f.Name)),
		Type:       f.Type,
		Size:       f.Size,
		UploadedAt: g.now(),
	}
}
