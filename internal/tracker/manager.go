// Package tracker holds the in-memory issue and chat state and mirrors every
// change to the local store.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/issuedesk/backend/internal/mockdata"
	"github.com/pageza/issuedesk/backend/internal/models"
	"github.com/pageza/issuedesk/backend/internal/store"
)

var (
	ErrIssueNotFound = errors.New("issue not found")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrInvalidStatus = errors.New("invalid status")
)

// View is the screen the user is on.
type View string

const (
	ViewList   View = "list"
	ViewDetail View = "detail"
	ViewSubmit View = "submit"
)

// Manager owns issues, threads, the selection and the current view.
// It is safe for concurrent use; deferred replies run on their own goroutines.
type Manager struct {
	mu       sync.Mutex
	store    *store.Store
	gen      *mockdata.Generator
	session  Session
	issues   []models.Issue
	messages models.MessageMap
	selected string
	view     View

	now    func() time.Time
	rng    *rand.Rand
	logger *log.Logger

	tasksCtx    context.Context
	cancelTasks context.CancelFunc
	tasks       sync.WaitGroup
	closed      bool
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithSeed fixes the random source used for reply delays and canned replies.
func WithSeed(seed int64) Option {
	return func(m *Manager) { m.rng = rand.New(rand.NewSource(seed)) }
}

// NewManager rehydrates state from st. On first run, when no issues are
// stored, it seeds issues and threads from gen and persists them right away.
func NewManager(ctx context.Context, st *store.Store, gen *mockdata.Generator, session Session, opts ...Option) *Manager {
	m := &Manager{
		store:   st,
		gen:     gen,
		session: session.withDefaults(),
		view:    ViewList,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.tasksCtx, m.cancelTasks = context.WithCancel(context.Background())

	m.issues = store.Load(ctx, st, store.IssuesCodec, nil)
	m.messages = store.Load(ctx, st, store.MessagesCodec, models.MessageMap{})
	if m.messages == nil {
		m.messages = models.MessageMap{}
	}

	if len(m.issues) == 0 {
		m.issues = gen.Issues()
		for id, thread := range gen.Messages(m.issues) {
			m.messages[id] = thread
		}
		m.logger.Printf("[Tracker] Seeded %d sample issues", len(m.issues))
		m.persist(ctx)
	}
	return m
}

// persist writes both collections. Callers hold m.mu.
func (m *Manager) persist(ctx context.Context) {
	store.Save(ctx, m.store, store.IssuesCodec, m.issues)
	store.Save(ctx, m.store, store.MessagesCodec, m.messages)
}

// later returns the current time, nudged past prev so timestamps strictly increase.
func (m *Manager) later(prev time.Time) time.Time {
	now := m.now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (m *Manager) find(id string) (int, error) {
	for i := range m.issues {
		if m.issues[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrIssueNotFound, id)
}

func (m *Manager) lastTimestamp(issueID string) time.Time {
	thread := m.messages[issueID]
	if len(thread) == 0 {
		return time.Time{}
	}
	return thread[len(thread)-1].Timestamp
}

func (m *Manager) appendMessage(msg models.ChatMessage) models.ChatMessage {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Timestamp = m.later(m.lastTimestamp(msg.IssueID))
	m.messages[msg.IssueID] = append(m.messages[msg.IssueID], msg)
	return msg
}

// SubmitIssue fills in identity, timestamps and defaults, validates the issue,
// puts it first in the list and opens its thread.
func (m *Manager) SubmitIssue(ctx context.Context, issue models.Issue) (models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	issue = issue.Clone()
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	if d := issue.Details(); d != nil && issue.Category == "" {
		issue.Category = d.Kind()
	}
	if issue.Status == "" {
		issue.Status = models.StatusOpen
	}
	if issue.Priority == "" {
		issue.Priority = models.PriorityMedium
	}
	if issue.SubmittedBy == "" {
		issue.SubmittedBy = m.session.CurrentUser
	}
	if issue.Tags == nil {
		issue.Tags = []string{}
	}
	if issue.Attachments == nil {
		issue.Attachments = []models.MediaFile{}
	}
	now := m.now()
	issue.SubmittedAt = now
	issue.UpdatedAt = now

	if err := issue.Validate(); err != nil {
		return models.Issue{}, fmt.Errorf("submit issue: %w", err)
	}
	if _, err := m.find(issue.ID); err == nil {
		return models.Issue{}, fmt.Errorf("submit issue: %w: duplicate id %s", models.ErrInvalidIssue, issue.ID)
	}

	m.issues = append([]models.Issue{issue}, m.issues...)
	m.messages[issue.ID] = m.gen.InitialThread(issue)
	m.persist(ctx)

	m.logger.Printf("[Tracker] Issue %s submitted by %s", issue.ID, issue.SubmittedBy)
	return issue.Clone(), nil
}

// ChangeStatus moves an issue to status and records the transition in its
// thread. Any status may follow any other.
func (m *Manager) ChangeStatus(ctx context.Context, id string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.find(id)
	if err != nil {
		return err
	}
	issue := &m.issues[idx]
	prev := issue.Status
	issue.Status = status
	issue.UpdatedAt = m.later(issue.UpdatedAt)

	m.appendMessage(models.ChatMessage{
		IssueID:  id,
		Sender:   mockdata.SystemSender,
		Message:  fmt.Sprintf("Status changed from %s to %s by %s", prev, status, m.session.CurrentUser),
		IsSystem: true,
	})
	m.persist(ctx)
	return nil
}

// SendMessage appends the user's message and schedules a simulated support
// reply. The reply is appended and persisted even if the issue is no longer selected.
func (m *Manager) SendMessage(ctx context.Context, id, text string) (models.ChatMessage, *Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, nil, ErrEmptyMessage
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.find(id); err != nil {
		return models.ChatMessage{}, nil, err
	}
	msg := m.appendMessage(models.ChatMessage{
		IssueID: id,
		Sender:  m.session.CurrentUser,
		Message: text,
	})
	m.persist(ctx)

	task := m.schedule(m.replyDelay(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		reply := m.appendMessage(m.reply(id))
		// The initiating request may be long gone.
		m.persist(context.Background())
		m.logger.Printf("[Tracker] %s replied on issue %s", reply.Sender, id)
	})
	return msg, task, nil
}

// replyDelay picks the wait before the simulated reply. Callers hold m.mu.
func (m *Manager) replyDelay() time.Duration {
	d := m.session.ReplyDelayMin
	if span := m.session.ReplyDelayMax - m.session.ReplyDelayMin; span > 0 {
		d += time.Duration(m.rng.Int63n(int64(span) + 1))
	}
	return d
}

func (m *Manager) reply(id string) models.ChatMessage {
	msg := m.gen.AutoReply(id)
	if len(m.session.Replies) > 0 {
		msg.Message = m.session.Replies[m.rng.Intn(len(m.session.Replies))]
	}
	msg.Sender = m.session.SupportAgent
	return msg
}

// AttachMedia adds an uploaded file to an issue.
func (m *Manager) AttachMedia(ctx context.Context, id string, file models.MediaFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.find(id)
	if err != nil {
		return err
	}
	issue := &m.issues[idx]
	issue.Attachments = append(issue.Attachments, file)
	issue.UpdatedAt = m.later(issue.UpdatedAt)
	m.persist(ctx)
	return nil
}

// Issues returns a copy of every issue in list order.
func (m *Manager) Issues() []models.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneIssues(m.issues)
}

func (m *Manager) Issue(id string) (models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, err := m.find(id)
	if err != nil {
		return models.Issue{}, err
	}
	return m.issues[idx].Clone(), nil
}

// List returns the issues matching f in its sort order.
func (m *Manager) List(f models.IssueFilter) []models.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneIssues(f.Apply(m.issues))
}

// Messages returns a copy of an issue's thread, oldest first.
func (m *Manager) Messages(id string) []models.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ChatMessage(nil), m.messages[id]...)
}

// Stats counts issues per status, category and priority.
type Stats struct {
	Total      int
	ByStatus   map[models.Status]int
	ByCategory map[models.Category]int
	ByPriority map[models.Priority]int
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Total:      len(m.issues),
		ByStatus:   make(map[models.Status]int),
		ByCategory: make(map[models.Category]int),
		ByPriority: make(map[models.Priority]int),
	}
	for _, i := range m.issues {
		s.ByStatus[i.Status]++
		s.ByCategory[i.Category]++
		s.ByPriority[i.Priority]++
	}
	return s
}

// Select makes id the selected issue and switches to the detail view.
// An empty id clears the selection and returns to the list.
func (m *Manager) Select(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		m.selected, m.view = "", ViewList
		return nil
	}
	if _, err := m.find(id); err != nil {
		return err
	}
	m.selected, m.view = id, ViewDetail
	return nil
}

// Selected returns the selected issue, if any.
func (m *Manager) Selected() (models.Issue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == "" {
		return models.Issue{}, false
	}
	idx, err := m.find(m.selected)
	if err != nil {
		return models.Issue{}, false
	}
	return m.issues[idx].Clone(), true
}

func (m *Manager) SetView(v View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
}

func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Wait blocks until every scheduled task has run or been cancelled.
func (m *Manager) Wait() {
	m.tasks.Wait()
}

// Close cancels pending tasks and waits for running ones. Later
// SendMessage calls still record the user's message but schedule no reply.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.cancelTasks()
	m.mu.Unlock()
	m.tasks.Wait()
}

func cloneIssues(in []models.Issue) []models.Issue {
	out := make([]models.Issue, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
