// Command issuedesk drives the local issue tracker: browse and submit issues,
// change their status, chat with support and attach media.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/client"
	"github.com/pageza/issuedesk/backend/internal/mockdata"
	"github.com/pageza/issuedesk/backend/internal/models"
	"github.com/pageza/issuedesk/backend/internal/store"
	"github.com/pageza/issuedesk/backend/internal/tracker"
	"github.com/pageza/issuedesk/backend/internal/types"
)

type app struct {
	cfg     *config.ClientConfig
	store   *store.Store
	manager *tracker.Manager
	uploads *client.Client
	out     io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"list":   {"list issues, filtered and sorted", runList},
	"show":   {"show an issue and its conversation", runShow},
	"submit": {"submit a new issue", runSubmit},
	"status": {"change the status of an issue", runStatus},
	"send":   {"send a message and wait for the support reply", runSend},
	"attach": {"upload a file and attach it to an issue", runAttach},
	"stats":  {"count issues by status, category and priority", runStats},
	"health": {"show which upload path is active", runHealth},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "issuedesk:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(out)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, run 'issuedesk help'", args[0])
	}

	cfg, err := config.LoadClientConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer a.close()

	return cmd.run(ctx, a, args[1:])
}

func newApp(ctx context.Context, cfg *config.ClientConfig, out io.Writer) (*app, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	gen := mockdata.New(mockdata.WithSupportAgent(cfg.SupportAgent))
	return &app{
		cfg:     cfg,
		store:   st,
		manager: tracker.NewManager(ctx, st, gen, tracker.SessionFromConfig(cfg)),
		uploads: client.New(cfg, gen),
		out:     out,
	}, nil
}

func (a *app) close() {
	a.manager.Close()
	if err := a.store.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "issuedesk: closing store:", err)
	}
}

// resolve accepts a full issue id or a unique prefix of one.
func (a *app) resolve(ref string) (string, error) {
	if ref == "" {
		return "", errors.New("issue id is required")
	}
	var match string
	for _, i := range a.manager.Issues() {
		if i.ID == ref {
			return ref, nil
		}
		if strings.HasPrefix(i.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("issue reference %q is ambiguous", ref)
			}
			match = i.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", tracker.ErrIssueNotFound, ref)
	}
	return match, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("issuedesk "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runList(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("list")
	status := fs.String("status", "", "only issues with this status")
	category := fs.String("category", "", "only issues in this category")
	priority := fs.String("priority", "", "only issues with this priority")
	search := fs.String("search", "", "free-text search over title, description, tags and submitter")
	sortBy := fs.String("sort", string(models.SortNewest), "newest, oldest, priority, status or updated")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := models.IssueFilter{
		Status:   models.Status(*status),
		Category: models.Category(*category),
		Priority: models.Priority(*priority),
		Search:   *search,
		SortBy:   models.SortOrder(*sortBy),
	}
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("unknown status %q", *status)
	}
	if f.Category != "" && !f.Category.Valid() {
		return fmt.Errorf("unknown category %q", *category)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", *priority)
	}

	a.manager.SetView(tracker.ViewList)
	renderList(a.out, a.manager.List(f))
	return nil
}

func runShow(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: issuedesk show <id>")
	}
	id, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	if err := a.manager.Select(id); err != nil {
		return err
	}
	issue, _ := a.manager.Selected()
	renderIssue(a.out, issue, a.manager.Messages(id))
	return nil
}

func runSubmit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("submit")
	title := fs.String("title", "", "short summary (required)")
	description := fs.String("description", "", "what happened")
	category := fs.String("category", string(models.CategoryGeneral), "content, technical or general")
	priority := fs.String("priority", string(models.PriorityMedium), "low, medium, high or urgent")
	tags := fs.String("tags", "", "comma separated tags")

	contentType := fs.String("content-type", "", "content: kind of content")
	platform := fs.String("platform", "", "content: where it is published")
	audience := fs.String("audience", "", "content: target audience")
	deadline := fs.String("deadline", "", "content: deadline as YYYY-MM-DD")

	system := fs.String("system", "", "technical: affected system")
	browser := fs.String("browser", "", "technical: browser")
	errMsg := fs.String("error", "", "technical: error message")
	steps := fs.String("steps", "", "technical: steps to reproduce")

	topic := fs.String("topic", "", "general: topic")
	department := fs.String("department", "", "general: department")
	urgency := fs.String("urgency", "", "general: urgency")
	if err := fs.Parse(args); err != nil {
		return err
	}

	issue := models.Issue{
		Title:       strings.TrimSpace(*title),
		Description: strings.TrimSpace(*description),
		Priority:    models.Priority(*priority),
		Tags:        splitTags(*tags),
	}
	switch models.Category(*category) {
	case models.CategoryContent:
		d := &models.ContentDetails{ContentType: *contentType, Platform: *platform, TargetAudience: *audience}
		if *deadline != "" {
			t, err := time.ParseInLocation("2006-01-02", *deadline, time.Local)
			if err != nil {
				return fmt.Errorf("invalid deadline %q: %w", *deadline, err)
			}
			d.Deadline = &t
		}
		issue.SetDetails(d)
	case models.CategoryTechnical:
		issue.SetDetails(&models.TechnicalDetails{SystemType: *system, Browser: *browser, ErrorMessage: *errMsg, StepsToReproduce: *steps})
	case models.CategoryGeneral:
		issue.SetDetails(&models.GeneralDetails{Category: *topic, Department: *department, Urgency: *urgency})
	default:
		return fmt.Errorf("unknown category %q", *category)
	}

	a.manager.SetView(tracker.ViewSubmit)
	created, err := a.manager.SubmitIssue(ctx, issue)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Submitted %s %s\n", shortID(created.ID), created.Title)
	for _, m := range a.manager.Messages(created.ID) {
		renderMessage(a.out, m)
	}
	return nil
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func runStatus(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: issuedesk status <id> <open|in-progress|resolved|closed>")
	}
	id, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	if err := a.manager.ChangeStatus(ctx, id, models.Status(args[1])); err != nil {
		return err
	}
	thread := a.manager.Messages(id)
	renderMessage(a.out, thread[len(thread)-1])
	return nil
}

func runSend(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: issuedesk send <id> <message>")
	}
	id, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	msg, task, err := a.manager.SendMessage(ctx, id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	renderMessage(a.out, msg)

	fmt.Fprintln(a.out, mutedStyle.Render(a.cfg.SupportAgent+" is typing..."))
	select {
	case <-task.Done():
	case <-ctx.Done():
		task.Cancel()
	}
	if !task.Wait() {
		fmt.Fprintln(a.out, mutedStyle.Render("No reply, the conversation was interrupted."))
		return nil
	}
	thread := a.manager.Messages(id)
	renderMessage(a.out, thread[len(thread)-1])
	return nil
}

func runAttach(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("attach")
	strict := fs.Bool("strict", false, "fail instead of falling back to a simulated upload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: issuedesk attach [--strict] <id> <path>")
	}
	id, err := a.resolve(fs.Arg(0))
	if err != nil {
		return err
	}
	file, err := client.FileFromPath(fs.Arg(1))
	if err != nil {
		return err
	}

	var media models.MediaFile
	if *strict {
		media, err = a.uploads.UploadFile(ctx, file)
		if err != nil {
			return fmt.Errorf("upload failed (%s): %w", types.KindOf(err), err)
		}
	} else {
		media = a.uploads.UploadFileWithFallback(ctx, file)
	}

	if err := a.manager.AttachMedia(ctx, id, media); err != nil {
		return err
	}
	note := ""
	if mockdata.IsMockURL(media.URL) {
		note = " " + mutedStyle.Render("(simulated upload)")
	}
	fmt.Fprintf(a.out, "Attached %s to %s: %s%s\n", media.Name, shortID(id), media.URL, note)
	return nil
}

func runStats(_ context.Context, a *app, _ []string) error {
	renderStats(a.out, a.manager.Stats())
	return nil
}

func runHealth(ctx context.Context, a *app, _ []string) error {
	status := a.uploads.Status(ctx)
	var health *types.HealthResponse
	if status.State == client.StateActive || status.Provider != "" {
		health, _ = a.uploads.Health(ctx)
	}
	renderStatus(a.out, status, health)
	return nil
}
