package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category groups issues; each category carries its own detail record.
type Category string

const (
	CategoryContent   Category = "content"
	CategoryTechnical Category = "technical"
	CategoryGeneral   Category = "general"
)

// Categories lists every category in seeding order.
var Categories = []Category{CategoryContent, CategoryTechnical, CategoryGeneral}

func (c Category) Valid() bool {
	return c == CategoryContent || c == CategoryTechnical || c == CategoryGeneral
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	return p.Rank() >= 0
}

// Rank orders priorities from low (0) to urgent (3); -1 for unknown values.
func (p Priority) Rank() int {
	for i, v := range Priorities {
		if v == p {
			return i
		}
	}
	return -1
}

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Rank orders statuses along the usual workflow.
func (s Status) Rank() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

// Issue is a tracked unit of work. Exactly one of the detail records is set
// and it matches Category.
type Issue struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    Category    `json:"category"`
	Priority    Priority    `json:"priority"`
	Status      Status      `json:"status"`
	SubmittedBy string      `json:"submittedBy"`
	SubmittedAt time.Time   `json:"submittedAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Tags        []string    `json:"tags"`
	Attachments []MediaFile `json:"attachments"`

	ContentDetails   *ContentDetails   `json:"contentDetails,omitempty"`
	TechnicalDetails *TechnicalDetails `json:"technicalDetails,omitempty"`
	GeneralDetails   *GeneralDetails   `json:"generalDetails,omitempty"`
}

// Details is implemented by the three category-specific records.
type Details interface {
	Kind() Category
}

type ContentDetails struct {
	ContentType    string     `json:"contentType"`
	Platform       string     `json:"platform"`
	TargetAudience string     `json:"targetAudience"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

func (*ContentDetails) Kind() Category { return CategoryContent }

type TechnicalDetails struct {
	SystemType       string `json:"systemType"`
	Browser          string `json:"browser,omitempty"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
	StepsToReproduce string `json:"stepsToReproduce,omitempty"`
}

func (*TechnicalDetails) Kind() Category { return CategoryTechnical }

type GeneralDetails struct {
	Category   string `json:"category"`
	Department string `json:"department"`
	Urgency    string `json:"urgency"`
}

func (*GeneralDetails) Kind() Category { return CategoryGeneral }

// ErrInvalidIssue is wrapped by every Validate failure.
var ErrInvalidIssue = errors.New("invalid issue")

// Details returns the detail record that is present, or nil.
func (i *Issue) Details() Details {
	switch {
	case i.ContentDetails != nil:
		return i.ContentDetails
	case i.TechnicalDetails != nil:
		return i.TechnicalDetails
	case i.GeneralDetails != nil:
		return i.GeneralDetails
	}
	return nil
}

// SetDetails stores d, clears the other records and aligns Category with it.
func (i *Issue) SetDetails(d Details) {
	i.ContentDetails, i.TechnicalDetails, i.GeneralDetails = nil, nil, nil
	switch v := d.(type) {
	case *ContentDetails:
		i.ContentDetails = v
	case *TechnicalDetails:
		i.TechnicalDetails = v
	case *GeneralDetails:
		i.GeneralDetails = v
	default:
		return
	}
	i.Category = d.Kind()
}

// Validate checks the enum fields and the detail record invariant.
func (i *Issue) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidIssue)
	}
	if !i.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidIssue, i.Category)
	}
	if !i.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidIssue, i.Priority)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidIssue, i.Status)
	}

	present := 0
	for _, set := range []bool{i.ContentDetails != nil, i.TechnicalDetails != nil, i.GeneralDetails != nil} {
		if set {
			present++
		}
	}
	if present != 1 {
		return fmt.Errorf("%w: expected exactly one detail record, got %d", ErrInvalidIssue, present)
	}
	if d := i.Details(); d.Kind() != i.Category {
		return fmt.Errorf("%w: %s details on a %s issue", ErrInvalidIssue, d.Kind(), i.Category)
	}
	return nil
}

// Clone returns a copy that shares no slices or detail pointers with i.
func (i Issue) Clone() Issue {
	out := i
	if i.Tags != nil {
		out.Tags = append(make([]string, 0, len(i.Tags)), i.Tags...)
	}
	if i.Attachments != nil {
		out.Attachments = append(make([]MediaFile, 0, len(i.Attachments)), i.Attachments...)
	}
	if i.ContentDetails != nil {
		cd := *i.ContentDetails
		if cd.Deadline != nil {
			dl := *cd.Deadline
			cd.Deadline = &dl
		}
		out.ContentDetails = &cd
	}
	if i.TechnicalDetails != nil {
		td := *i.TechnicalDetails
		out.TechnicalDetails = &td
	}
	if i.GeneralDetails != nil {
		gd := *i.GeneralDetails
		out.GeneralDetails = &gd
	}
	return out
}
