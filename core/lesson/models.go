package lesson

import (
	"time"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

type Status string

// Statuses
const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var Statuses = []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// FilterAll is the filter value meaning "no constraint on this field".
const FilterAll = "all"

// Header identifies a lesson note.
type Header struct {
	Subject string `json:"subject"`
	Class   string `json:"class"`
	Week    string `json:"week"`
	Term    string `json:"term"`
	Topic   string `json:"topic"`
}

// Content is everything a teacher edits on a lesson note.
type Content struct {
	Header
	Objectives   string `json:"objectives"`
	Materials    string `json:"materials"`
	Introduction string `json:"introduction"`
	Development  string `json:"development"`
	Evaluation   string `json:"evaluation"`
	Conclusion   string `json:"conclusion"`
}

// Clean trims every field.
func (c *Content) Clean() {
	for _, fld := range c.fields() {
		*fld.val = core.CleanString(*fld.val)
	}
}

type contentField struct {
	name string
	val  *string
}

func (c *Content) fields() []contentField {
	return []contentField{
		{"subject", &c.Subject},
		{"class", &c.Class},
		{"week", &c.Week},
		{"term", &c.Term},
		{"topic", &c.Topic},
		{"objectives", &c.Objectives},
		{"materials", &c.Materials},
		{"introduction", &c.Introduction},
		{"development", &c.Development},
		{"evaluation", &c.Evaluation},
		{"conclusion", &c.Conclusion},
	}
}

// Note is a lesson note. TeacherID is set on creation and never changes.
type Note struct {
	ID        string `json:"id"`
	TeacherID string `json:"teacher_id"`
	Content
	Status      Status     `json:"status"`
	AIGenerated bool       `json:"ai_generated"`
	Feedback    string     `json:"feedback,omitempty"`
	ReviewedBy  string     `json:"reviewed_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`            // UTC
	UpdatedAt   time.Time  `json:"updated_at"`            // UTC
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"` // UTC, nil until reviewed
}

// Editable reports whether the owner may still change the note.
func (n Note) Editable() bool {
	return n.Status == StatusDraft || n.Status == StatusRejected
}

// QueryFilter is an AND-combination of equality filters. Empty or FilterAll values are ignored.
type QueryFilter struct {
	Status    string `query:"status"`
	Subject   string `query:"subject"`
	Class     string `query:"class"`
	TeacherID string `query:"teacher"`
	Limit     int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	clean := func(s string) string {
		s = core.CleanString(s)
		if s == FilterAll {
			return ""
		}
		return s
	}
	qf.Status = clean(qf.Status)
	qf.Subject = clean(qf.Subject)
	qf.Class = clean(qf.Class)
	qf.TeacherID = clean(qf.TeacherID)
	if qf.Limit < 0 {
		qf.Limit = 0
	}
}

// Validate rejects a status that is neither a known Status nor a sentinel. Call it after Clean.
func (qf *QueryFilter) Validate() error {
	if qf.Status != "" && !Status(qf.Status).Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}
	return nil
}

// Match reports whether n satisfies every set field of the filter. Limit is not considered.
func (qf *QueryFilter) Match(n Note) bool {
	if qf == nil {
		return true
	}
	return (qf.Status == "" || string(n.Status) == qf.Status) &&
		(qf.Subject == "" || n.Subject == qf.Subject) &&
		(qf.Class == "" || n.Class == qf.Class) &&
		(qf.TeacherID == "" || n.TeacherID == qf.TeacherID)
}

// FilterOptions are the values offered by the review filters.
type FilterOptions struct {
	Subjects []string          `json:"subjects"`
	Classes  []string          `json:"classes"`
	Teachers map[string]string `json:"teachers"` // {id: name}
}

type Stats struct {
	Total       int `json:"total"`
	Draft       int `json:"draft"`
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	AIGenerated int `json:"ai_generated"`
}

// MonthCount is the number of notes created in a calendar month.
type MonthCount struct {
	Month string `json:"month"` // e.g. "Jan 2026"
	Count int    `json:"count"`
}
