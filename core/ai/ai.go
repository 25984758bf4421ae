// Package ai provides AI assistance for writing and reviewing lesson notes.
// Text generation goes through a Completer; no other package talks to a provider.
package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

// Section keys
const (
	KeyObjectives   = "objectives"
	KeyMaterials    = "materials"
	KeyIntroduction = "introduction"
	KeyDevelopment  = "development"
	KeyEvaluation   = "evaluation"
	KeyConclusion   = "conclusion"
	KeyText         = "text" // free-form replies
)

// Prompt prefixes, one per kind of request.
const (
	GeneratePrefix = "Write a professional Nigerian school lesson note"
	ImprovePrefix  = "Improve the following"
	EvaluatePrefix = "Evaluate this lesson note"
)

var (
	ContentSections = []string{KeyObjectives, KeyMaterials, KeyIntroduction, KeyDevelopment, KeyEvaluation, KeyConclusion}

	ErrEmptyReply = errors.New("the AI provider returned an empty reply")

	scoreRegex = regexp.MustCompile(`(?i)score:\s*(\d{1,3})\s*%`)
)

// Sections maps a section key to its text.
type Sections map[string]string

// Apply copies the lesson content sections into c. Missing sections are cleared.
func (s Sections) Apply(c *lesson.Content) {
	c.Objectives = s[KeyObjectives]
	c.Materials = s[KeyMaterials]
	c.Introduction = s[KeyIntroduction]
	c.Development = s[KeyDevelopment]
	c.Evaluation = s[KeyEvaluation]
	c.Conclusion = s[KeyConclusion]
}

// Completer turns a prompt into structured text sections.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Sections, error)
}

type Evaluation struct {
	NoteID   string `json:"note_id,omitempty"`
	Score    int    `json:"score"` // 0-100, -1 when the reply carries no score
	Feedback string `json:"feedback"`
}

type Service struct {
	completer Completer
}

func NewService(completer Completer) *Service {
	return &Service{completer: completer}
}

// GenerateLesson writes the content sections of a lesson note. Subject, class, week and topic are required.
func (svc *Service) GenerateLesson(ctx context.Context, h lesson.Header) (Sections, error) {
	var fldErrs []core.FieldError
	for _, fld := range []struct{ name, val string }{
		{"subject", h.Subject}, {"class", h.Class}, {"week", h.Week}, {"topic", h.Topic},
	} {
		if core.IsBlank(fld.val) {
			fldErrs = append(fldErrs, core.FieldError{Field: fld.name, Error: "this field is required"})
		}
	}
	if fldErrs != nil {
		return nil, core.NewValidationError(nil, fldErrs...)
	}

	sections, err := svc.completer.Complete(ctx, GeneratePrompt(h))
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, ErrEmptyReply
	}
	return sections, nil
}

// ImproveSection rewrites the text of one content section.
func (svc *Service) ImproveSection(ctx context.Context, section, text string) (string, error) {
	if !isContentSection(section) {
		return "", core.NewValidationError(nil, core.FieldError{Field: "section", Error: "unknown section"})
	}
	text = core.CleanString(text)
	if text == "" {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "text",
			Error: "please enter some content first before improving with AI",
		})
	}
	return svc.text(ctx, ImprovePrompt(section, text))
}

// EvaluateLesson scores a lesson note and gives short feedback.
func (svc *Service) EvaluateLesson(ctx context.Context, note lesson.Note) (Evaluation, error) {
	feedback, err := svc.text(ctx, EvaluatePrompt(note))
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{NoteID: note.ID, Score: parseScore(feedback), Feedback: feedback}, nil
}

// EvaluateAll evaluates notes one after the other. It stops at the first error or when ctx is done.
func (svc *Service) EvaluateAll(ctx context.Context, notes []lesson.Note) ([]Evaluation, error) {
	evals := make([]Evaluation, 0, len(notes))
	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			return evals, err
		}
		eval, err := svc.EvaluateLesson(ctx, note)
		if err != nil {
			return evals, err
		}
		evals = append(evals, eval)
	}
	return evals, nil
}

// Chat answers a teacher's free-form question.
func (svc *Service) Chat(ctx context.Context, message string) (string, error) {
	message = core.CleanString(message)
	if message == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "message", Error: "this field is required"})
	}
	return svc.text(ctx, message)
}

func (svc *Service) text(ctx context.Context, prompt string) (string, error) {
	sections, err := svc.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	txt := strings.TrimSpace(sections[KeyText])
	if txt == "" {
		return "", ErrEmptyReply
	}
	return txt, nil
}

func isContentSection(name string) bool {
	for _, s := range ContentSections {
		if s == name {
			return true
		}
	}
	return false
}

func parseScore(s string) int {
	m := scoreRegex.FindStringSubmatch(s)
	if m == nil {
		return -1
	}
	score, err := strconv.Atoi(m[1])
	if err != nil || score > 100 {
		return -1
	}
	return score
}

func GeneratePrompt(h lesson.Header) string {
	return fmt.Sprintf(`%s for %s in week %s for class %s.

Topic: %s

Include the following sections:
1. Learning Objectives (3-5 clear, measurable objectives)
2. Instructional Materials (list of materials needed)
3. Introduction (how to introduce the lesson, 2-3 sentences)
4. Lesson Development (detailed step-by-step teaching process, at least 5 steps)
5. Evaluation Questions (5-7 questions to assess understanding)
6. Conclusion (how to wrap up the lesson, 2-3 sentences)

Align content with the Nigerian curriculum style and use clear, teacher-friendly language.

Format the response as JSON with keys: %s`,
		GeneratePrefix, h.Subject, h.Week, h.Class, h.Topic, strings.Join(ContentSections, ", "))
}

func ImprovePrompt(section, text string) string {
	return fmt.Sprintf(`%s %s section of a Nigerian school lesson note. Make it more clear, professional, and aligned with curriculum standards. Keep the same meaning but enhance the language and structure:

%s

Return only the improved version.`, ImprovePrefix, section, text)
}

func EvaluatePrompt(note lesson.Note) string {
	return fmt.Sprintf(`%s for completeness, accuracy, and clarity. Give structured feedback in less than 5 lines.

Subject: %s
Class: %s
Topic: %s
Objectives: %s
Development: %s
Evaluation: %s

Provide a score (0-100%%) and brief feedback.`,
		EvaluatePrefix, note.Subject, note.Class, note.Topic, note.Objectives, note.Development, note.Evaluation)
}

// TopicOf extracts the topic line of a generation prompt.
func TopicOf(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "Topic: ") {
			return strings.TrimPrefix(line, "Topic: ")
		}
	}
	return ""
}

// ImprovedTextOf extracts the text to improve from an improvement prompt.
func ImprovedTextOf(prompt string) string {
	parts := strings.SplitN(prompt, "\n\n", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSuffix(parts[1], "\n\nReturn only the improved version.")
}
