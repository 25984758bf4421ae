package core

import (
	"bytes"
	"context"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

const emailTemplatesDir = "templates/email"

// emailTemplate holds the two renditions of one email; either may be missing.
type emailTemplate struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

var mailer struct {
	sync.RWMutex
	templates       map[string]emailTemplate
	frontendBaseURL string
}

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // plain text body, used instead of the template's text rendition

		TemplateName string // file name without extension
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is what email templates are executed with.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
		// Flush waits for the messages being sent, or for ctx to be done.
		Flush(ctx context.Context) error
	}
)

// NewTemplatedEmail addresses a templated email to a single recipient.
func NewTemplatedEmail(toName, toAddress, subject, template string, data interface{}) *EmailMessage {
	return &EmailMessage{
		To:           []mail.Address{{Name: toName, Address: toAddress}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: data,
	}
}

// Render fills TextContent and HTMLContent from BodyStr and the message's template.
// Unknown templates render nothing.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	mailer.RLock()
	tmpl, ok := mailer.templates[m.TemplateName]
	data := ContextData{FrontendBaseURL: mailer.frontendBaseURL, Data: m.TemplateData}
	mailer.RUnlock()
	if !ok {
		return nil
	}

	var buf bytes.Buffer
	if tmpl.text != nil && m.BodyStr == "" {
		if err := tmpl.text.Execute(&buf, data); err != nil {
			return errors.Wrapf(err, "%s.txt", m.TemplateName)
		}
		m.TextContent = buf.String()
	}
	if tmpl.html != nil {
		buf.Reset()
		if err := tmpl.html.Execute(&buf, data); err != nil {
			return errors.Wrapf(err, "%s.gohtml", m.TemplateName)
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" || m.HTMLContent != "" }

// ParseEmailTemplates loads the email templates of fsys, replacing any loaded before.
// Each `<name>.txt` and `<name>.gohtml` under templates/email is parsed together with
// the `_base` layout of the same extension. Broken templates are logged and skipped;
// in debug and test mode the first failure is also returned.
func ParseEmailTemplates(fsys fs.FS, conf *Config, logger Logger) error {
	strict := conf.Debug || conf.TestMode
	loaded := make(map[string]emailTemplate)

	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
		if logger != nil {
			logger.Error(fmt.Sprintf("parsing email templates: %v", err), err)
		}
	}

	files, err := fs.Glob(fsys, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		fail(errors.WithStack(err))
	}
	if err == nil && len(files) == 0 {
		fail(errors.Errorf("no email templates found under %s", emailTemplatesDir))
	}
	for _, file := range files {
		base := path.Base(file)
		ext := path.Ext(base)
		if strings.HasPrefix(base, "_") {
			continue
		}
		name := strings.TrimSuffix(base, ext)
		layout := path.Join(emailTemplatesDir, "_base"+ext)
		tmpl := loaded[name]

		switch ext {
		case ".txt":
			t, err := texttmpl.ParseFS(fsys, layout, file)
			if err != nil {
				fail(errors.Wrap(err, base))
				continue
			}
			if strict {
				t.Option("missingkey=error")
			}
			tmpl.text = t
		case ".gohtml":
			t, err := htmltmpl.ParseFS(fsys, layout, file)
			if err != nil {
				fail(errors.Wrap(err, base))
				continue
			}
			if strict {
				t.Option("missingkey=error")
			}
			tmpl.html = t
		default:
			continue
		}
		loaded[name] = tmpl
	}

	mailer.Lock()
	mailer.templates = loaded
	mailer.frontendBaseURL = conf.FrontendBaseURL
	mailer.Unlock()

	if strict {
		return firstErr
	}
	return nil
}
