package emailsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

type sendgridService struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	category   string
	logger     core.Logger
	sends      *inflight
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService delivers review and account emails through the Sendgrid v3 API.
// Every message is tagged with the app name and its template so they can be told apart
// in Sendgrid's activity feed.
func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromAddress()
	return &sendgridService{
		client:     sendgrid.NewSendClient(conf.SendgridApiKey),
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		category:   conf.AppName,
		logger:     logger,
		sends:      new(inflight),
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		svc.sends.run(func() { svc.deliver(msg) })
	}
}

func (svc *sendgridService) Flush(ctx context.Context) error {
	return svc.sends.wait(ctx)
}

func (svc *sendgridService) deliver(msg *core.EmailMessage) {
	tmpl := templateLabel(msg)
	if err := msg.Render(); err != nil {
		core.EmailsSent.WithLabelValues(tmpl, "failed").Inc()
		svc.logger.Error(fmt.Sprintf("rendering %s email: %v", tmpl, err), errors.WithStack(err))
		return
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		core.EmailsSent.WithLabelValues(tmpl, "skipped").Inc()
		return
	}

	res, err := svc.client.Send(svc.build(msg, tmpl))
	switch {
	case err != nil:
		core.EmailsSent.WithLabelValues(tmpl, "failed").Inc()
		svc.logger.Error(fmt.Sprintf("sending %s email: %v", tmpl, err), errors.WithStack(err))
	case res.StatusCode >= http.StatusBadRequest:
		core.EmailsSent.WithLabelValues(tmpl, "failed").Inc()
		svc.logger.Error(
			fmt.Sprintf("sending %s email: status %d", tmpl, res.StatusCode),
			map[string]interface{}{"body": res.Body, "to": len(msg.To)},
		)
	default:
		core.EmailsSent.WithLabelValues(tmpl, "sent").Inc()
	}
}

func (svc *sendgridService) build(msg *core.EmailMessage, tmpl string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(toSGEmails(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(toSGEmails(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(toSGEmails(msg.Bcc)...)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddCategories(svc.category, tmpl)

	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func toSGEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return emails
}

// templateLabel names the message for logs and metrics.
func templateLabel(msg *core.EmailMessage) string {
	if msg.TemplateName != "" {
		return msg.TemplateName
	}
	return "plain"
}
