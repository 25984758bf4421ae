package emailsvc

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	disableOutput    bool
	sends            *inflight
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService returns an email service that prints messages to the standard logger.
func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromAddress(),
		subjPrefix:       "[" + conf.AppName + "] ",
		sends:            new(inflight),
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		svc.sends.run(func() { _ = svc.sendMessage(msg) })
	}
}

func (svc consoleService) Flush(ctx context.Context) error {
	return svc.sends.wait(ctx)
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) bool {
	tmpl := templateLabel(msg)
	if err := msg.Render(); err != nil {
		core.EmailsSent.WithLabelValues(tmpl, "failed").Inc()
		log.Printf("%+v", errors.Wrapf(err, "rendering %s email", tmpl))
		return false
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		core.EmailsSent.WithLabelValues(tmpl, "skipped").Inc()
		return false
	}

	out := new(strings.Builder)
	if err := svc.writeMIME(out, msg); err != nil {
		core.EmailsSent.WithLabelValues(tmpl, "failed").Inc()
		log.Printf("%+v", errors.Wrapf(err, "writing %s email", tmpl))
		return false
	}
	if !svc.disableOutput {
		log.Println(out.String())
	}
	core.EmailsSent.WithLabelValues(tmpl, "sent").Inc()
	return true
}

// writeMIME writes msg as a multipart/alternative MIME message.
func (svc consoleService) writeMIME(out io.Writer, msg *core.EmailMessage) error {
	headers := [][2]string{
		{"From", svc.defaultFromEmail.String()},
		{"To", joinAddresses(msg.To)},
		{"Cc", joinAddresses(msg.Cc)},
		{"Bcc", joinAddresses(msg.Bcc)},
		{"Subject", svc.subjPrefix + msg.Subject},
		{"Date", core.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
	}
	for _, h := range headers {
		if h[1] != "" {
			_, _ = fmt.Fprintf(out, "%s: %s\r\n", h[0], h[1])
		}
	}

	parts := multipart.NewWriter(out)
	_, _ = fmt.Fprintf(out, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", parts.Boundary())

	bodies := []struct{ mime, content string }{
		{"text/plain", msg.TextContent},
		{"text/html", msg.HTMLContent},
	}
	for _, b := range bodies {
		if b.content == "" {
			continue
		}
		w, err := parts.CreatePart(textproto.MIMEHeader{"Content-Type": {b.mime + "; charset=utf-8"}})
		if err != nil {
			return errors.Wrapf(err, "creating %s part", b.mime)
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", b.content)
	}
	return errors.Wrap(parts.Close(), "closing multipart writer")
}

func joinAddresses(addrs []mail.Address) string {
	list := make([]string, len(addrs))
	for i, a := range addrs {
		list[i] = a.String()
	}
	return strings.Join(list, ", ")
}

// ConsoleServiceMock sends synchronously, without output, and keeps the sent messages.
type ConsoleServiceMock struct {
	consoleService

	mu   sync.Mutex
	sent []core.EmailMessage
}

func NewConsoleServiceMock(conf *core.Config) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			defaultFromEmail: conf.DefaultFromAddress(),
			subjPrefix:       "[" + conf.AppName + "] ",
			disableOutput:    true,
		},
	}
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		// run synchronously
		if svc.sendMessage(msg) {
			svc.mu.Lock()
			svc.sent = append(svc.sent, *msg)
			svc.mu.Unlock()
		}
	}
}

// Flush returns at once; the mock sends synchronously.
func (svc *ConsoleServiceMock) Flush(context.Context) error { return nil }

// SentMessages returns a copy of the messages sent so far.
func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}

func (svc *ConsoleServiceMock) Clear() {
	svc.mu.Lock()
	svc.sent = nil
	svc.mu.Unlock()
}
