package mailer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/gastos/pkg/mailer"
)

// LogMailer writes outgoing mail to the logger instead of an SMTP server.
type LogMailer struct {
	from   string
	logger *slog.Logger
}

var _ mailer.Mailer = (*LogMailer)(nil)

func NewLogMailer(from string, logger *slog.Logger) *LogMailer {
	return &LogMailer{from: from, logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "Sending mail",
		"from", m.from,
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// Message is a mail captured by an Outbox.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Outbox keeps sent mail in memory. Fail makes every Send return that error.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	Fail     error
}

var _ mailer.Mailer = (*Outbox)(nil)

func (o *Outbox) Send(_ context.Context, to, subject, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Fail != nil {
		return o.Fail
	}
	o.messages = append(o.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns a copy of everything sent so far.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}

// Last returns the most recent message, if any.
func (o *Outbox) Last() (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.messages) == 0 {
		return Message{}, false
	}
	return o.messages[len(o.messages)-1], true
}
