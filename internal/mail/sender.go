package mail

import "log/slog"

// Message is one outbound email: a destination, a subject and plain
// body text.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender accepts messages fire-and-forget. Callers log failures and
// move on; the core never retries delivery.
type Sender interface {
	Send(msg Message) error
}

// LogSender logs messages instead of delivering them. Used in dev
// environments without a broker and in tests.
type LogSender struct{}

// Send logs the message at info level.
func (LogSender) Send(msg Message) error {
	slog.Info("mail (log only)", "to", msg.To, "subject", msg.Subject)
	return nil
}
