package mail

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Kyz7/formbuilder/internal/config"
)

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks a mailer from MAIL_DRIVER.
func New(cfg *config.Config) (Mailer, error) {
	switch cfg.MailDriver {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required for the smtp mail driver")
		}
		return &SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}, nil
	case "ses":
		return NewSESMailer(cfg.SESRegion)
	case "log", "":
		return LogMailer{}, nil
	}
	return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
}

// LogMailer prints messages instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	log.Printf("📧 [mail] to=%v subject=%q\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}

// Recorder keeps sent messages in memory. Set Err to make Send fail.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

func (r *Recorder) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent message sent to addr.
func (r *Recorder) Last(addr string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		for _, to := range r.sent[i].To {
			if to == addr {
				return r.sent[i], true
			}
		}
	}
	return Message{}, false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
	r.Err = nil
}
