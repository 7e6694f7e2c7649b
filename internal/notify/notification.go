package notify

import (
	"context"
	"fmt"

	"github.com/Kyz7/formbuilder/internal/mail"
)

type Kind string

const (
	KindWelcome         Kind = "welcome"
	KindSetPasswordLink Kind = "set_password_link"
	KindPasswordReset   Kind = "password_reset"
	KindSurveyAssigned  Kind = "survey_assigned"
)

// Notification is the intent to email a user, produced by the credential and
// assignment flows and delivered by a Notifier.
type Notification struct {
	Kind    Kind   `json:"kind"`
	UserID  uint   `json:"user_id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Queued reports whether a nil error from n.Notify only means the
// notification was handed off, with the mail sent later.
func Queued(n Notifier) bool {
	q, ok := n.(interface{ Queues() bool })
	return ok && q.Queues()
}

func Welcome(userID uint, email, username, link string) Notification {
	return Notification{
		Kind:    KindWelcome,
		UserID:  userID,
		To:      email,
		Subject: "Welcome to My Site!",
		Body: fmt.Sprintf("Hi, this is your registered username: %s  Please follow this link to set your password: %s",
			username, link),
	}
}

func SetPasswordLink(userID uint, email, link string) Notification {
	return Notification{
		Kind:    KindSetPasswordLink,
		UserID:  userID,
		To:      email,
		Subject: "Password Reset Request",
		Body:    "Please follow this link to set your password: " + link,
	}
}

func PasswordReset(userID uint, email, link string) Notification {
	return Notification{
		Kind:    KindPasswordReset,
		UserID:  userID,
		To:      email,
		Subject: "Password Reset Request",
		Body:    "Please follow this link to reset your password: " + link,
	}
}

func SurveyAssigned(userID uint, email, link string) Notification {
	return Notification{
		Kind:    KindSurveyAssigned,
		UserID:  userID,
		To:      email,
		Subject: "Survey Link",
		Body:    "Please fill out the form at " + link,
	}
}

func (n Notification) message(from string) mail.Message {
	return mail.Message{
		From:    from,
		To:      []string{n.To},
		Subject: n.Subject,
		Body:    n.Body,
	}
}

// Direct sends each notification synchronously so the caller sees delivery errors.
type Direct struct {
	Mailer mail.Mailer
	From   string
}

func (d *Direct) Notify(ctx context.Context, n Notification) error {
	return d.Mailer.Send(ctx, n.message(d.From))
}
