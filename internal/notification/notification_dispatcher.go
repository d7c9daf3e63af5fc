package notification

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/adagearchive/moderation/pkg/log"
)

// Store persists in-app notifications.
type Store interface {
	Insert(ctx context.Context, notif *Notification) error
}

// EmailResolver looks up the address of a user. An empty result means no email is sent.
type EmailResolver interface {
	Email(ctx context.Context, userID int64) (string, error)
}

// Mailer delivers a single plain text email.
type Mailer interface {
	Send(ctx context.Context, recipient string, subject string, body string) error
}

// Dispatcher creates the in-app record and mails a copy for the configured types. The in-app
// record is authoritative, a failed email is only logged.
type Dispatcher struct {
	store      Store
	emails     EmailResolver
	mailer     Mailer
	emailTypes []Type
	siteName   string
}

func NewDispatcher(store Store, emails EmailResolver, mailer Mailer, emailTypes []Type, siteName string) *Dispatcher {
	return &Dispatcher{store: store, emails: emails, mailer: mailer, emailTypes: emailTypes, siteName: siteName}
}

func (d *Dispatcher) Notify(ctx context.Context, notif Notification) error {
	if err := notif.Validate(); err != nil {
		return err
	}

	if errInsert := d.store.Insert(ctx, &notif); errInsert != nil {
		return errInsert
	}

	if d.mailer == nil || d.emails == nil || !slices.Contains(d.emailTypes, notif.Type) {
		return nil
	}

	if errMail := d.mail(ctx, notif); errMail != nil {
		slog.Warn("Failed to send notification email", log.ErrAttr(errMail),
			slog.Int64("user_id", notif.UserID), slog.String("type", string(notif.Type)))
	}

	return nil
}

func (d *Dispatcher) mail(ctx context.Context, notif Notification) error {
	address, errAddress := d.emails.Email(ctx, notif.UserID)
	if errAddress != nil {
		return errAddress
	}

	if address == "" {
		return nil
	}

	body := notif.Message
	if notif.Link != "" {
		body += "\n\n" + notif.Link
	}

	return d.mailer.Send(ctx, address, fmt.Sprintf("[%s] %s", d.siteName, notif.Title), body)
}
