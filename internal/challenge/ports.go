package challenge

import (
	"context"

	"github.com/adagearchive/moderation/internal/contact"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/modlog"
	"github.com/adagearchive/moderation/internal/notification"
	"github.com/gofrs/uuid/v5"
)

// Store persists challenges. CompareAndSwap writes the challenge only when the stored version still
// equals challenge.Version, incrementing it on success, and returns ErrPersistenceConflict otherwise.
type Store interface {
	Create(ctx context.Context, challenge *Challenge) error
	ByID(ctx context.Context, challengeID uuid.UUID) (Challenge, error)
	LatestAccepted(ctx context.Context, target content.Target) (Challenge, error)
	CompareAndSwap(ctx context.Context, challenge *Challenge) error
	Query(ctx context.Context, filter Query) ([]Challenge, int64, error)
}

// ContentGateway changes the visibility of, and resolves details about, the challenged content.
type ContentGateway interface {
	Hide(ctx context.Context, target content.Target) error
	Restore(ctx context.Context, target content.Target) error
	ResolveAuthor(ctx context.Context, target content.Target) (int64, error)
	ResolveLink(ctx context.Context, target content.Target) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, notif notification.Notification) error
}

type AuditLog interface {
	Append(ctx context.Context, entry modlog.Entry) error
}

type AdminDirectory interface {
	ListAdmins(ctx context.Context) ([]int64, error)
}

type TicketStore interface {
	CreateAppealTicket(ctx context.Context, ticket contact.AppealTicket) (int64, error)
}
