package contact

import (
	"context"
	"time"

	"github.com/adagearchive/moderation/internal/database"
)

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return Repository{db: db}
}

// CreateAppealTicket stores the appeal as a contact message and returns its id. The appellant's
// text is reduced to plain text before it is stored.
func (r Repository) CreateAppealTicket(ctx context.Context, ticket AppealTicket) (int64, error) {
	ticket.Message = Sanitize(ticket.Message)
	if ticket.Message == "" {
		return 0, ErrEmptyMessage
	}

	if ticket.CreatedOn.IsZero() {
		ticket.CreatedOn = time.Now()
	}

	var ticketID int64
	if errInsert := r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.
		Builder().
		Insert("contact_message").
		SetMap(map[string]any{
			"author_id":    ticket.AppellantID,
			"subject":      ticket.Subject(),
			"body":         ticket.Body(),
			"related_id":   ticket.ChallengeID.String(),
			"related_type": RelatedChallenge,
			"created_on":   ticket.CreatedOn,
		}).
		Suffix("RETURNING contact_message_id"), &ticketID); errInsert != nil {
		return 0, database.DBErr(errInsert)
	}

	return ticketID, nil
}
