// Package contact writes appeal tickets into the website's contact message store.
package contact

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/adagearchive/moderation/internal/content"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/uuid/v5"
	"github.com/microcosm-cc/bluemonday"
)

const RelatedChallenge = "challenge"

var ErrEmptyMessage = errors.New("appeal message is empty")

type AppealTicket struct {
	TicketID    int64          `json:"ticket_id"`
	AppellantID int64          `json:"appellant_id"`
	ChallengeID uuid.UUID      `json:"challenge_id"`
	Target      content.Target `json:"target"`
	Message     string         `json:"message"`
	DecidedOn   *time.Time     `json:"decided_on"`
	CreatedOn   time.Time      `json:"created_on"`
}

//nolint:gochecknoglobals
var strict = bluemonday.StrictPolicy()

// Sanitize strips all markup from user supplied text, leaving plain text.
func Sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(text)))
}

func (t AppealTicket) Subject() string {
	return fmt.Sprintf("Appeal: %s", t.Target)
}

// Body renders the ticket as it appears in the admin contact inbox.
func (t AppealTicket) Body() string {
	var body strings.Builder

	body.WriteString(fmt.Sprintf("Content: %s\n", t.Target))
	body.WriteString(fmt.Sprintf("Challenge: %s\n", t.ChallengeID))

	if t.DecidedOn != nil {
		body.WriteString(fmt.Sprintf("Removed: %s\n", humanize.RelTime(*t.DecidedOn, t.CreatedOn, "before appeal", "after appeal")))
	}

	body.WriteString("\n")
	body.WriteString(t.Message)

	return body.String()
}
