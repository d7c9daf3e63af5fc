// Package challenge implements the moderation lifecycle for user reports against site content.
//
// A challenge is filed against a piece of content and decided by a moderator. An accepted
// challenge may be appealed exactly once and the appeal is then adjudicated by an admin. Every
// transition is persisted with an optimistic version check before any content visibility change,
// notification or audit entry is attempted. Failures after the commit never roll the transition
// back, they are returned to the caller in Result.Degraded.
package challenge

import (
	"strings"
	"time"

	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/database/query"
	"github.com/gofrs/uuid/v5"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Decision is the outcome chosen by a moderator for a challenge, or by an admin for an appeal.
type Decision string

const (
	Accepted Decision = "accepted"
	Rejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == Accepted || d == Rejected
}

func (d Decision) status() Status {
	if d == Accepted {
		return StatusAccepted
	}

	return StatusRejected
}

type Challenge struct {
	ChallengeID         uuid.UUID      `json:"challenge_id"`
	Target              content.Target `json:"target"`
	ChallengerID        int64          `json:"challenger_id"`
	Status              Status         `json:"status"`
	Reason              string         `json:"challenge_reason"`
	SuggestedCorrection string         `json:"suggested_correction"`
	Archived            bool           `json:"archived"`
	AppealCount         int            `json:"appeal_count"`
	AppealAllowed       bool           `json:"appeal_allowed"`
	// AppealDecision is empty until the appeal has been adjudicated.
	AppealDecision Decision   `json:"appeal_decision,omitempty"`
	AppellantID    int64      `json:"appellant_id,omitempty"`
	DecidedBy      int64      `json:"decided_by,omitempty"`
	CreatedOn      time.Time  `json:"created_on"`
	DecidedOn      *time.Time `json:"decided_on"`
	LastAppealOn   *time.Time `json:"last_appeal_on"`
	Version        int64      `json:"version"`
}

// setStatus is the only place status, archived and the decision stamp change. A challenge is
// archived exactly when it is decided and a pending challenge never carries a decision time.
func (c *Challenge) setStatus(status Status, moderatorID int64, now time.Time) {
	c.Status = status
	c.Archived = status != StatusPending

	if c.Archived {
		decidedOn := now
		c.DecidedOn = &decidedOn
		c.DecidedBy = moderatorID

		return
	}

	c.DecidedOn = nil
	c.DecidedBy = 0
}

// NewChallenge is a report as filed by a user.
type NewChallenge struct {
	Target              content.Target `json:"target"`
	ChallengerID        int64          `json:"challenger_id"`
	Reason              string         `json:"challenge_reason"`
	SuggestedCorrection string         `json:"suggested_correction"`
}

func (n NewChallenge) validate() error {
	switch {
	case !n.Target.Type.Valid():
		return invalidRequest(content.ErrUnknownType)
	case strings.TrimSpace(n.Target.ID) == "":
		return invalidRequest(ErrMissingTarget)
	case n.ChallengerID <= 0:
		return invalidRequest(ErrMissingUser)
	case strings.TrimSpace(n.Reason) == "":
		return invalidRequest(ErrMissingReason)
	default:
		return nil
	}
}

// Query filters the admin challenge queue.
type Query struct {
	query.Filter
	Status       Status       `json:"status,omitempty" form:"status"`
	Archived     *bool        `json:"archived,omitempty" form:"archived"`
	TargetType   content.Type `json:"target_type,omitempty" form:"target_type"`
	TargetID     string       `json:"target_id,omitempty" form:"target_id"`
	ChallengerID int64        `json:"challenger_id,omitempty" form:"challenger_id"`
}

// Result is the outcome of a committed transition.
type Result struct {
	Challenge Challenge `json:"challenge"`
	// TicketID is the contact message created for an appeal.
	TicketID int64             `json:"ticket_id,omitempty"`
	Degraded []SideEffectError `json:"degraded"`
}
