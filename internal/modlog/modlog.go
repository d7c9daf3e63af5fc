// Package modlog is the append only audit trail of moderator decisions.
package modlog

import (
	"time"

	"github.com/adagearchive/moderation/internal/content"
)

type Action string

const (
	ChallengeAccepted Action = "challenge_accepted"
	ChallengeRejected Action = "challenge_rejected"
	AppealAccepted    Action = "appeal_accepted"
	AppealRejected    Action = "appeal_rejected"
)

type Entry struct {
	ModerationLogID int64          `json:"moderation_log_id"`
	ModeratorID     int64          `json:"moderator_id"`
	Action          Action         `json:"action_type"`
	Target          content.Target `json:"target"`
	Reason          string         `json:"reason"`
	CreatedOn       time.Time      `json:"created_on"`
}
