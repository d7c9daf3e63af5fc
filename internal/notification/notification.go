// Package notification records in-app notifications and optionally delivers a copy by email.
package notification

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidType      = errors.New("invalid notification type")
	ErrMissingRecipient = errors.New("missing notification recipient")
)

type Type string

const (
	ReportAccepted Type = "report_accepted"
	ReportRejected Type = "report_rejected"
	ReportWarning  Type = "report_warning"
	AppealResponse Type = "appeal_response"
	General        Type = "general"
	System         Type = "system"
	FriendRequest  Type = "friend_request"
)

func (t Type) Valid() bool {
	switch t {
	case ReportAccepted, ReportRejected, ReportWarning, AppealResponse, General, System, FriendRequest:
		return true
	default:
		return false
	}
}

// RelatedChallenge is the related_type used when a notification refers to a challenge.
const RelatedChallenge = "challenge"

type Notification struct {
	NotificationID int64     `json:"notification_id"`
	UserID         int64     `json:"user_id"`
	Type           Type      `json:"notification_type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	RelatedID      string    `json:"related_id"`
	RelatedType    string    `json:"related_type"`
	Link           string    `json:"link"`
	Read           bool      `json:"read"`
	CreatedOn      time.Time `json:"created_on"`
}

func (n Notification) Validate() error {
	if n.UserID <= 0 {
		return ErrMissingRecipient
	}

	if !n.Type.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidType, n.Type)
	}

	return nil
}
