package challenge

import (
	"fmt"
	"regexp"

	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/notification"
	"github.com/gofrs/uuid/v5"
)

//nolint:gochecknoglobals
var challengeTokenRx = regexp.MustCompile(`\[challenge:([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})]`)

// Lookup selects the challenge an appeal is filed against. A non nil ChallengeID takes precedence,
// otherwise the most recently accepted challenge for Target is used.
type Lookup struct {
	ChallengeID uuid.UUID      `json:"challenge_id"`
	Target      content.Target `json:"target"`
}

func (l Lookup) String() string {
	if !l.ChallengeID.IsNil() {
		return l.ChallengeID.String()
	}

	return l.Target.String()
}

// LookupFromNotification derives a lookup from a notification the appellant received. The
// structured related fields are preferred, then a challenge token embedded in the message body
// by older notifications, then the related content.
func LookupFromNotification(notif notification.Notification) Lookup {
	if notif.RelatedType == notification.RelatedChallenge {
		if challengeID, err := uuid.FromString(notif.RelatedID); err == nil && !challengeID.IsNil() {
			return Lookup{ChallengeID: challengeID}
		}
	}

	if match := challengeTokenRx.FindStringSubmatch(notif.Message); match != nil {
		if challengeID, err := uuid.FromString(match[1]); err == nil {
			return Lookup{ChallengeID: challengeID}
		}
	}

	target := content.Target{Type: content.Type(notif.RelatedType), ID: notif.RelatedID}
	if target.Valid() {
		return Lookup{Target: target}
	}

	return Lookup{}
}

func challengeToken(challengeID uuid.UUID) string {
	return fmt.Sprintf("[challenge:%s]", challengeID)
}
