package challenge

import (
	"fmt"

	"github.com/adagearchive/moderation/internal/notification"
)

func newNotification(challenge Challenge, userID int64, notifType notification.Type, title string, link string,
	format string, args ...any,
) notification.Notification {
	return notification.Notification{
		UserID:      userID,
		Type:        notifType,
		Title:       title,
		Message:     fmt.Sprintf(format, args...),
		RelatedID:   challenge.ChallengeID.String(),
		RelatedType: notification.RelatedChallenge,
		Link:        link,
	}
}

func reportAccepted(challenge Challenge, link string) notification.Notification {
	return newNotification(challenge, challenge.ChallengerID, notification.ReportAccepted, "Report accepted", link,
		"Thank you. Your report against %s was reviewed and accepted by a moderator.", challenge.Target)
}

func contentWarning(challenge Challenge, authorID int64, link string) notification.Notification {
	return newNotification(challenge, authorID, notification.ReportWarning, "Your content was moderated", link,
		"A report against your %s was accepted by a moderator. Reason: %s\n\n"+
			"If you believe this was a mistake you may appeal the decision once. %s",
		challenge.Target.Type, challenge.Reason, challengeToken(challenge.ChallengeID))
}

func appealSubmitted(challenge Challenge) notification.Notification {
	return newNotification(challenge, challenge.AppellantID, notification.General, "Appeal submitted", "",
		"Your appeal regarding %s has been submitted and is under review.", challenge.Target)
}

func appealFiled(challenge Challenge, adminID int64, ticketID int64) notification.Notification {
	ticket := "no ticket"
	if ticketID > 0 {
		ticket = fmt.Sprintf("ticket #%d", ticketID)
	}

	return newNotification(challenge, adminID, notification.General, "New appeal", "",
		"User %d appealed the moderation of %s (%s).", challenge.AppellantID, challenge.Target, ticket)
}

func appealAccepted(challenge Challenge, userID int64, link string) notification.Notification {
	return newNotification(challenge, userID, notification.AppealResponse, "Appeal accepted", link,
		"Your appeal regarding %s was accepted and the moderation decision has been reverted.", challenge.Target)
}

func decisionReverted(challenge Challenge) notification.Notification {
	return newNotification(challenge, challenge.ChallengerID, notification.General, "Report decision reverted", "",
		"After an appeal, the decision on your report against %s was reverted and is awaiting review again.",
		challenge.Target)
}

func appealRejected(challenge Challenge, userID int64) notification.Notification {
	return newNotification(challenge, userID, notification.AppealResponse, "Appeal rejected", "",
		"Your appeal regarding %s was reviewed and rejected. The decision stands and no further appeals are permitted.",
		challenge.Target)
}

func reportUpheld(challenge Challenge) notification.Notification {
	return newNotification(challenge, challenge.ChallengerID, notification.ReportRejected, "Appeal against your report rejected", "",
		"An appeal against your accepted report on %s was rejected. The original decision stands.", challenge.Target)
}
