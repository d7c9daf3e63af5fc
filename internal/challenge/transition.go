package challenge

import (
	"fmt"
	"time"
)

// The functions in this file compute the next state of a challenge. They never perform I/O and
// leave the challenge untouched when they return an error.

func applyDecision(current *Challenge, decision Decision, moderatorID int64, now time.Time) error {
	if current.Status != StatusPending {
		return fmt.Errorf("%w: challenge is already %s", ErrInvalidTransition, current.Status)
	}

	current.setStatus(decision.status(), moderatorID, now)

	return nil
}

func checkAppealEligible(current Challenge) error {
	if current.Status != StatusAccepted {
		return notEligible(ErrNotAccepted)
	}

	if !current.AppealAllowed || current.AppealCount >= 1 {
		return notEligible(ErrAlreadyAppealed)
	}

	return nil
}

func applyAppeal(current *Challenge, appellantID int64, now time.Time) error {
	if err := checkAppealEligible(*current); err != nil {
		return err
	}

	appealedOn := now
	current.AppealCount = 1
	current.AppealAllowed = false
	current.LastAppealOn = &appealedOn
	current.AppellantID = appellantID

	return nil
}

func applyAdjudication(current *Challenge, decision Decision, now time.Time) error {
	if !decision.Valid() {
		return invalidRequest(ErrInvalidDecision)
	}

	if current.AppealDecision != "" {
		return fmt.Errorf("%w: %s", ErrAppealAlreadyDecided, current.AppealDecision)
	}

	if current.AppealCount != 1 {
		return ErrAppealNotFound
	}

	if current.Status != StatusAccepted {
		return fmt.Errorf("%w: appeal on a %s challenge", ErrInvalidTransition, current.Status)
	}

	current.AppealDecision = decision

	if decision == Accepted {
		current.setStatus(StatusPending, 0, now)
	}

	return nil
}
