package challenge_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adagearchive/moderation/internal/challenge"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/modlog"
	"github.com/adagearchive/moderation/internal/notification"
	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestModerationScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)
	c2 := h.submit(t, content.Comment)

	require.Equal(t, challenge.StatusPending, c1.Status)
	require.True(t, c1.AppealAllowed)
	require.Zero(t, h.notifier.count())

	// A moderator accepts the first report.
	decided, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)
	require.Empty(t, decided.Degraded)
	require.Equal(t, challenge.StatusAccepted, decided.Challenge.Status)
	require.True(t, decided.Challenge.Archived)
	require.Equal(t, moderatorID, decided.Challenge.DecidedBy)
	require.Equal(t, []content.Target{c1.Target}, h.content.hidden)
	require.Equal(t, []notification.Type{notification.ReportAccepted}, h.notifier.forUser(challengerID))
	require.Equal(t, []notification.Type{notification.ReportWarning}, h.notifier.forUser(authorID))
	require.Equal(t, 2, h.notifier.count())

	// The author appeals.
	h.notifier.reset()

	appealed, errAppeal := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{ChallengeID: c1.ChallengeID},
		authorID, "I disagree")
	require.NoError(t, errAppeal)
	require.Empty(t, appealed.Degraded)
	require.Equal(t, 1, appealed.Challenge.AppealCount)
	require.False(t, appealed.Challenge.AppealAllowed)
	require.Equal(t, challenge.StatusAccepted, appealed.Challenge.Status)
	require.Equal(t, authorID, appealed.Challenge.AppellantID)
	require.Equal(t, int64(1), appealed.TicketID)
	require.Len(t, h.tickets.tickets, 1)
	require.Equal(t, "I disagree", h.tickets.tickets[0].Message)
	require.Equal(t, []notification.Type{notification.General}, h.notifier.forUser(authorID))
	require.Equal(t, []notification.Type{notification.General}, h.notifier.forUser(adminOne))
	require.Equal(t, []notification.Type{notification.General}, h.notifier.forUser(adminTwo))
	require.Equal(t, 3, h.notifier.count())

	// A second appeal is refused without changing anything.
	h.notifier.reset()

	_, errSecond := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{ChallengeID: c1.ChallengeID},
		authorID, "Really, I disagree")
	require.ErrorIs(t, errSecond, challenge.ErrAppealNotEligible)
	require.ErrorIs(t, errSecond, challenge.ErrAlreadyAppealed)
	require.Zero(t, h.notifier.count())

	// An admin accepts the appeal.
	adjudicated, errAdjudicate := h.lifecycle.AdjudicateAppeal(t.Context(), c1.ChallengeID, challenge.Accepted, adminOne)
	require.NoError(t, errAdjudicate)
	require.Empty(t, adjudicated.Degraded)
	require.Equal(t, challenge.StatusPending, adjudicated.Challenge.Status)
	require.False(t, adjudicated.Challenge.Archived)
	require.Nil(t, adjudicated.Challenge.DecidedOn)
	require.Equal(t, challenge.Accepted, adjudicated.Challenge.AppealDecision)
	require.Equal(t, []content.Target{c1.Target}, h.content.restored)
	require.Equal(t, []notification.Type{notification.AppealResponse}, h.notifier.forUser(authorID))
	require.Equal(t, []notification.Type{notification.General}, h.notifier.forUser(challengerID))
	require.Equal(t, 2, h.notifier.count())

	// The second report is rejected silently.
	h.notifier.reset()

	rejected, errReject := h.lifecycle.Decide(t.Context(), c2.ChallengeID, challenge.Rejected, moderatorID)
	require.NoError(t, errReject)
	require.Equal(t, challenge.StatusRejected, rejected.Challenge.Status)
	require.True(t, rejected.Challenge.Archived)
	require.Zero(t, h.notifier.count())
	require.Len(t, h.content.hidden, 1)

	// There is no appeal on the rejected report.
	_, errNoAppeal := h.lifecycle.AdjudicateAppeal(t.Context(), c2.ChallengeID, challenge.Accepted, adminOne)
	require.ErrorIs(t, errNoAppeal, challenge.ErrAppealNotFound)

	_, errIneligible := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{ChallengeID: c2.ChallengeID},
		authorID, "I disagree")
	require.ErrorIs(t, errIneligible, challenge.ErrNotAccepted)

	require.Equal(t, []modlog.Action{
		modlog.ChallengeAccepted, modlog.AppealAccepted, modlog.ChallengeRejected,
	}, h.audit.actions())
	require.InDelta(t, 2, testutil.ToFloat64(h.metrics.TransitionCounter.WithLabelValues("appeal", "rejected")), 0)
}

func TestReopenedChallengeCannotBeAppealedAgain(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)
	lookup := challenge.Lookup{ChallengeID: c1.ChallengeID}

	_, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)
	_, errAppeal := h.lifecycle.SubmitAppeal(t.Context(), lookup, authorID, "I disagree")
	require.NoError(t, errAppeal)
	_, errAdjudicate := h.lifecycle.AdjudicateAppeal(t.Context(), c1.ChallengeID, challenge.Accepted, adminOne)
	require.NoError(t, errAdjudicate)

	// The reopened challenge goes back into the queue and may be decided again.
	again, errAgain := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errAgain)
	require.Equal(t, challenge.StatusAccepted, again.Challenge.Status)
	require.Equal(t, 1, again.Challenge.AppealCount)
	require.Len(t, h.content.hidden, 2)

	_, errSecond := h.lifecycle.SubmitAppeal(t.Context(), lookup, authorID, "Still wrong")
	require.ErrorIs(t, errSecond, challenge.ErrAlreadyAppealed)

	_, errAdjudicateAgain := h.lifecycle.AdjudicateAppeal(t.Context(), c1.ChallengeID, challenge.Accepted, adminOne)
	require.ErrorIs(t, errAdjudicateAgain, challenge.ErrAppealAlreadyDecided)
	require.Len(t, h.content.restored, 1)
}

func TestAdjudicateRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)

	_, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)

	appealed, errAppeal := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{Target: c1.Target}, authorID, "no")
	require.NoError(t, errAppeal)

	h.notifier.reset()

	result, errAdjudicate := h.lifecycle.AdjudicateAppeal(t.Context(), c1.ChallengeID, challenge.Rejected, adminOne)
	require.NoError(t, errAdjudicate)
	require.Empty(t, result.Degraded)

	expected := appealed.Challenge
	expected.AppealDecision = challenge.Rejected
	expected.Version++
	require.Equal(t, expected, result.Challenge)

	require.Empty(t, h.content.restored)
	require.Equal(t, []notification.Type{notification.AppealResponse}, h.notifier.forUser(authorID))
	require.Equal(t, []notification.Type{notification.ReportRejected}, h.notifier.forUser(challengerID))

	_, errAgain := h.lifecycle.AdjudicateAppeal(t.Context(), c1.ChallengeID, challenge.Accepted, adminOne)
	require.ErrorIs(t, errAgain, challenge.ErrAppealAlreadyDecided)
}

func TestDecideNonPending(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Adage)

	decided, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Rejected, moderatorID)
	require.NoError(t, errDecide)

	swaps := h.store.swapCount()
	auditCount := len(h.audit.actions())

	_, errAgain := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.ErrorIs(t, errAgain, challenge.ErrInvalidTransition)

	stored, errByID := h.lifecycle.ByID(t.Context(), c1.ChallengeID)
	require.NoError(t, errByID)
	require.Equal(t, decided.Challenge, stored)
	require.Equal(t, swaps, h.store.swapCount())
	require.Len(t, h.audit.actions(), auditCount)
	require.Zero(t, h.notifier.count())
}

func TestDecideAcceptedNonComment(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	thread := h.submit(t, content.ForumThread)

	result, err := h.lifecycle.Decide(t.Context(), thread.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, err)
	require.Empty(t, result.Degraded)
	require.Empty(t, h.content.hidden)
	require.Equal(t, 2, h.notifier.count())

	for _, notif := range h.notifier.sent {
		require.Equal(t, thread.ChallengeID.String(), notif.RelatedID)
		require.Equal(t, notification.RelatedChallenge, notif.RelatedType)
		require.Equal(t, "https://adages.example.com/"+thread.Target.String(), notif.Link)
	}
}

func TestDecideValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)

	_, errMissing := h.lifecycle.Decide(t.Context(), uuid.Must(uuid.NewV4()), challenge.Accepted, moderatorID)
	require.ErrorIs(t, errMissing, challenge.ErrNotFound)

	c1 := h.submit(t, content.Comment)

	_, errDecision := h.lifecycle.Decide(t.Context(), c1.ChallengeID, "maybe", moderatorID)
	require.ErrorIs(t, errDecision, challenge.ErrInvalidRequest)

	_, errModerator := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, 0)
	require.ErrorIs(t, errModerator, challenge.ErrMissingUser)
	require.Zero(t, h.store.swapCount())
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	target := content.Target{Type: content.Blog, ID: "b1"}

	for _, testCase := range []struct {
		name     string
		req      challenge.NewChallenge
		expected error
	}{
		{"unknown type", challenge.NewChallenge{Target: content.Target{Type: "poem", ID: "1"}, ChallengerID: 1, Reason: "x"}, content.ErrUnknownType},
		{"missing id", challenge.NewChallenge{Target: content.Target{Type: content.Blog, ID: " "}, ChallengerID: 1, Reason: "x"}, challenge.ErrMissingTarget},
		{"missing user", challenge.NewChallenge{Target: target, Reason: "x"}, challenge.ErrMissingUser},
		{"missing reason", challenge.NewChallenge{Target: target, ChallengerID: 1, Reason: "  "}, challenge.ErrMissingReason},
	} {
		_, err := h.lifecycle.Submit(t.Context(), testCase.req)
		require.ErrorIs(t, err, challenge.ErrInvalidRequest, testCase.name)
		require.ErrorIs(t, err, testCase.expected, testCase.name)
	}

	submitted, errSubmit := h.lifecycle.Submit(t.Context(), challenge.NewChallenge{
		Target:              target,
		ChallengerID:        1,
		Reason:              "  plagiarised  ",
		SuggestedCorrection: " Credit the source ",
	})
	require.NoError(t, errSubmit)
	require.False(t, submitted.ChallengeID.IsNil())
	require.Equal(t, "plagiarised", submitted.Reason)
	require.Equal(t, "Credit the source", submitted.SuggestedCorrection)
	require.Equal(t, int64(1), submitted.Version)
	require.Equal(t, h.now, submitted.CreatedOn)

	queue, count, errQuery := h.lifecycle.Query(t.Context(), challenge.Query{Status: challenge.StatusPending})
	require.NoError(t, errQuery)
	require.Equal(t, int64(1), count)
	require.Equal(t, submitted.ChallengeID, queue[0].ChallengeID)
}

func TestSubmitAppealValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)
	lookup := challenge.Lookup{ChallengeID: c1.ChallengeID}

	_, errMessage := h.lifecycle.SubmitAppeal(t.Context(), lookup, authorID, "   ")
	require.ErrorIs(t, errMessage, challenge.ErrMissingMessage)

	_, errUser := h.lifecycle.SubmitAppeal(t.Context(), lookup, 0, "hi")
	require.ErrorIs(t, errUser, challenge.ErrMissingUser)

	_, errEmpty := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{}, authorID, "hi")
	require.ErrorIs(t, errEmpty, challenge.ErrAppealNotEligible)
	require.ErrorIs(t, errEmpty, challenge.ErrChallengeNotFound)

	_, errUnknown := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{ChallengeID: uuid.Must(uuid.NewV4())},
		authorID, "hi")
	require.ErrorIs(t, errUnknown, challenge.ErrChallengeNotFound)

	// Lookups by target only consider accepted challenges.
	_, errPending := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{Target: c1.Target}, authorID, "hi")
	require.ErrorIs(t, errPending, challenge.ErrChallengeNotFound)
	require.Zero(t, h.store.swapCount())
}

func TestConcurrentAppeals(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)

	_, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)

	const appellants = 8

	var (
		waitGroup sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)

	for range appellants {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			_, err := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{ChallengeID: c1.ChallengeID},
				authorID, "I disagree")

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case challenge.IsRetryable(err):
			default:
				if assertNotEligible(err) {
					refused++
				}
			}
		}()
	}

	waitGroup.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, appellants-1, refused)
	require.Len(t, h.tickets.tickets, 1)

	stored, errByID := h.lifecycle.ByID(t.Context(), c1.ChallengeID)
	require.NoError(t, errByID)
	require.Equal(t, 1, stored.AppealCount)
}

func assertNotEligible(err error) bool {
	return errors.Is(err, challenge.ErrAppealNotEligible) && errors.Is(err, challenge.ErrAlreadyAppealed)
}

func TestConcurrentWriterChangesOutcome(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)

	// Another moderator rejects the challenge between our read and our write.
	h.store.beforeSwap = func(stored *challenge.Challenge) {
		decidedOn := time.Now()
		stored.Status = challenge.StatusRejected
		stored.Archived = true
		stored.DecidedOn = &decidedOn
		stored.DecidedBy = moderatorID + 1
	}

	_, err := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.ErrorIs(t, err, challenge.ErrInvalidTransition)
	require.Empty(t, h.content.hidden)
	require.Zero(t, h.notifier.count())
	require.InDelta(t, 1, testutil.ToFloat64(h.metrics.ConflictCounter.WithLabelValues("decide")), 0)
}

func TestConflictRetries(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)

	// Two conflicts are absorbed by the retry loop.
	h.store.conflicts = 2

	result, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)
	require.Equal(t, challenge.StatusAccepted, result.Challenge.Status)
	require.Len(t, h.content.hidden, 1)

	// Persistent conflicts surface as retryable.
	h.store.conflicts = 10

	_, errAppeal := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{ChallengeID: c1.ChallengeID}, authorID, "no")
	require.ErrorIs(t, errAppeal, challenge.ErrPersistenceConflict)
	require.True(t, challenge.IsRetryable(errAppeal))
	require.Empty(t, h.tickets.tickets)
}

func TestDegradedSideEffects(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)

	h.content.hideErr = errUnavailable
	h.notifier.failed[authorID] = errUnavailable
	h.audit.err = errUnavailable

	result, err := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, err)
	require.Equal(t, challenge.StatusAccepted, result.Challenge.Status)
	require.Len(t, result.Degraded, 3)

	effects := map[string]int64{}
	for _, failure := range result.Degraded {
		require.ErrorIs(t, failure, challenge.ErrDownstreamDegraded)
		require.ErrorIs(t, failure, errUnavailable)
		effects[failure.Effect] = failure.UserID
	}

	require.Equal(t, map[string]int64{"hide": 0, "notify": authorID, "audit": moderatorID}, effects)

	// The challenger was still notified.
	require.Equal(t, []notification.Type{notification.ReportAccepted}, h.notifier.forUser(challengerID))

	stored, errByID := h.lifecycle.ByID(t.Context(), c1.ChallengeID)
	require.NoError(t, errByID)
	require.Equal(t, challenge.StatusAccepted, stored.Status)
	require.InDelta(t, 1, testutil.ToFloat64(h.metrics.DegradedCounter.WithLabelValues("notify")), 0)
}

func TestDegradedAppealEffects(t *testing.T) {
	t.Parallel()

	h := newHarness(t, failingAdmins{})
	c1 := h.submit(t, content.Comment)

	_, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)

	h.notifier.reset()
	h.tickets.err = errUnavailable

	result, err := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{ChallengeID: c1.ChallengeID}, authorID, "no")
	require.NoError(t, err)
	require.Equal(t, 1, result.Challenge.AppealCount)
	require.Zero(t, result.TicketID)
	require.Len(t, result.Degraded, 2)
	require.Equal(t, "appeal_ticket", result.Degraded[0].Effect)
	require.Equal(t, "list_admins", result.Degraded[1].Effect)
	require.Equal(t, []notification.Type{notification.General}, h.notifier.forUser(authorID))
	require.Equal(t, 1, h.notifier.count())
}

func TestAdjudicateUnresolvableAuthor(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)

	_, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)

	_, errAppeal := h.lifecycle.SubmitAppeal(t.Context(), challenge.Lookup{ChallengeID: c1.ChallengeID}, authorID, "no")
	require.NoError(t, errAppeal)

	h.notifier.reset()
	h.content.mu.Lock()
	delete(h.content.authors, c1.Target)
	h.content.mu.Unlock()

	result, err := h.lifecycle.AdjudicateAppeal(t.Context(), c1.ChallengeID, challenge.Accepted, adminOne)
	require.NoError(t, err)
	require.Empty(t, result.Degraded)
	require.Equal(t, []notification.Type{notification.AppealResponse}, h.notifier.forUser(authorID))
	require.Len(t, h.content.restored, 1)
}

func TestAppealRequiresContentOwner(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)
	lookup := challenge.Lookup{ChallengeID: c1.ChallengeID}

	_, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)
	require.Equal(t, 1, h.store.swapCount())

	// The reporter cannot spend the author's only appeal.
	_, errChallenger := h.lifecycle.SubmitAppeal(t.Context(), lookup, challengerID, "I changed my mind")
	require.ErrorIs(t, errChallenger, challenge.ErrAppealNotEligible)
	require.ErrorIs(t, errChallenger, challenge.ErrNotContentOwner)
	require.False(t, challenge.IsRetryable(errChallenger))
	require.Equal(t, 1, h.store.swapCount())
	require.Empty(t, h.tickets.tickets)

	appealed, errAuthor := h.lifecycle.SubmitAppeal(t.Context(), lookup, authorID, "It is a real proverb")
	require.NoError(t, errAuthor)
	require.Equal(t, authorID, appealed.Challenge.AppellantID)
	require.Equal(t, 2, h.store.swapCount())
}

func TestAppealUnresolvableOwner(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)
	lookup := challenge.Lookup{ChallengeID: c1.ChallengeID}

	_, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)

	// Content that no longer exists has no owner left to appeal.
	h.content.mu.Lock()
	delete(h.content.authors, c1.Target)
	h.content.mu.Unlock()

	_, errGone := h.lifecycle.SubmitAppeal(t.Context(), lookup, authorID, "no")
	require.ErrorIs(t, errGone, challenge.ErrNotContentOwner)
	require.ErrorIs(t, errGone, content.ErrNotFound)

	// A failing lookup is not a refusal and writes nothing.
	h.content.authorErr = errUnavailable

	_, errLookup := h.lifecycle.SubmitAppeal(t.Context(), lookup, authorID, "no")
	require.ErrorIs(t, errLookup, errUnavailable)
	require.NotErrorIs(t, errLookup, challenge.ErrAppealNotEligible)
	require.Equal(t, 1, h.store.swapCount())

	stored, errByID := h.lifecycle.ByID(t.Context(), c1.ChallengeID)
	require.NoError(t, errByID)
	require.Zero(t, stored.AppealCount)
	require.True(t, stored.AppealAllowed)
}

func TestAppealMarkupOnlyMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	c1 := h.submit(t, content.Comment)
	lookup := challenge.Lookup{ChallengeID: c1.ChallengeID}

	_, errDecide := h.lifecycle.Decide(t.Context(), c1.ChallengeID, challenge.Accepted, moderatorID)
	require.NoError(t, errDecide)

	for _, message := range []string{"<b></b>", "<script>alert(1)</script>", " <p> </p> "} {
		_, err := h.lifecycle.SubmitAppeal(t.Context(), lookup, authorID, message)
		require.ErrorIs(t, err, challenge.ErrMissingMessage, message)
	}

	require.Equal(t, 1, h.store.swapCount())

	stored, errByID := h.lifecycle.ByID(t.Context(), c1.ChallengeID)
	require.NoError(t, errByID)
	require.True(t, stored.AppealAllowed)

	result, errAppeal := h.lifecycle.SubmitAppeal(t.Context(), lookup, authorID, "<i>It is</i> a quote")
	require.NoError(t, errAppeal)
	require.Equal(t, int64(1), result.TicketID)
	require.Equal(t, "It is a quote", h.tickets.tickets[0].Message)
}

func TestAdjudicateRejectedWithoutRecipient(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	decidedOn := h.now.Add(-time.Hour)

	// Appealed rows written before appellants were recorded.
	legacy := challenge.Challenge{
		ChallengeID:  uuid.Must(uuid.NewV4()),
		Target:       content.Target{Type: content.Comment, ID: "gone"},
		ChallengerID: challengerID,
		Status:       challenge.StatusAccepted,
		Reason:       "Spam",
		Archived:     true,
		AppealCount:  1,
		DecidedBy:    moderatorID,
		CreatedOn:    decidedOn,
		DecidedOn:    &decidedOn,
	}
	require.NoError(t, h.store.Create(t.Context(), &legacy))

	result, err := h.lifecycle.AdjudicateAppeal(t.Context(), legacy.ChallengeID, challenge.Rejected, adminOne)
	require.NoError(t, err)
	require.Equal(t, challenge.Rejected, result.Challenge.AppealDecision)
	require.Len(t, result.Degraded, 1)
	require.Equal(t, "resolve_author", result.Degraded[0].Effect)
	require.ErrorIs(t, result.Degraded[0], content.ErrNotFound)
	require.Equal(t, []notification.Type{notification.ReportRejected}, h.notifier.forUser(challengerID))
	require.Equal(t, 1, h.notifier.count())
}
