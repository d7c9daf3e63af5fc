package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adagearchive/moderation/internal/contact"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/metrics"
	"github.com/adagearchive/moderation/internal/modlog"
	"github.com/adagearchive/moderation/internal/notification"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/gofrs/uuid/v5"
)

const (
	opSubmit     = "submit"
	opDecide     = "decide"
	opAppeal     = "appeal"
	opAdjudicate = "adjudicate"
)

type Options struct {
	// EffectTimeout bounds each post-commit side effect.
	EffectTimeout time.Duration
	// FanOutLimit caps the number of notifications sent concurrently.
	FanOutLimit int
	// MaxAttempts is the number of read, evaluate and write cycles before giving up on conflicts.
	MaxAttempts int
}

func (o Options) withDefaults() Options {
	if o.EffectTimeout <= 0 {
		o.EffectTimeout = 10 * time.Second
	}

	if o.FanOutLimit <= 0 {
		o.FanOutLimit = 8
	}

	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}

	return o
}

type Dependencies struct {
	Store    Store
	Content  ContentGateway
	Notifier Notifier
	Audit    AuditLog
	Admins   AdminDirectory
	Tickets  TicketStore
	Metrics  *metrics.Collector
	// Now defaults to time.Now.
	Now func() time.Time
}

type Lifecycle struct {
	store    Store
	content  ContentGateway
	notifier Notifier
	audit    AuditLog
	admins   AdminDirectory
	tickets  TicketStore
	metrics  *metrics.Collector
	now      func() time.Time
	opts     Options
}

func NewLifecycle(deps Dependencies, opts Options) *Lifecycle {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Lifecycle{
		store:    deps.Store,
		content:  deps.Content,
		notifier: deps.Notifier,
		audit:    deps.Audit,
		admins:   deps.Admins,
		tickets:  deps.Tickets,
		metrics:  deps.Metrics,
		now:      now,
		opts:     opts.withDefaults(),
	}
}

func (l *Lifecycle) ByID(ctx context.Context, challengeID uuid.UUID) (Challenge, error) {
	return l.store.ByID(ctx, challengeID)
}

func (l *Lifecycle) Query(ctx context.Context, filter Query) ([]Challenge, int64, error) {
	return l.store.Query(ctx, filter)
}

// Submit files a new pending challenge. Nobody is notified until a moderator decides it.
func (l *Lifecycle) Submit(ctx context.Context, req NewChallenge) (Challenge, error) {
	if err := req.validate(); err != nil {
		l.metrics.Transition(opSubmit, outcome(err))

		return Challenge{}, err
	}

	challengeID, errID := uuid.NewV4()
	if errID != nil {
		return Challenge{}, errors.Join(errID, ErrInvalidRequest)
	}

	challenge := Challenge{
		ChallengeID:         challengeID,
		Target:              content.Target{Type: req.Target.Type, ID: strings.TrimSpace(req.Target.ID)},
		ChallengerID:        req.ChallengerID,
		Status:              StatusPending,
		Reason:              strings.TrimSpace(req.Reason),
		SuggestedCorrection: strings.TrimSpace(req.SuggestedCorrection),
		AppealAllowed:       true,
		CreatedOn:           l.now(),
	}

	if errCreate := l.store.Create(ctx, &challenge); errCreate != nil {
		l.metrics.Transition(opSubmit, outcome(errCreate))

		return Challenge{}, errCreate
	}

	l.metrics.Transition(opSubmit, outcome(nil))
	slog.Info("Challenge submitted", slog.String("challenge_id", challenge.ChallengeID.String()),
		slog.String("target", challenge.Target.String()), slog.Int64("challenger_id", challenge.ChallengerID))

	return challenge, nil
}

// Decide accepts or rejects a pending challenge. Accepting hides a challenged comment and notifies
// both the challenger and the author of the content.
func (l *Lifecycle) Decide(ctx context.Context, challengeID uuid.UUID, decision Decision, moderatorID int64) (Result, error) {
	if !decision.Valid() {
		return Result{}, invalidRequest(ErrInvalidDecision)
	}

	if moderatorID <= 0 {
		return Result{}, invalidRequest(ErrMissingUser)
	}

	now := l.now()

	decided, errDecide := l.mutate(ctx, opDecide, l.byID(challengeID), func(current *Challenge) error {
		return applyDecision(current, decision, moderatorID, now)
	})
	if errDecide != nil {
		return Result{}, errDecide
	}

	slog.Info("Challenge decided", slog.String("challenge_id", decided.ChallengeID.String()),
		slog.String("decision", string(decision)), slog.Int64("moderator_id", moderatorID))

	effects := newSideEffects(ctx, decided.ChallengeID, l.opts, l.metrics)
	action := modlog.ChallengeRejected

	if decision == Accepted {
		action = modlog.ChallengeAccepted

		if decided.Target.Type == content.Comment {
			effects.run(effectHide, 0, func(ctx context.Context) error {
				return l.content.Hide(ctx, decided.Target)
			})
		}

		link := l.resolveLink(effects, decided.Target)
		notifications := []notification.Notification{reportAccepted(decided, link)}

		if authorID, ok := l.resolveAuthor(effects, decided.Target); ok {
			notifications = append(notifications, contentWarning(decided, authorID, link))
		}

		effects.notifyAll(l.notifier, notifications)
	}

	l.appendAudit(effects, modlog.Entry{
		ModeratorID: moderatorID,
		Action:      action,
		Target:      decided.Target,
		Reason:      decided.Reason,
		CreatedOn:   now,
	})

	return Result{Challenge: decided, Degraded: effects.errors()}, nil
}

// SubmitAppeal files the single permitted appeal against an accepted challenge. The decision
// stays in force until the appeal is adjudicated.
func (l *Lifecycle) SubmitAppeal(ctx context.Context, lookup Lookup, appellantID int64, message string) (Result, error) {
	message = contact.Sanitize(message)

	if appellantID <= 0 {
		return Result{}, invalidRequest(ErrMissingUser)
	}

	if message == "" {
		return Result{}, invalidRequest(ErrMissingMessage)
	}

	now := l.now()

	load := l.ownedBy(l.byLookup(lookup), appellantID)

	appealed, errAppeal := l.mutate(ctx, opAppeal, load, func(current *Challenge) error {
		return applyAppeal(current, appellantID, now)
	})
	if errAppeal != nil {
		return Result{}, errAppeal
	}

	slog.Info("Appeal submitted", slog.String("challenge_id", appealed.ChallengeID.String()),
		slog.Int64("appellant_id", appellantID))

	effects := newSideEffects(ctx, appealed.ChallengeID, l.opts, l.metrics)

	var ticketID int64

	effects.run(effectTicket, appellantID, func(ctx context.Context) error {
		newTicketID, err := l.tickets.CreateAppealTicket(ctx, contact.AppealTicket{
			AppellantID: appellantID,
			ChallengeID: appealed.ChallengeID,
			Target:      appealed.Target,
			Message:     message,
			DecidedOn:   appealed.DecidedOn,
			CreatedOn:   now,
		})
		ticketID = newTicketID

		return err
	})

	notifications := []notification.Notification{appealSubmitted(appealed)}

	var admins []int64

	effects.run(effectListAdmins, 0, func(ctx context.Context) error {
		adminIDs, err := l.admins.ListAdmins(ctx)
		admins = adminIDs

		return err
	})

	for _, adminID := range admins {
		notifications = append(notifications, appealFiled(appealed, adminID, ticketID))
	}

	effects.notifyAll(l.notifier, notifications)

	return Result{Challenge: appealed, TicketID: ticketID, Degraded: effects.errors()}, nil
}

// AdjudicateAppeal decides a filed appeal. Accepting reverts the challenge to pending and restores
// a hidden comment, rejecting leaves the original decision in force.
func (l *Lifecycle) AdjudicateAppeal(ctx context.Context, challengeID uuid.UUID, decision Decision, adminID int64) (Result, error) {
	if !decision.Valid() {
		return Result{}, invalidRequest(ErrInvalidDecision)
	}

	if adminID <= 0 {
		return Result{}, invalidRequest(ErrMissingUser)
	}

	now := l.now()

	adjudicated, errAdjudicate := l.mutate(ctx, opAdjudicate, l.byID(challengeID), func(current *Challenge) error {
		return applyAdjudication(current, decision, now)
	})
	if errAdjudicate != nil {
		return Result{}, errAdjudicate
	}

	slog.Info("Appeal adjudicated", slog.String("challenge_id", adjudicated.ChallengeID.String()),
		slog.String("decision", string(decision)), slog.Int64("admin_id", adminID))

	effects := newSideEffects(ctx, adjudicated.ChallengeID, l.opts, l.metrics)
	action := modlog.AppealRejected

	var notifications []notification.Notification

	if decision == Accepted {
		action = modlog.AppealAccepted

		if adjudicated.Target.Type == content.Comment {
			effects.run(effectRestore, 0, func(ctx context.Context) error {
				return l.content.Restore(ctx, adjudicated.Target)
			})
		}

		link := l.resolveLink(effects, adjudicated.Target)
		notifications = append(notifications, decisionReverted(adjudicated))

		if userID, ok := l.reportedUser(effects, adjudicated); ok {
			notifications = append(notifications, appealAccepted(adjudicated, userID, link))
		}
	} else {
		notifications = append(notifications, reportUpheld(adjudicated))

		userID, ok := adjudicated.AppellantID, adjudicated.AppellantID > 0
		if !ok {
			userID, ok = l.reportedUser(effects, adjudicated)
		}

		if ok {
			notifications = append(notifications, appealRejected(adjudicated, userID))
		}
	}

	effects.notifyAll(l.notifier, notifications)

	l.appendAudit(effects, modlog.Entry{
		ModeratorID: adminID,
		Action:      action,
		Target:      adjudicated.Target,
		Reason:      adjudicated.Reason,
		CreatedOn:   now,
	})

	return Result{Challenge: adjudicated, Degraded: effects.errors()}, nil
}

// mutate loads the current challenge, applies fn and writes the result with a version check. On
// a conflict the whole cycle is repeated so that a precondition that no longer holds surfaces as
// its own error instead of a conflict.
func (l *Lifecycle) mutate(ctx context.Context, operation string, load func(ctx context.Context) (Challenge, error),
	apply func(current *Challenge) error,
) (Challenge, error) {
	for attempt := 1; attempt <= l.opts.MaxAttempts; attempt++ {
		current, errLoad := load(ctx)
		if errLoad != nil {
			l.metrics.Transition(operation, outcome(errLoad))

			return Challenge{}, errLoad
		}

		next := current
		if errApply := apply(&next); errApply != nil {
			l.metrics.Transition(operation, outcome(errApply))

			return Challenge{}, errApply
		}

		errSwap := l.store.CompareAndSwap(ctx, &next)
		if errSwap == nil {
			l.metrics.Transition(operation, outcome(nil))

			return next, nil
		}

		if !errors.Is(errSwap, ErrPersistenceConflict) {
			l.metrics.Transition(operation, outcome(errSwap))

			return Challenge{}, errSwap
		}

		l.metrics.Conflict(operation)
		slog.Debug("Challenge version conflict", slog.String("operation", operation),
			slog.String("challenge_id", current.ChallengeID.String()), slog.Int("attempt", attempt))
	}

	err := fmt.Errorf("%w: gave up after %d attempts", ErrPersistenceConflict, l.opts.MaxAttempts)
	l.metrics.Transition(operation, outcome(err))

	return Challenge{}, err
}

func (l *Lifecycle) byID(challengeID uuid.UUID) func(ctx context.Context) (Challenge, error) {
	return func(ctx context.Context) (Challenge, error) {
		return l.store.ByID(ctx, challengeID)
	}
}

func (l *Lifecycle) byLookup(lookup Lookup) func(ctx context.Context) (Challenge, error) {
	return func(ctx context.Context) (Challenge, error) {
		var (
			challenge Challenge
			err       error
		)

		switch {
		case !lookup.ChallengeID.IsNil():
			challenge, err = l.store.ByID(ctx, lookup.ChallengeID)
		case lookup.Target.Valid():
			challenge, err = l.store.LatestAccepted(ctx, lookup.Target)
		default:
			return Challenge{}, notEligible(ErrChallengeNotFound)
		}

		if errors.Is(err, ErrNotFound) {
			return Challenge{}, notEligible(fmt.Errorf("%w: %s", ErrChallengeNotFound, lookup))
		}

		return challenge, err
	}
}

// ownedBy wraps load so that only the author of the challenged content may appeal. Content whose
// author can no longer be resolved has no owner and cannot be appealed.
func (l *Lifecycle) ownedBy(load func(ctx context.Context) (Challenge, error), appellantID int64,
) func(ctx context.Context) (Challenge, error) {
	return func(ctx context.Context) (Challenge, error) {
		challenge, errLoad := load(ctx)
		if errLoad != nil {
			return Challenge{}, errLoad
		}

		authorID, errAuthor := l.content.ResolveAuthor(ctx, challenge.Target)
		if errAuthor != nil {
			if errors.Is(errAuthor, content.ErrNotFound) {
				return Challenge{}, notEligible(fmt.Errorf("%w: %w", ErrNotContentOwner, errAuthor))
			}

			return Challenge{}, fmt.Errorf("resolve content author: %w", errAuthor)
		}

		if authorID != appellantID {
			return Challenge{}, notEligible(fmt.Errorf("%w: user %d", ErrNotContentOwner, appellantID))
		}

		return challenge, nil
	}
}

func (l *Lifecycle) resolveLink(effects *sideEffects, target content.Target) string {
	var link string

	if err := effects.call(func(ctx context.Context) error {
		resolved, errLink := l.content.ResolveLink(ctx, target)
		link = resolved

		return errLink
	}); err != nil {
		slog.Debug("Could not resolve content link", log.ErrAttr(err), slog.String("target", target.String()))

		return ""
	}

	return link
}

func (l *Lifecycle) resolveAuthor(effects *sideEffects, target content.Target) (int64, bool) {
	var authorID int64

	ok := effects.run(effectResolveAuthor, 0, func(ctx context.Context) error {
		resolved, err := l.content.ResolveAuthor(ctx, target)
		authorID = resolved

		return err
	})
	if ok && authorID <= 0 {
		effects.fail(effectResolveAuthor, 0, fmt.Errorf("%w: %s has no author", content.ErrNotFound, target))

		return 0, false
	}

	return authorID, ok
}

// reportedUser is the author of the content, or the appellant when the author can no longer be
// resolved.
func (l *Lifecycle) reportedUser(effects *sideEffects, challenge Challenge) (int64, bool) {
	var authorID int64

	err := effects.call(func(ctx context.Context) error {
		resolved, errAuthor := l.content.ResolveAuthor(ctx, challenge.Target)
		authorID = resolved

		return errAuthor
	})
	if err == nil && authorID > 0 {
		return authorID, true
	}

	if challenge.AppellantID > 0 {
		slog.Warn("Could not resolve content author, notifying appellant", log.ErrAttr(err),
			slog.String("challenge_id", challenge.ChallengeID.String()))

		return challenge.AppellantID, true
	}

	if err == nil {
		err = content.ErrNotFound
	}

	effects.fail(effectResolveAuthor, 0, err)

	return 0, false
}

func (l *Lifecycle) appendAudit(effects *sideEffects, entry modlog.Entry) {
	effects.run(effectAudit, entry.ModeratorID, func(ctx context.Context) error {
		return l.audit.Append(ctx, entry)
	})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPersistenceConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAppealNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAppealNotEligible),
		errors.Is(err, ErrAppealAlreadyDecided):
		return "rejected"
	default:
		return "error"
	}
}
