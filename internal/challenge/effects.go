package challenge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/adagearchive/moderation/internal/metrics"
	"github.com/adagearchive/moderation/internal/notification"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/errgroup"
)

const (
	effectHide          = "hide"
	effectRestore       = "restore"
	effectResolveAuthor = "resolve_author"
	effectNotify        = "notify"
	effectAudit         = "audit"
	effectTicket        = "appeal_ticket"
	effectListAdmins    = "list_admins"
)

// sideEffects runs the post-commit work of one transition. It is detached from the request so a
// disconnecting client cannot abandon effects half way, and each effect gets its own deadline.
type sideEffects struct {
	ctx         context.Context //nolint:containedctx
	timeout     time.Duration
	limit       int
	challengeID uuid.UUID
	metrics     *metrics.Collector

	mu     sync.Mutex
	failed []SideEffectError
}

func newSideEffects(ctx context.Context, challengeID uuid.UUID, opts Options, collector *metrics.Collector) *sideEffects {
	return &sideEffects{
		ctx:         context.WithoutCancel(ctx),
		timeout:     opts.EffectTimeout,
		limit:       opts.FanOutLimit,
		challengeID: challengeID,
		metrics:     collector,
		failed:      []SideEffectError{},
	}
}

// call runs fn under the per effect deadline without recording failures.
func (s *sideEffects) call(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	return fn(ctx)
}

// run calls fn and records a failure against effect. It reports whether fn succeeded.
func (s *sideEffects) run(effect string, userID int64, fn func(ctx context.Context) error) bool {
	if err := s.call(fn); err != nil {
		s.fail(effect, userID, err)

		return false
	}

	return true
}

func (s *sideEffects) fail(effect string, userID int64, err error) {
	slog.Error("Moderation side effect failed", log.ErrAttr(err),
		slog.String("effect", effect),
		slog.String("challenge_id", s.challengeID.String()),
		slog.Int64("user_id", userID))

	s.metrics.Degraded(effect)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed = append(s.failed, SideEffectError{Effect: effect, UserID: userID, Message: err.Error(), cause: err})
}

// notifyAll sends every notification concurrently. Each send is independent of the others.
func (s *sideEffects) notifyAll(notifier Notifier, notifications []notification.Notification) {
	group := errgroup.Group{}
	group.SetLimit(s.limit)

	for _, notif := range notifications {
		if notif.UserID <= 0 {
			continue
		}

		group.Go(func() error {
			s.run(effectNotify, notif.UserID, func(ctx context.Context) error {
				return notifier.Notify(ctx, notif)
			})

			return nil
		})
	}

	_ = group.Wait()
}

func (s *sideEffects) errors() []SideEffectError {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.failed
}
