package challenge_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/adagearchive/moderation/internal/challenge"
	"github.com/adagearchive/moderation/internal/contact"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/metrics"
	"github.com/adagearchive/moderation/internal/modlog"
	"github.com/adagearchive/moderation/internal/notification"
	"github.com/adagearchive/moderation/internal/person"
	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("service unavailable")

const (
	challengerID = int64(10)
	authorID     = int64(20)
	moderatorID  = int64(50)
	adminOne     = int64(100)
	adminTwo     = int64(101)
)

// memoryStore implements challenge.Store with the same version semantics as the postgres
// repository.
type memoryStore struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]challenge.Challenge
	swaps      int
	// beforeSwap runs once, before the next compare, to simulate a concurrent writer.
	beforeSwap func(stored *challenge.Challenge)
	// conflicts forces this many version conflicts by bumping the stored version.
	conflicts int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{challenges: map[uuid.UUID]challenge.Challenge{}}
}

func (m *memoryStore) Create(_ context.Context, newChallenge *challenge.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newChallenge.Version = 1
	m.challenges[newChallenge.ChallengeID] = *newChallenge

	return nil
}

func (m *memoryStore) ByID(_ context.Context, challengeID uuid.UUID) (challenge.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found, ok := m.challenges[challengeID]
	if !ok {
		return challenge.Challenge{}, challenge.ErrNotFound
	}

	return found, nil
}

func (m *memoryStore) LatestAccepted(_ context.Context, target content.Target) (challenge.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		latest challenge.Challenge
		found  bool
	)

	for _, stored := range m.challenges {
		if stored.Target != target || stored.Status != challenge.StatusAccepted {
			continue
		}

		if !found || stored.DecidedOn.After(*latest.DecidedOn) {
			latest = stored
			found = true
		}
	}

	if !found {
		return challenge.Challenge{}, challenge.ErrNotFound
	}

	return latest, nil
}

func (m *memoryStore) CompareAndSwap(_ context.Context, next *challenge.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.challenges[next.ChallengeID]
	if !ok {
		return challenge.ErrPersistenceConflict
	}

	if m.beforeSwap != nil {
		hook := m.beforeSwap
		m.beforeSwap = nil

		hook(&stored)
		stored.Version++
		m.challenges[stored.ChallengeID] = stored
	}

	if m.conflicts > 0 {
		m.conflicts--
		stored.Version++
		m.challenges[stored.ChallengeID] = stored
	}

	if stored.Version != next.Version {
		return fmt.Errorf("%w: version %d", challenge.ErrPersistenceConflict, next.Version)
	}

	next.Version++
	m.challenges[next.ChallengeID] = *next
	m.swaps++

	return nil
}

func (m *memoryStore) Query(_ context.Context, filter challenge.Query) ([]challenge.Challenge, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []challenge.Challenge

	for _, stored := range m.challenges {
		if filter.Status != "" && stored.Status != filter.Status {
			continue
		}

		results = append(results, stored)
	}

	slices.SortFunc(results, func(a, b challenge.Challenge) int {
		return a.CreatedOn.Compare(b.CreatedOn)
	})

	return results, int64(len(results)), nil
}

func (m *memoryStore) swapCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.swaps
}

type recordingContent struct {
	mu         sync.Mutex
	hidden     []content.Target
	restored   []content.Target
	authors    map[content.Target]int64
	hideErr    error
	authorErr  error
	restoreErr error
}

func newRecordingContent() *recordingContent {
	return &recordingContent{authors: map[content.Target]int64{}}
}

func (r *recordingContent) Hide(_ context.Context, target content.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hideErr != nil {
		return r.hideErr
	}

	r.hidden = append(r.hidden, target)

	return nil
}

func (r *recordingContent) Restore(_ context.Context, target content.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.restoreErr != nil {
		return r.restoreErr
	}

	r.restored = append(r.restored, target)

	return nil
}

func (r *recordingContent) ResolveAuthor(_ context.Context, target content.Target) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.authorErr != nil {
		return 0, r.authorErr
	}

	author, ok := r.authors[target]
	if !ok {
		return 0, content.ErrNotFound
	}

	return author, nil
}

func (r *recordingContent) ResolveLink(_ context.Context, target content.Target) (string, error) {
	return "https://adages.example.com/" + target.String(), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []notification.Notification
	failed map[int64]error
}

func (r *recordingNotifier) Notify(_ context.Context, notif notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.failed[notif.UserID]; ok {
		return err
	}

	r.sent = append(r.sent, notif)

	return nil
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = nil
}

// forUser returns the notification types sent to userID.
func (r *recordingNotifier) forUser(userID int64) []notification.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	var types []notification.Type

	for _, notif := range r.sent {
		if notif.UserID == userID {
			types = append(types, notif.Type)
		}
	}

	return types
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sent)
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []modlog.Entry
	err     error
}

func (r *recordingAudit) Append(_ context.Context, entry modlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.entries = append(r.entries, entry)

	return nil
}

func (r *recordingAudit) actions() []modlog.Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	actions := make([]modlog.Action, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}

	return actions
}

type recordingTickets struct {
	mu      sync.Mutex
	tickets []contact.AppealTicket
	err     error
}

func (r *recordingTickets) CreateAppealTicket(_ context.Context, ticket contact.AppealTicket) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return 0, r.err
	}

	r.tickets = append(r.tickets, ticket)

	return int64(len(r.tickets)), nil
}

type failingAdmins struct{}

func (failingAdmins) ListAdmins(_ context.Context) ([]int64, error) {
	return nil, errUnavailable
}

type harness struct {
	store     *memoryStore
	content   *recordingContent
	notifier  *recordingNotifier
	audit     *recordingAudit
	tickets   *recordingTickets
	metrics   *metrics.Collector
	now       time.Time
	lifecycle *challenge.Lifecycle
}

func newHarness(t *testing.T, admins challenge.AdminDirectory) *harness {
	t.Helper()

	if admins == nil {
		admins = person.StaticAdmins{adminOne, adminTwo}
	}

	testHarness := &harness{
		store:    newMemoryStore(),
		content:  newRecordingContent(),
		notifier: &recordingNotifier{failed: map[int64]error{}},
		audit:    &recordingAudit{},
		tickets:  &recordingTickets{},
		metrics:  metrics.New(prometheus.NewRegistry()),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	testHarness.lifecycle = challenge.NewLifecycle(challenge.Dependencies{
		Store:    testHarness.store,
		Content:  testHarness.content,
		Notifier: testHarness.notifier,
		Audit:    testHarness.audit,
		Admins:   admins,
		Tickets:  testHarness.tickets,
		Metrics:  testHarness.metrics,
		Now: func() time.Time {
			return testHarness.now
		},
	}, challenge.Options{EffectTimeout: time.Second, FanOutLimit: 2, MaxAttempts: 3})

	return testHarness
}

// submit files a challenge against a new piece of content owned by authorID.
func (h *harness) submit(t *testing.T, contentType content.Type) challenge.Challenge {
	t.Helper()

	target := content.Target{Type: contentType, ID: uuid.Must(uuid.NewV4()).String()}
	h.content.authors[target] = authorID

	submitted, err := h.lifecycle.Submit(t.Context(), challenge.NewChallenge{
		Target:       target,
		ChallengerID: challengerID,
		Reason:       "Misattributed to Franklin",
	})
	require.NoError(t, err)

	return submitted
}
