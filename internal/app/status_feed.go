package app

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/domain"
)

// BoardSource computes a user's status board.
type BoardSource interface {
	Board(ctx context.Context, userID string) (domain.StatusBoard, error)
}

// StatusFeed fans status board updates out to connected users.
type StatusFeed struct {
	source BoardSource
	log    logrus.FieldLogger

	mu          sync.Mutex
	subscribers map[string]map[chan domain.StatusBoard]struct{}
	last        map[string]domain.StatusBoard
}

func NewStatusFeed(source BoardSource, logger logrus.FieldLogger) *StatusFeed {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StatusFeed{
		source:      source,
		log:         logger,
		subscribers: make(map[string]map[chan domain.StatusBoard]struct{}),
		last:        make(map[string]domain.StatusBoard),
	}
}

// Subscribe returns a channel that receives status boards for a user, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *StatusFeed) Subscribe(ctx context.Context, userID string) (<-chan domain.StatusBoard, func(), error) {
	board, err := f.source.Board(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.StatusBoard, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[userID]
	if !ok {
		subs = make(map[chan domain.StatusBoard]struct{})
		f.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	f.last[userID] = board
	ch <- board
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[userID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, userID)
			delete(f.last, userID)
		}
	}
	return ch, cancel, nil
}

// Publish pushes a fresh board to every subscriber of userID.
func (f *StatusFeed) Publish(ctx context.Context, userID string) error {
	return f.publish(ctx, userID, false)
}

// Refresh recomputes the board of every connected user and pushes the ones whose statuses changed.
func (f *StatusFeed) Refresh(ctx context.Context) {
	f.mu.Lock()
	users := make([]string, 0, len(f.subscribers))
	for userID := range f.subscribers {
		users = append(users, userID)
	}
	f.mu.Unlock()

	for _, userID := range users {
		if err := f.publish(ctx, userID, true); err != nil {
			f.log.WithError(err).WithField("user", userID).Warn("status feed refresh failed")
		}
	}
}

// Subscribers reports how many channels are registered for a user.
func (f *StatusFeed) Subscribers(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[userID])
}

func (f *StatusFeed) publish(ctx context.Context, userID string, onlyChanged bool) error {
	f.mu.Lock()
	_, connected := f.subscribers[userID]
	f.mu.Unlock()
	if !connected {
		return nil
	}

	board, err := f.source.Board(ctx, userID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	subs, ok := f.subscribers[userID]
	if !ok {
		return nil
	}
	if onlyChanged && sameStatuses(f.last[userID], board) {
		return nil
	}
	f.last[userID] = board
	for ch := range subs {
		select {
		case ch <- board:
		default:
			// full buffer: replace the oldest pending board
			select {
			case <-ch:
			default:
			}
			ch <- board
		}
	}
	return nil
}

func sameStatuses(a, b domain.StatusBoard) bool {
	if len(a.Quizzes) != len(b.Quizzes) {
		return false
	}
	for i := range a.Quizzes {
		if a.Quizzes[i].ID != b.Quizzes[i].ID || a.Quizzes[i].Status != b.Quizzes[i].Status {
			return false
		}
	}
	return true
}
