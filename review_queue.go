package onboard

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ReviewQueue is the admin-facing view over pending accounts. Rows leave the
// queue optimistically: a decision removes the row first and puts it back in
// its original slot if the decision fails, so one bad row never blocks the
// rest of the queue.
type ReviewQueue struct {
	accounts Accounts
	reviews  *ReviewAccountHandler
	actor    ActorRef
	logger   Logger

	mu      sync.Mutex
	rows    []*Account
	total   int
	page    int
	perPage int
}

func NewReviewQueue(accounts Accounts, reviews *ReviewAccountHandler, actor ActorRef) *ReviewQueue {
	return &ReviewQueue{
		accounts: accounts,
		reviews:  reviews,
		actor:    actor,
		logger:   defLogger{},
		perPage:  25,
	}
}

func (q *ReviewQueue) WithLogger(logger Logger) *ReviewQueue {
	if logger != nil {
		q.logger = logger
	}
	return q
}

// Load refreshes the queue with the given page of pending accounts, oldest
// registration first.
func (q *ReviewQueue) Load(ctx context.Context, page, perPage int) ([]*Account, error) {
	rows, total, err := q.accounts.ListPending(ctx, page, perPage)
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	q.rows = rows
	q.total = total
	q.page = page
	q.perPage = perPage
	q.mu.Unlock()

	return rows, nil
}

// Rows returns the current in-memory view of the queue.
func (q *ReviewQueue) Rows() []*Account {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Account, len(q.rows))
	copy(out, q.rows)
	return out
}

// Total returns the pending count reported by the last Load.
func (q *ReviewQueue) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}

// Approve applies an approval decision to one row. The row is removed
// before the call and restored on failure.
func (q *ReviewQueue) Approve(ctx context.Context, id uuid.UUID) (*Account, error) {
	return q.decide(ctx, id, func(ctx context.Context) (*Account, error) {
		return q.reviews.Approve(ctx, ApproveAccountMessage{
			AccountID: id.String(),
			Actor:     q.actor,
		})
	})
}

// Reject applies a rejection decision to one row. The row is removed before
// the call and restored on failure.
func (q *ReviewQueue) Reject(ctx context.Context, id uuid.UUID, reason string) (*Account, error) {
	return q.decide(ctx, id, func(ctx context.Context) (*Account, error) {
		return q.reviews.Reject(ctx, RejectAccountMessage{
			AccountID: id.String(),
			Reason:    reason,
			Actor:     q.actor,
		})
	})
}

func (q *ReviewQueue) decide(ctx context.Context, id uuid.UUID, apply func(context.Context) (*Account, error)) (*Account, error) {
	row, index, ok := q.take(id)
	if !ok {
		return nil, ErrIdentityNotFound
	}

	updated, err := apply(ctx)
	if err != nil {
		q.logger.Warn("review decision failed for %s, restoring row: %v", id, err)
		q.restore(row, index)
		return nil, err
	}

	q.mu.Lock()
	q.total--
	q.mu.Unlock()

	return updated, nil
}

// take removes the row with the given id and reports its position so a
// failed decision can put it back where it was.
func (q *ReviewQueue) take(id uuid.UUID) (*Account, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, row := range q.rows {
		if row.ID == id {
			q.rows = append(q.rows[:i], q.rows[i+1:]...)
			return row, i, true
		}
	}

	return nil, 0, false
}

func (q *ReviewQueue) restore(row *Account, index int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index > len(q.rows) {
		index = len(q.rows)
	}

	q.rows = append(q.rows, nil)
	copy(q.rows[index+1:], q.rows[index:])
	q.rows[index] = row
}
