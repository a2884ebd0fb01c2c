// Package service holds the business logic of the engine. Each service runs
// its read-modify-write cycles through storage.Store.RunInTx so that all
// mutations to a single account, deposit, or trade serialize on the row lock.
//
// User-facing notifications are persisted inside the same transaction as the
// mutation that produced them and pushed to the Notifier only after commit.
// A Notifier failure never rolls back a ledger mutation.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

// Notifier pushes a message to an external notification channel. Delivery is
// fire-and-forget; implementations log their own failures.
type Notifier interface {
	Notify(ctx context.Context, accountID uuid.UUID, message string)
}

// NopNotifier discards all messages.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, uuid.UUID, string) {}

// event is a notification collected during a transaction and delivered after
// commit.
type event struct {
	accountID uuid.UUID
	message   string
}

// recordEvent persists the notification row inside the transaction and queues
// the push for after commit.
func recordEvent(ctx context.Context, q storage.Querier, events *[]event, accountID uuid.UUID, now time.Time, message string) error {
	if err := q.CreateNotification(ctx, &domain.Notification{
		ID:        uuid.New(),
		AccountID: accountID,
		Message:   message,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	*events = append(*events, event{accountID: accountID, message: message})
	return nil
}

func publish(ctx context.Context, n Notifier, events []event) {
	if n == nil {
		return
	}
	for _, e := range events {
		n.Notify(ctx, e.accountID, e.message)
	}
}

// rankChange names the bands an account moved between. Old or New is empty
// when the account had, or ends with, no rank.
type rankChange struct {
	Old string
	New string
}

// recomputeRankTx re-derives the account's rank band from its principal
// balance and persists the change. The caller must hold the account row lock
// and pass the freshest account snapshot. Returns nil when the rank did not
// move.
func recomputeRankTx(ctx context.Context, q storage.Querier, a *domain.Account) (*rankChange, error) {
	bands, err := q.ListRankBands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank bands: %w", err)
	}
	table, err := domain.NewRankTable(bands)
	if err != nil {
		return nil, fmt.Errorf("invalid rank table: %w", err)
	}

	matched := table.Match(a.PrincipalBalance())

	var oldName, newName string
	var newID *uuid.UUID
	if a.RankID != nil {
		if current := table.ByID(*a.RankID); current != nil {
			oldName = current.Name
		}
	}
	if matched != nil {
		newName = matched.Name
		id := matched.ID
		newID = &id
	}

	same := (a.RankID == nil && newID == nil) ||
		(a.RankID != nil && newID != nil && *a.RankID == *newID)
	if same {
		return nil, nil
	}

	if err := q.UpdateAccountRank(ctx, a.ID, newID); err != nil {
		return nil, fmt.Errorf("failed to update rank: %w", err)
	}
	a.RankID = newID

	zap.L().Info("rank changed",
		zap.String("account_id", a.ID.String()),
		zap.String("old_rank", oldName),
		zap.String("new_rank", newName),
	)
	return &rankChange{Old: oldName, New: newName}, nil
}

func (c *rankChange) message() string {
	switch {
	case c.Old == "":
		return fmt.Sprintf("You reached rank %s.", c.New)
	case c.New == "":
		return fmt.Sprintf("You lost rank %s.", c.Old)
	default:
		return fmt.Sprintf("Your rank changed from %s to %s.", c.Old, c.New)
	}
}
