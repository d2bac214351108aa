package ledger

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
)

// Publisher receives a notification after each successful ledger write.
// fintrack/internal/events.Client satisfies it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, entity, action string, id int64) error
}

// Notifying wraps a Ledger and publishes an event after every successful
// write. Publishing is best effort: a failed publish is logged, never
// surfaced, because the write itself already committed.
type Notifying struct {
	Ledger
	pub Publisher
}

func NewNotifying(next Ledger, pub Publisher) *Notifying {
	return &Notifying{Ledger: next, pub: pub}
}

func (n *Notifying) publish(ctx context.Context, entity, action string, id int64) {
	if err := n.pub.PublishLedgerEvent(ctx, entity, action, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"entity", entity, "action", action, "id", id, "error", err)
	}
}

func (n *Notifying) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	id, err := n.Ledger.AddTransaction(ctx, tx)
	if err != nil {
		return 0, err
	}
	n.publish(ctx, "transaction", "created", id)
	return id, nil
}

func (n *Notifying) DeleteTransaction(ctx context.Context, id int64) error {
	if err := n.Ledger.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	n.publish(ctx, "transaction", "deleted", id)
	return nil
}

func (n *Notifying) AddRecurringBill(ctx context.Context, bill core.RecurringBill) (int64, error) {
	id, err := n.Ledger.AddRecurringBill(ctx, bill)
	if err != nil {
		return 0, err
	}
	n.publish(ctx, "recurring_bill", "created", id)
	return id, nil
}

func (n *Notifying) AddSavingsGoal(ctx context.Context, goal core.SavingsGoal) (int64, error) {
	id, err := n.Ledger.AddSavingsGoal(ctx, goal)
	if err != nil {
		return 0, err
	}
	n.publish(ctx, "savings_goal", "created", id)
	return id, nil
}

func (n *Notifying) ApplyToSavingsGoal(ctx context.Context, id int64, delta core.Money) (core.Money, error) {
	newAmount, err := n.Ledger.ApplyToSavingsGoal(ctx, id, delta)
	if err != nil {
		return core.Money{}, err
	}
	n.publish(ctx, "savings_goal", "updated", id)
	return newAmount, nil
}

func (n *Notifying) ToggleGoalActive(ctx context.Context, id int64) error {
	if err := n.Ledger.ToggleGoalActive(ctx, id); err != nil {
		return err
	}
	n.publish(ctx, "savings_goal", "updated", id)
	return nil
}

func (n *Notifying) DeleteSavingsGoal(ctx context.Context, id int64) error {
	if err := n.Ledger.DeleteSavingsGoal(ctx, id); err != nil {
		return err
	}
	n.publish(ctx, "savings_goal", "deleted", id)
	return nil
}

func (n *Notifying) DeleteCategory(ctx context.Context, id int64) error {
	if err := n.Ledger.DeleteCategory(ctx, id); err != nil {
		return err
	}
	n.publish(ctx, "category", "deleted", id)
	return nil
}

var _ Ledger = (*Notifying)(nil)
