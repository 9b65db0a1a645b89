package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	defaultDepositDescription   = "Deposit"
	defaultAllowanceDescription = "Monthly allowance"
)

func (s *Service) AddBalance(ctx context.Context, childID int64, amount decimal.Decimal, description string) (result *Child, err error) {
	ctx, done := s.observe(ctx, "add_balance")
	defer done(&err)

	if !amount.IsPositive() {
		return nil, validationError("amount must be positive")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = defaultDepositDescription
	}

	return s.credit(ctx, childID, EntryKindDeposit, description, func(Child) decimal.Decimal {
		return amount
	})
}

// ReleaseAllowance credits the child's configured monthly allowance.
func (s *Service) ReleaseAllowance(ctx context.Context, childID int64) (result *Child, err error) {
	ctx, done := s.observe(ctx, "release_allowance")
	defer done(&err)

	return s.credit(ctx, childID, EntryKindAllowance, defaultAllowanceDescription, func(child Child) decimal.Decimal {
		return child.MonthlyAllowance
	})
}

func (s *Service) credit(ctx context.Context, childID int64, kind EntryKind, description string, amountFor func(Child) decimal.Decimal) (*Child, error) {
	var (
		updated Child
		entry   *HistoryEntry
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		children, err := tx.ListChildren(ctx)
		if err != nil {
			return err
		}
		idx := findChild(children, childID)
		if idx < 0 {
			return ErrChildNotFound
		}

		child := children[idx]
		amount := amountFor(child)
		if !amount.IsPositive() {
			return validationError("nothing to credit for child %d", childID)
		}
		child.Balance = child.Balance.Add(amount)
		children[idx] = child

		entry, err = s.appendHistory(ctx, tx, child, kind, description, amount)
		if err != nil {
			return err
		}
		updated = child
		return tx.SaveChildren(ctx, children)
	})
	if err != nil {
		return nil, err
	}

	s.recorder.ObserveBalanceChange(string(entry.Kind), entry.Amount.InexactFloat64())
	return &updated, nil
}

// ListTransactions returns the child's balance history, oldest first.
func (s *Service) ListTransactions(ctx context.Context, childID int64) ([]HistoryEntry, error) {
	if _, err := s.GetChild(ctx, childID); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListHistory(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]HistoryEntry, 0)
	for _, entry := range entries {
		if entry.ChildID == childID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// appendHistory records a movement for child, whose Balance must already
// hold the post-movement value.
func (s *Service) appendHistory(ctx context.Context, tx Repository, child Child, kind EntryKind, description string, amount decimal.Decimal) (*HistoryEntry, error) {
	entries, err := tx.ListHistory(ctx)
	if err != nil {
		return nil, err
	}

	entry := HistoryEntry{
		ID:           nextEntryID(entries),
		ChildID:      child.ID,
		Kind:         kind,
		Description:  description,
		Amount:       amount,
		BalanceAfter: child.Balance,
		CreatedAt:    s.now(),
	}
	if err := tx.SaveHistory(ctx, append(entries, entry)); err != nil {
		return nil, err
	}
	return &entry, nil
}

func nextEntryID(entries []HistoryEntry) int64 {
	var maxID int64
	for _, entry := range entries {
		if entry.ID > maxID {
			maxID = entry.ID
		}
	}
	return maxID + 1
}
