package ledger

import "context"

// Repository exposes the ledger collections. Writes replace a whole
// collection; Transaction groups them into one atomic store write.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListChildren(ctx context.Context) ([]Child, error)
	SaveChildren(ctx context.Context, children []Child) error
	ListTasks(ctx context.Context) ([]Task, error)
	SaveTasks(ctx context.Context, tasks []Task) error
	ListMoneyRequests(ctx context.Context) ([]MoneyRequest, error)
	SaveMoneyRequests(ctx context.Context, requests []MoneyRequest) error
	ListHistory(ctx context.Context) ([]HistoryEntry, error)
	SaveHistory(ctx context.Context, entries []HistoryEntry) error
}
