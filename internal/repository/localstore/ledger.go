package localstore

import (
	"context"

	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"allowance-app-go/internal/kvstore"
	"allowance-app-go/pkg/logger"
)

type LedgerRepository struct {
	scope
}

func NewLedgerRepository(store kvstore.Store, log logger.Logger) *LedgerRepository {
	return &LedgerRepository{scope: scope{store: store, log: log}}
}

func (r *LedgerRepository) Transaction(ctx context.Context, fn func(ledgerdomain.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.store.Update(ctx, func(tx kvstore.Tx) error {
		return fn(&LedgerRepository{scope: scope{store: r.store, tx: tx, log: r.log}})
	})
}

func (r *LedgerRepository) ListChildren(ctx context.Context) ([]ledgerdomain.Child, error) {
	return loadList[ledgerdomain.Child](ctx, r.scope, KeyChildren)
}

func (r *LedgerRepository) SaveChildren(ctx context.Context, children []ledgerdomain.Child) error {
	return saveList(ctx, r.scope, KeyChildren, children)
}

func (r *LedgerRepository) ListTasks(ctx context.Context) ([]ledgerdomain.Task, error) {
	return loadList[ledgerdomain.Task](ctx, r.scope, KeyTasks)
}

func (r *LedgerRepository) SaveTasks(ctx context.Context, tasks []ledgerdomain.Task) error {
	return saveList(ctx, r.scope, KeyTasks, tasks)
}

func (r *LedgerRepository) ListMoneyRequests(ctx context.Context) ([]ledgerdomain.MoneyRequest, error) {
	return loadList[ledgerdomain.MoneyRequest](ctx, r.scope, KeyMoneyRequests)
}

func (r *LedgerRepository) SaveMoneyRequests(ctx context.Context, requests []ledgerdomain.MoneyRequest) error {
	return saveList(ctx, r.scope, KeyMoneyRequests, requests)
}

func (r *LedgerRepository) ListHistory(ctx context.Context) ([]ledgerdomain.HistoryEntry, error) {
	return loadList[ledgerdomain.HistoryEntry](ctx, r.scope, KeyTransactions)
}

func (r *LedgerRepository) SaveHistory(ctx context.Context, entries []ledgerdomain.HistoryEntry) error {
	return saveList(ctx, r.scope, KeyTransactions, entries)
}
