package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	accountsdomain "allowance-app-go/internal/domain/accounts"
	"allowance-app-go/internal/kvstore"
	"allowance-app-go/pkg/logger"
)

type AccountsRepository struct {
	scope
}

func NewAccountsRepository(store kvstore.Store, log logger.Logger) *AccountsRepository {
	return &AccountsRepository{scope: scope{store: store, log: log}}
}

func (r *AccountsRepository) Transaction(ctx context.Context, fn func(accountsdomain.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.store.Update(ctx, func(tx kvstore.Tx) error {
		return fn(&AccountsRepository{scope: scope{store: r.store, tx: tx, log: r.log}})
	})
}

func (r *AccountsRepository) ListAccounts(ctx context.Context) ([]accountsdomain.Account, error) {
	return loadList[accountsdomain.Account](ctx, r.scope, KeyParents)
}

func (r *AccountsRepository) SaveAccounts(ctx context.Context, accounts []accountsdomain.Account) error {
	return saveList(ctx, r.scope, KeyParents, accounts)
}

func (r *AccountsRepository) GetSession(ctx context.Context) (*accountsdomain.Session, error) {
	raw, err := r.reader().Get(ctx, KeySession)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, accountsdomain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeySession, err)
	}

	var session *accountsdomain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		r.log.Warn("malformed session, treating as signed out", "key", KeySession, "err", err)
		return nil, accountsdomain.ErrNoSession
	}
	if session == nil || session.ID == "" {
		return nil, accountsdomain.ErrNoSession
	}
	return session, nil
}

func (r *AccountsRepository) SaveSession(ctx context.Context, session accountsdomain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeySession, err)
	}
	return r.write(ctx, func(tx kvstore.Tx) error {
		return tx.Put(ctx, KeySession, raw)
	})
}

func (r *AccountsRepository) DeleteSession(ctx context.Context) error {
	return r.write(ctx, func(tx kvstore.Tx) error {
		return tx.Delete(ctx, KeySession)
	})
}
