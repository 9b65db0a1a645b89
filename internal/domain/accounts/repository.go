package accounts

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListAccounts(ctx context.Context) ([]Account, error)
	SaveAccounts(ctx context.Context, accounts []Account) error
	// GetSession returns ErrNoSession when nothing usable is stored.
	GetSession(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, session Session) error
	DeleteSession(ctx context.Context) error
}
