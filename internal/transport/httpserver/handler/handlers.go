package handler

import (
	accountsdomain "allowance-app-go/internal/domain/accounts"
	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"allowance-app-go/pkg/logger"
)

type TokenIssuer interface {
	Issue(session accountsdomain.Session) (string, error)
}

type Handlers struct {
	Accounts *accountsdomain.Service
	Ledger   *ledgerdomain.Service
	tokens   TokenIssuer
	log      logger.Logger
}

func New(accounts *accountsdomain.Service, ledger *ledgerdomain.Service, tokens TokenIssuer, log logger.Logger) *Handlers {
	return &Handlers{
		Accounts: accounts,
		Ledger:   ledger,
		tokens:   tokens,
		log:      log,
	}
}
