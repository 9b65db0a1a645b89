package accounts

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"allowance-app-go/internal/credentials"
	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ChildDirectory interface {
	GetChildByTicketNumber(ctx context.Context, ticketNumber string) (*ledgerdomain.Child, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		s.passwordCost = cost
	}
}

type Service struct {
	repo         Repository
	children     ChildDirectory
	now          func() time.Time
	newID        func() string
	recorder     Recorder
	passwordCost int
}

func NewService(repo Repository, children ChildDirectory, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		children:     children,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
		recorder:     noopRecorder{},
		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores a new parent account. It does not sign the parent in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)

	if name == "" {
		return nil, validationError("name is required")
	}
	if email == "" {
		return nil, validationError("email is required")
	}
	if err := passwordError(input.Password); err != nil {
		return nil, err
	}
	if input.ConfirmPassword == "" {
		return nil, validationError("password confirmation is required")
	}
	if input.ConfirmPassword != input.Password {
		return nil, validationError("passwords do not match")
	}

	hash, err := credentials.HashPasswordWithCost(input.Password, s.passwordCost)
	if err != nil {
		return nil, err
	}

	var account Account
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		accounts, err := tx.ListAccounts(ctx)
		if err != nil {
			return err
		}
		for _, existing := range accounts {
			if existing.Email == email {
				return ErrDuplicateEmail
			}
		}

		account = Account{
			ID:           s.newID(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Phone:        phone,
			CreatedAt:    s.now(),
		}
		return tx.SaveAccounts(ctx, append(accounts, account))
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// Login authenticates a parent by email and password, or a child by ticket
// number, name (full or first) and password. A successful login replaces
// the stored session.
func (s *Service) Login(ctx context.Context, input LoginInput) (session *Session, err error) {
	defer func() {
		s.recorder.ObserveLogin(string(input.Role), err)
	}()

	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	switch input.Role {
	case RoleParent:
		session, err = s.loginParent(ctx, identifier, input.Password)
	case RoleChild:
		session, err = s.loginChild(ctx, identifier, strings.TrimSpace(input.TicketNumber), input.Password)
	default:
		return nil, validationError("unknown role %q", input.Role)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveSession(ctx, *session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) loginParent(ctx context.Context, email, password string) (*Session, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if account.Email != email {
			continue
		}
		if !credentials.CheckPassword(password, account.PasswordHash) {
			return nil, ErrInvalidCredentials
		}
		return &Session{
			ID:        account.ID,
			Name:      account.Name,
			Role:      RoleParent,
			Email:     account.Email,
			CreatedAt: s.now(),
		}, nil
	}
	return nil, ErrInvalidCredentials
}

func (s *Service) loginChild(ctx context.Context, name, ticketNumber, password string) (*Session, error) {
	if ticketNumber == "" || s.children == nil {
		return nil, ErrInvalidCredentials
	}

	child, err := s.children.GetChildByTicketNumber(ctx, ticketNumber)
	if err != nil {
		if errors.Is(err, ledgerdomain.ErrChildNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if name != child.Name && name != child.FirstName {
		return nil, ErrInvalidCredentials
	}
	if !credentials.CheckPassword(password, child.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &Session{
		ID:        strconv.FormatInt(child.ID, 10),
		Name:      child.Name,
		Role:      RoleChild,
		ChildID:   child.ID,
		CreatedAt: s.now(),
	}, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.repo.DeleteSession(ctx)
}

func (s *Service) CurrentSession(ctx context.Context) (*Session, error) {
	return s.repo.GetSession(ctx)
}

func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if account.ID == id {
			found := account
			return &found, nil
		}
	}
	return nil, ErrAccountNotFound
}
