package ledger

import (
	"context"
	"strings"
	"time"

	"allowance-app-go/internal/credentials"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const tracerName = "allowance-app-go/internal/domain/ledger"

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
	now          func() time.Time
	recorder     Recorder
	passwordCost int
	tracer       trace.Tracer
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		now:          func() time.Time { return time.Now().UTC() },
		recorder:     noopRecorder{},
		passwordCost: bcrypt.DefaultCost,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) observe(ctx context.Context, operation string) (context.Context, func(*error)) {
	ctx, span := s.tracer.Start(ctx, "ledger."+operation)
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.recorder.ObserveOperation(operation, err)
	}
}

func (s *Service) AddChild(ctx context.Context, input CreateChildInput) (result *Child, err error) {
	ctx, done := s.observe(ctx, "add_child")
	defer done(&err)

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	ticket := strings.TrimSpace(input.TicketNumber)
	parentID := strings.TrimSpace(input.ParentID)

	if parentID == "" {
		return nil, validationError("parent id is required")
	}
	if firstName == "" {
		return nil, validationError("first name is required")
	}
	if ticket == "" {
		return nil, validationError("ticket number is required")
	}
	if err := passwordError(input.Password); err != nil {
		return nil, err
	}
	if input.MonthlyAllowance.IsNegative() {
		return nil, validationError("monthly allowance must be non-negative")
	}

	now := s.now()
	birthDate, err := s.parseBirthDate(input.BirthDate, now)
	if err != nil {
		return nil, err
	}

	hash, err := credentials.HashPasswordWithCost(input.Password, s.passwordCost)
	if err != nil {
		return nil, err
	}

	var child Child
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		children, err := tx.ListChildren(ctx)
		if err != nil {
			return err
		}
		if ticketTaken(children, ticket, 0) {
			return ErrDuplicateTicketNumber
		}

		child = Child{
			ID:               nextChildID(children),
			FirstName:        firstName,
			LastName:         lastName,
			Name:             fullName(firstName, lastName),
			TicketNumber:     ticket,
			BirthDate:        birthDate.Format(birthDateLayout),
			Age:              ageAt(birthDate, now),
			PasswordHash:     hash,
			Balance:          decimal.Zero,
			MonthlyAllowance: input.MonthlyAllowance,
			ParentID:         parentID,
			CreatedAt:        now,
		}
		return tx.SaveChildren(ctx, append(children, child))
	})
	if err != nil {
		return nil, err
	}

	return &child, nil
}

func (s *Service) UpdateChild(ctx context.Context, id int64, input UpdateChildInput) (result *Child, err error) {
	ctx, done := s.observe(ctx, "update_child")
	defer done(&err)

	if input.FirstName == nil && input.LastName == nil && input.TicketNumber == nil &&
		input.BirthDate == nil && input.Password == nil && input.MonthlyAllowance == nil {
		return nil, validationError("no fields to update")
	}

	now := s.now()
	var birthDate *time.Time
	if input.BirthDate != nil {
		parsed, err := s.parseBirthDate(*input.BirthDate, now)
		if err != nil {
			return nil, err
		}
		birthDate = &parsed
	}
	if input.MonthlyAllowance != nil && input.MonthlyAllowance.IsNegative() {
		return nil, validationError("monthly allowance must be non-negative")
	}

	var hash string
	if input.Password != nil {
		if err := passwordError(*input.Password); err != nil {
			return nil, err
		}
		hash, err = credentials.HashPasswordWithCost(*input.Password, s.passwordCost)
		if err != nil {
			return nil, err
		}
	}

	var updated Child
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		children, err := tx.ListChildren(ctx)
		if err != nil {
			return err
		}
		idx := findChild(children, id)
		if idx < 0 {
			return ErrChildNotFound
		}
		child := children[idx]

		if input.FirstName != nil {
			firstName := strings.TrimSpace(*input.FirstName)
			if firstName == "" {
				return validationError("first name is required")
			}
			child.FirstName = firstName
		}
		if input.LastName != nil {
			child.LastName = strings.TrimSpace(*input.LastName)
		}
		child.Name = fullName(child.FirstName, child.LastName)

		if input.TicketNumber != nil {
			ticket := strings.TrimSpace(*input.TicketNumber)
			if ticket == "" {
				return validationError("ticket number is required")
			}
			if ticketTaken(children, ticket, child.ID) {
				return ErrDuplicateTicketNumber
			}
			child.TicketNumber = ticket
		}
		if birthDate != nil {
			child.BirthDate = birthDate.Format(birthDateLayout)
			child.Age = ageAt(*birthDate, now)
		}
		if hash != "" {
			child.PasswordHash = hash
		}
		if input.MonthlyAllowance != nil {
			child.MonthlyAllowance = *input.MonthlyAllowance
		}

		children[idx] = child
		updated = child
		return tx.SaveChildren(ctx, children)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (s *Service) GetChild(ctx context.Context, id int64) (*Child, error) {
	children, err := s.repo.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	idx := findChild(children, id)
	if idx < 0 {
		return nil, ErrChildNotFound
	}
	child := children[idx]
	return &child, nil
}

func (s *Service) GetChildByTicketNumber(ctx context.Context, ticketNumber string) (*Child, error) {
	ticketNumber = strings.TrimSpace(ticketNumber)
	if ticketNumber == "" {
		return nil, ErrChildNotFound
	}

	children, err := s.repo.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.TicketNumber == ticketNumber {
			found := child
			return &found, nil
		}
	}
	return nil, ErrChildNotFound
}

func (s *Service) ListChildrenByParent(ctx context.Context, parentID string) ([]Child, error) {
	children, err := s.repo.ListChildren(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Child, 0)
	for _, child := range children {
		if child.ParentID == parentID {
			result = append(result, child)
		}
	}
	return result, nil
}

func (s *Service) ParentOverview(ctx context.Context, parentID string) (*Overview, error) {
	children, err := s.ListChildrenByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	overview := Overview{
		ParentID:         parentID,
		Children:         len(children),
		TotalBalance:     decimal.Zero,
		MonthlyAllowance: decimal.Zero,
	}
	for _, child := range children {
		overview.TotalBalance = overview.TotalBalance.Add(child.Balance)
		overview.MonthlyAllowance = overview.MonthlyAllowance.Add(child.MonthlyAllowance)
		overview.PendingRequests += child.PendingRequests
		overview.TasksCompleted += child.TasksCompleted
	}
	return &overview, nil
}

func (s *Service) parseBirthDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, validationError("birth date is required")
	}
	parsed, err := time.Parse(birthDateLayout, value)
	if err != nil {
		return time.Time{}, validationError("birth date must be YYYY-MM-DD")
	}
	if parsed.After(now) {
		return time.Time{}, validationError("birth date is in the future")
	}
	return parsed, nil
}

func ticketTaken(children []Child, ticket string, exceptID int64) bool {
	for _, child := range children {
		if child.ID != exceptID && child.TicketNumber == ticket {
			return true
		}
	}
	return false
}

func findChild(children []Child, id int64) int {
	for i := range children {
		if children[i].ID == id {
			return i
		}
	}
	return -1
}

func nextChildID(children []Child) int64 {
	var maxID int64
	for _, child := range children {
		if child.ID > maxID {
			maxID = child.ID
		}
	}
	return maxID + 1
}
