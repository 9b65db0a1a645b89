package ledger

import (
	"context"
	"strings"
)

func (s *Service) AddMoneyRequest(ctx context.Context, input CreateMoneyRequestInput) (result *MoneyRequest, err error) {
	ctx, done := s.observe(ctx, "add_money_request")
	defer done(&err)

	description := strings.TrimSpace(input.Description)
	if !input.Amount.IsPositive() {
		return nil, validationError("amount must be positive")
	}
	if description == "" {
		return nil, validationError("description is required")
	}

	var request MoneyRequest
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		children, err := tx.ListChildren(ctx)
		if err != nil {
			return err
		}
		idx := findChild(children, input.ChildID)
		if idx < 0 {
			return ErrChildNotFound
		}

		requests, err := tx.ListMoneyRequests(ctx)
		if err != nil {
			return err
		}

		request = MoneyRequest{
			ID:          nextRequestID(requests),
			ChildID:     input.ChildID,
			Amount:      input.Amount,
			Description: description,
			Status:      RequestStatusPending,
			CreatedAt:   s.now(),
		}
		children[idx].PendingRequests++

		if err := tx.SaveMoneyRequests(ctx, append(requests, request)); err != nil {
			return err
		}
		return tx.SaveChildren(ctx, children)
	})
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// UpdateMoneyRequest edits the description of a pending request and, when
// a status is given, decides it in the same write. A failed decision leaves
// the description untouched.
func (s *Service) UpdateMoneyRequest(ctx context.Context, id int64, input UpdateMoneyRequestInput) (result *MoneyRequest, err error) {
	if input.Description == nil && input.Status == nil {
		return nil, validationError("no fields to update")
	}
	change := requestChange{}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, validationError("description is required")
		}
		change.description = &description
	}
	if input.Status != nil {
		if !validRequestStatus(*input.Status) {
			return nil, validationError("unknown request status %q", *input.Status)
		}
		change.decision = *input.Status
	}

	ctx, done := s.observe(ctx, "update_money_request")
	defer done(&err)
	return s.changeMoneyRequest(ctx, id, change)
}

// ApproveMoneyRequest debits the child's balance by the requested amount.
// It refuses without touching anything when the balance does not cover it.
func (s *Service) ApproveMoneyRequest(ctx context.Context, id int64) (result *MoneyRequest, err error) {
	ctx, done := s.observe(ctx, "approve_money_request")
	defer done(&err)
	return s.changeMoneyRequest(ctx, id, requestChange{decision: RequestStatusApproved})
}

func (s *Service) RejectMoneyRequest(ctx context.Context, id int64) (result *MoneyRequest, err error) {
	ctx, done := s.observe(ctx, "reject_money_request")
	defer done(&err)
	return s.changeMoneyRequest(ctx, id, requestChange{decision: RequestStatusRejected})
}

// requestChange is applied to a pending request only. A decision of
// pending (or none) leaves the status as it is.
type requestChange struct {
	description *string
	decision    RequestStatus
}

func (c requestChange) decides() bool {
	return c.decision == RequestStatusApproved || c.decision == RequestStatusRejected
}

func (s *Service) changeMoneyRequest(ctx context.Context, id int64, change requestChange) (*MoneyRequest, error) {
	var (
		changed MoneyRequest
		entry   *HistoryEntry
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		requests, err := tx.ListMoneyRequests(ctx)
		if err != nil {
			return err
		}
		reqIdx := findRequest(requests, id)
		if reqIdx < 0 {
			return ErrMoneyRequestNotFound
		}
		request := requests[reqIdx]
		if request.Status != RequestStatusPending {
			return ErrInvalidState
		}
		changed = request
		if change.description == nil && !change.decides() {
			return nil
		}

		if change.description != nil {
			request.Description = *change.description
		}
		if change.decides() {
			entry, err = s.decideRequest(ctx, tx, &request, change.decision)
			if err != nil {
				return err
			}
		}

		requests[reqIdx] = request
		changed = request
		return tx.SaveMoneyRequests(ctx, requests)
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		s.recorder.ObserveBalanceChange(string(entry.Kind), entry.Amount.InexactFloat64())
	}
	return &changed, nil
}

// decideRequest settles request inside tx: approval debits the child and
// records a spending entry, either outcome releases one pending slot.
func (s *Service) decideRequest(ctx context.Context, tx Repository, request *MoneyRequest, status RequestStatus) (*HistoryEntry, error) {
	children, err := tx.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	childIdx := findChild(children, request.ChildID)
	if childIdx < 0 {
		return nil, ErrChildNotFound
	}
	child := children[childIdx]

	var entry *HistoryEntry
	if status == RequestStatusApproved {
		if child.Balance.LessThan(request.Amount) {
			return nil, ErrInsufficientBalance
		}
		child.Balance = child.Balance.Sub(request.Amount)
		entry, err = s.appendHistory(ctx, tx, child, EntryKindSpending, request.Description, request.Amount.Neg())
		if err != nil {
			return nil, err
		}
	}
	if child.PendingRequests > 0 {
		child.PendingRequests--
	}
	children[childIdx] = child

	now := s.now()
	request.Status = status
	request.DecidedAt = &now
	return entry, tx.SaveChildren(ctx, children)
}

// AddRequestMessage appends to a request's conversation. Messages are
// accepted regardless of the request's status.
func (s *Service) AddRequestMessage(ctx context.Context, requestID int64, sender Sender, text string) (result *Message, err error) {
	ctx, done := s.observe(ctx, "add_request_message")
	defer done(&err)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("message text is required")
	}
	if sender != SenderParent && sender != SenderChild {
		return nil, validationError("unknown sender %q", sender)
	}

	var message Message
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		requests, err := tx.ListMoneyRequests(ctx)
		if err != nil {
			return err
		}
		idx := findRequest(requests, requestID)
		if idx < 0 {
			return ErrMoneyRequestNotFound
		}

		message = Message{
			ID:        nextMessageID(requests[idx].Messages),
			Text:      text,
			Sender:    sender,
			Timestamp: s.now(),
		}
		requests[idx].Messages = append(requests[idx].Messages, message)
		return tx.SaveMoneyRequests(ctx, requests)
	})
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (s *Service) GetMoneyRequest(ctx context.Context, id int64) (*MoneyRequest, error) {
	requests, err := s.repo.ListMoneyRequests(ctx)
	if err != nil {
		return nil, err
	}
	idx := findRequest(requests, id)
	if idx < 0 {
		return nil, ErrMoneyRequestNotFound
	}
	request := requests[idx]
	return &request, nil
}

func (s *Service) ListMoneyRequestsByChild(ctx context.Context, childID int64) ([]MoneyRequest, error) {
	requests, err := s.repo.ListMoneyRequests(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]MoneyRequest, 0)
	for _, request := range requests {
		if request.ChildID == childID {
			result = append(result, request)
		}
	}
	return result, nil
}

func validRequestStatus(status RequestStatus) bool {
	switch status {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

func findRequest(requests []MoneyRequest, id int64) int {
	for i := range requests {
		if requests[i].ID == id {
			return i
		}
	}
	return -1
}

func nextRequestID(requests []MoneyRequest) int64 {
	var maxID int64
	for _, request := range requests {
		if request.ID > maxID {
			maxID = request.ID
		}
	}
	return maxID + 1
}

func nextMessageID(messages []Message) int64 {
	var maxID int64
	for _, message := range messages {
		if message.ID > maxID {
			maxID = message.ID
		}
	}
	return maxID + 1
}
