package handler

import (
	"encoding/json"
	"net/http"
	"time"

	accountsdomain "allowance-app-go/internal/domain/accounts"
	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type accountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	ChildID   int64     `json:"child_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Session sessionResponse `json:"session"`
}

type childResponse struct {
	ID               int64           `json:"id"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	Name             string          `json:"name"`
	TicketNumber     string          `json:"ticket_number"`
	BirthDate        string          `json:"birth_date"`
	Age              int             `json:"age"`
	Balance          decimal.Decimal `json:"balance"`
	MonthlyAllowance decimal.Decimal `json:"monthly_allowance"`
	TasksCompleted   int             `json:"tasks_completed"`
	PendingRequests  int             `json:"pending_requests"`
	ParentID         string          `json:"parent_id"`
	CreatedAt        time.Time       `json:"created_at"`
}

type taskResponse struct {
	ID          int64           `json:"id"`
	ChildID     int64           `json:"child_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Reward      decimal.Decimal `json:"reward"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
}

type messageResponse struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type moneyRequestResponse struct {
	ID          int64             `json:"id"`
	ChildID     int64             `json:"child_id"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	DecidedAt   *time.Time        `json:"decided_at,omitempty"`
	Messages    []messageResponse `json:"messages"`
}

type transactionResponse struct {
	ID           int64           `json:"id"`
	ChildID      int64           `json:"child_id"`
	Kind         string          `json:"kind"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

type overviewResponse struct {
	Children         int             `json:"children"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	MonthlyAllowance decimal.Decimal `json:"monthly_allowance"`
	PendingRequests  int             `json:"pending_requests"`
	TasksCompleted   int             `json:"tasks_completed"`
}

func toAccountResponse(account accountsdomain.Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Phone:     account.Phone,
		CreatedAt: account.CreatedAt,
	}
}

func toSessionResponse(session accountsdomain.Session) sessionResponse {
	return sessionResponse{
		ID:        session.ID,
		Name:      session.Name,
		Role:      string(session.Role),
		Email:     session.Email,
		ChildID:   session.ChildID,
		CreatedAt: session.CreatedAt,
	}
}

func toChildResponse(child ledgerdomain.Child) childResponse {
	return childResponse{
		ID:               child.ID,
		FirstName:        child.FirstName,
		LastName:         child.LastName,
		Name:             child.Name,
		TicketNumber:     child.TicketNumber,
		BirthDate:        child.BirthDate,
		Age:              child.Age,
		Balance:          child.Balance,
		MonthlyAllowance: child.MonthlyAllowance,
		TasksCompleted:   child.TasksCompleted,
		PendingRequests:  child.PendingRequests,
		ParentID:         child.ParentID,
		CreatedAt:        child.CreatedAt,
	}
}

func toTaskResponse(task ledgerdomain.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		ChildID:     task.ChildID,
		Title:       task.Title,
		Description: task.Description,
		Reward:      task.Reward,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
		ApprovedAt:  task.ApprovedAt,
	}
}

func toMessageResponse(message ledgerdomain.Message) messageResponse {
	return messageResponse{
		ID:        message.ID,
		Text:      message.Text,
		Sender:    string(message.Sender),
		Timestamp: message.Timestamp,
	}
}

func toMoneyRequestResponse(request ledgerdomain.MoneyRequest) moneyRequestResponse {
	messages := make([]messageResponse, 0, len(request.Messages))
	for _, message := range request.Messages {
		messages = append(messages, toMessageResponse(message))
	}
	return moneyRequestResponse{
		ID:          request.ID,
		ChildID:     request.ChildID,
		Amount:      request.Amount,
		Description: request.Description,
		Status:      string(request.Status),
		CreatedAt:   request.CreatedAt,
		DecidedAt:   request.DecidedAt,
		Messages:    messages,
	}
}

func toTransactionResponse(entry ledgerdomain.HistoryEntry) transactionResponse {
	return transactionResponse{
		ID:           entry.ID,
		ChildID:      entry.ChildID,
		Kind:         string(entry.Kind),
		Description:  entry.Description,
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		CreatedAt:    entry.CreatedAt,
	}
}
