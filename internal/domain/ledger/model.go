package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

const birthDateLayout = "2006-01-02"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusApproved  TaskStatus = "approved"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

type Sender string

const (
	SenderParent Sender = "parent"
	SenderChild  Sender = "child"
)

type EntryKind string

const (
	EntryKindAllowance  EntryKind = "allowance"
	EntryKindTaskReward EntryKind = "task_reward"
	EntryKindDeposit    EntryKind = "deposit"
	EntryKindSpending   EntryKind = "spending"
)

type Child struct {
	ID               int64           `json:"id"`
	FirstName        string          `json:"firstName"`
	LastName         string          `json:"lastName"`
	Name             string          `json:"name"`
	TicketNumber     string          `json:"ticketNumber"`
	BirthDate        string          `json:"birthDate"`
	Age              int             `json:"age"`
	PasswordHash     string          `json:"passwordHash"`
	Balance          decimal.Decimal `json:"balance"`
	MonthlyAllowance decimal.Decimal `json:"monthlyAllowance"`
	TasksCompleted   int             `json:"tasksCompleted"`
	PendingRequests  int             `json:"pendingRequests"`
	ParentID         string          `json:"parentId"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type Task struct {
	ID          int64           `json:"id"`
	ChildID     int64           `json:"childId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Reward      decimal.Decimal `json:"reward"`
	Status      TaskStatus      `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	ApprovedAt  *time.Time      `json:"approvedAt,omitempty"`
}

type Message struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type MoneyRequest struct {
	ID          int64           `json:"id"`
	ChildID     int64           `json:"childId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Status      RequestStatus   `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	DecidedAt   *time.Time      `json:"decidedAt,omitempty"`
	Messages    []Message       `json:"messages,omitempty"`
}

// HistoryEntry records one balance movement. Amount is signed: spending is
// negative, every other kind positive.
type HistoryEntry struct {
	ID           int64           `json:"id"`
	ChildID      int64           `json:"childId"`
	Kind         EntryKind       `json:"kind"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type Overview struct {
	ParentID         string
	Children         int
	TotalBalance     decimal.Decimal
	MonthlyAllowance decimal.Decimal
	PendingRequests  int
	TasksCompleted   int
}

type CreateChildInput struct {
	ParentID         string
	FirstName        string
	LastName         string
	TicketNumber     string
	BirthDate        string
	Password         string
	MonthlyAllowance decimal.Decimal
}

type UpdateChildInput struct {
	FirstName        *string
	LastName         *string
	TicketNumber     *string
	BirthDate        *string
	Password         *string
	MonthlyAllowance *decimal.Decimal
}

type CreateTaskInput struct {
	ChildID     int64
	Title       string
	Description string
	Reward      decimal.Decimal
	Status      TaskStatus
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Reward      *decimal.Decimal
	Status      *TaskStatus
}

type CreateMoneyRequestInput struct {
	ChildID     int64
	Amount      decimal.Decimal
	Description string
}

type UpdateMoneyRequestInput struct {
	Description *string
	Status      *RequestStatus
}

func fullName(firstName, lastName string) string {
	if lastName == "" {
		return firstName
	}
	return firstName + " " + lastName
}

// ageAt subtracts calendar years, minus one when the birthday has not yet
// come around in now's year.
func ageAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
