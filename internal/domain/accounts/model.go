package accounts

import "time"

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the single signed-in identity. For a child, ID is the child's
// ledger id in decimal form and ChildID carries the same value.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Email     string    `json:"email,omitempty"`
	ChildID   int64     `json:"childId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
}

type LoginInput struct {
	Identifier   string
	Password     string
	Role         Role
	TicketNumber string
}
