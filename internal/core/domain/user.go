package domain

import "time"

// Role is the account tier of a user. The set is closed: anything read from
// storage or a request must pass Valid before it is trusted.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAttendant Role = "attendant"
	RoleCashier   Role = "cashier"
)

// Valid reports whether r is one of the three defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAttendant, RoleCashier:
		return true
	}
	return false
}

// Manageable reports whether a cashier may assign r through account management.
// Cashier accounts are provisioned out of band.
func (r Role) Manageable() bool {
	return r == RoleCustomer || r == RoleAttendant
}

// ParseRole converts s into a Role, failing with ErrInvalidRole for unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// User models an account in the ordering application.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsCustomer() bool { return u.Role == RoleCustomer }
func (u *User) IsAttendant() bool { return u.Role == RoleAttendant }
func (u *User) IsCashier() bool { return u.Role == RoleCashier }

// Identity returns the caller binding for u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Identity is the authenticated caller attached to a request. The transport
// layer resolves it once per request and passes it into every gateway call.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (i Identity) IsCustomer() bool { return i.Role == RoleCustomer }
func (i Identity) IsAttendant() bool { return i.Role == RoleAttendant }
func (i Identity) IsCashier() bool { return i.Role == RoleCashier }

// RemovalConfirmation is returned after a user record has been permanently deleted.
type RemovalConfirmation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RemovedAt time.Time `json:"removed_at"`
}

// ManagedUsers groups the accounts a cashier can administer.
type ManagedUsers struct {
	Customers  []*User `json:"customers"`
	Attendants []*User `json:"attendants"`
}
