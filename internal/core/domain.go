package core

import (
	"regexp"
	"strings"
	"time"
)

// Field length limits enforced on create and update.
const (
	DescriptionCharLimit = 256
	TypeCharLimit        = 32
	UsernameCharLimit    = 30
	EmailCharLimit       = 50
)

type (
	// ElementKind selects which financial-element collection an operation
	// works on. Incomes and expenses share the same structure and the same
	// service logic; only the backing table differs.
	ElementKind string

	// Actor is the authenticated identity performing an operation. It is
	// passed explicitly to every service call, never read from ambient state.
	Actor struct {
		UserID  int64
		IsAdmin bool
	}

	// Element is a single income or expense record.
	Element struct {
		ID            int64
		OwnerID       int64
		Description   string
		Amount        float64
		Type          string
		EffectiveDate time.Time
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Feedback is a free-text entry left by a user.
	Feedback struct {
		ID          int64
		OwnerID     int64
		Description string
		Type        string
		CreatedAt   time.Time
	}

	// User is an account. PasswordHash is never serialized.
	User struct {
		ID             int64
		Username       string
		PasswordHash   string
		Email          string
		CreatedAt      time.Time
		UpdatedAt      time.Time
		LastLogin      time.Time
		IsAdmin        bool
		IsVerified     bool
		IsMoneyVisible bool
	}
)

const (
	KindIncome  ElementKind = "income"
	KindExpense ElementKind = "expense"
)

func (k ElementKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (k ElementKind) String() string {
	return string(k)
}

// CanAccess reports whether the actor may view or mutate the element.
// Owners and admins have access; everyone else does not.
func (e Element) CanAccess(actor Actor) bool {
	return actor.IsAdmin || e.OwnerID == actor.UserID
}

// Validate checks the invariants enforced on create and update: amount
// non-negative, type non-empty, description and type within their limits.
func (e Element) Validate() error {
	if e.Amount < 0 {
		return ErrInvalidAmount("negative amount is not allowed")
	}
	if strings.TrimSpace(e.Type) == "" {
		return ErrValidation("one or more required fields are empty")
	}
	if len(e.Description) > DescriptionCharLimit || len(e.Type) > TypeCharLimit {
		return ErrValidation("one or more fields exceed the maximum allowed characters")
	}
	return nil
}

// Validate checks the bounded-field invariants shared with Element.
func (f Feedback) Validate() error {
	if strings.TrimSpace(f.Type) == "" {
		return ErrValidation("one or more required fields are empty")
	}
	if len(f.Description) > DescriptionCharLimit || len(f.Type) > TypeCharLimit {
		return ErrValidation("one or more fields exceed the maximum allowed characters")
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^[\w.-]+@[a-zA-Z\d.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether the address has a plausible mailbox@domain shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
