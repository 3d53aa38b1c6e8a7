package repo

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

type Kind string

const (
	KindConsultancy Kind = "consultancy"
	KindPartner     Kind = "partner"
	KindAMC         Kind = "amc"
)

var Kinds = []Kind{KindConsultancy, KindPartner, KindAMC}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Export states of a lead's spreadsheet copy.
const (
	ExportSkipped = "skipped"
	ExportPending = "pending"
	ExportOK      = "ok"
	ExportFailed  = "failed"
)

const (
	StatusNew    = "new"
	MaxStatusLen = 32
)

// NormalizeStatus trims and lowercases a triage status. It reports false for
// an empty status or one longer than MaxStatusLen.
func NormalizeStatus(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || len(s) > MaxStatusLen {
		return "", false
	}
	return s, true
}

// Lead is a submitted consultancy enquiry, partner registration or AMC enquiry.
// Name holds the client name for AMC enquiries. Details holds the free-text
// requirement message, business details or system details.
type Lead struct {
	ID           int64     `json:"id"`
	Kind         Kind      `json:"kind"`
	Status       string    `json:"status"`
	Name         string    `json:"name"`
	CompanyName  string    `json:"company_name,omitempty"`
	PhoneNumber  string    `json:"phone_number"`
	Email        string    `json:"email"`
	Location     string    `json:"location"`
	Details      string    `json:"details"`
	FormID       string    `json:"-"`
	ExportStatus string    `json:"export_status"`
	ExportError  string    `json:"export_error,omitempty"`
	ExportToken  string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleGuest:
		return Role(s), true
	}
	return "", false
}

type Profile struct {
	ID          int       `json:"id"`
	Login       string    `json:"login"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type LeadStore interface {
	CreateLead(ctx context.Context, l Lead) (int64, error)
	GetLead(ctx context.Context, id int64) (Lead, error)
	LeadByFormID(ctx context.Context, formID string) (Lead, error)
	ListLeads(ctx context.Context, kind Kind) ([]Lead, error)
	UpdateLeadStatus(ctx context.Context, id int64, status string) error
	UpdateExport(ctx context.Context, id int64, status, errMsg string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	GetBylogin(ctx context.Context, login string) (int, string, error)
	GetProfileByID(ctx context.Context, id int) (Profile, error)
	UpdateProfile(ctx context.Context, id int, login, description string) (Profile, error)
}

type RoleStore interface {
	AssignInitialRole(ctx context.Context, userID int) (Role, error)
	GetRole(ctx context.Context, userID int) (Role, error)
	SetRole(ctx context.Context, userID int, role Role) error
}

type Repository interface {
	LeadStore
	UserStore
	RoleStore
}
