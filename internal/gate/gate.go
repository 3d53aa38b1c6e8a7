// Package gate decides whether a caller may see submitted leads.
//
// A caller moves Unauthenticated -> Pending on login, and Pending resolves to
// Admin, NonAdmin or RoleError once the role query returns. Only Admin may
// fetch records. NonAdmin stays put until logout. RoleError is left by an
// explicit Retry or by Logout.
//
// The HTTP server builds one Machine per request from the session cookie, so
// Retry there is an explicit retry endpoint and Logout happens when the
// session is cleared. The role query error is kept for logging only and never
// shown in the View.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type State int

const (
	Unauthenticated State = iota
	Pending
	Admin
	NonAdmin
	RoleError
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Pending:
		return "pending"
	case Admin:
		return "admin"
	case NonAdmin:
		return "non_admin"
	case RoleError:
		return "role_error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAlreadyLoggedIn  = errors.New("already logged in")
	ErrNotAdmin         = errors.New("caller is not an admin")
	ErrRolePending      = errors.New("role not resolved yet")
	ErrRoleQuery        = errors.New("role query failed")
	ErrNoRetry          = errors.New("nothing to retry")
)

// RoleSource answers whether a principal holds the admin role.
type RoleSource interface {
	IsAdmin(ctx context.Context, principal int) (bool, error)
}

// RecordSource loads privileged data once the caller is known to be an admin.
type RecordSource[T any] interface {
	Fetch(ctx context.Context) (T, error)
}

type Machine struct {
	mu        sync.Mutex
	roles     RoleSource
	forget    func(principal int)
	state     State
	principal int
	err       error
	cached    any
}

// New builds a gate. forget, when non-nil, is called on logout so cached
// role data for the principal is dropped.
func New(roles RoleSource, forget func(principal int)) *Machine {
	return &Machine{roles: roles, forget: forget}
}

func (m *Machine) Login(principal int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Unauthenticated {
		return ErrAlreadyLoggedIn
	}
	m.state = Pending
	m.principal = principal
	m.err = nil
	return nil
}

// Resolve runs the role query if the role is still unknown. It never re-queries
// a resolved role.
func (m *Machine) Resolve(ctx context.Context) (State, error) {
	m.mu.Lock()
	switch m.state {
	case Unauthenticated:
		m.mu.Unlock()
		return Unauthenticated, ErrNotAuthenticated
	case Admin, NonAdmin:
		s := m.state
		m.mu.Unlock()
		return s, nil
	case RoleError:
		err := m.err
		m.mu.Unlock()
		return RoleError, err
	}
	principal := m.principal
	m.mu.Unlock()

	isAdmin, err := m.roles.IsAdmin(ctx, principal)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Pending || m.principal != principal {
		// logged out while the query was in flight
		return m.state, ErrNotAuthenticated
	}
	switch {
	case err != nil:
		m.state = RoleError
		m.err = fmt.Errorf("%w: %v", ErrRoleQuery, err)
		return m.state, m.err
	case isAdmin:
		m.state = Admin
	default:
		m.state = NonAdmin
	}
	return m.state, nil
}

// Retry re-runs the role query after a RoleError.
func (m *Machine) Retry(ctx context.Context) (State, error) {
	m.mu.Lock()
	if m.state != RoleError {
		s := m.state
		m.mu.Unlock()
		return s, ErrNoRetry
	}
	m.state = Pending
	m.err = nil
	m.mu.Unlock()
	return m.Resolve(ctx)
}

// Fetch loads records through src, but only once the caller resolved to Admin.
func Fetch[T any](ctx context.Context, m *Machine, src RecordSource[T]) (T, error) {
	var zero T
	m.mu.Lock()
	state, principal := m.state, m.principal
	m.mu.Unlock()

	switch state {
	case Admin:
	case Unauthenticated:
		return zero, ErrNotAuthenticated
	case Pending:
		return zero, ErrRolePending
	case RoleError:
		return zero, ErrRoleQuery
	default:
		return zero, ErrNotAdmin
	}

	v, err := src.Fetch(ctx)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Admin || m.principal != principal {
		return zero, ErrNotAuthenticated
	}
	m.cached = v
	return v, nil
}

// Cached returns the last successful fetch, if any.
func (m *Machine) Cached() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached
}

func (m *Machine) Logout() {
	m.mu.Lock()
	principal, was := m.principal, m.state
	m.state = Unauthenticated
	m.principal = 0
	m.err = nil
	m.cached = nil
	m.mu.Unlock()

	if was != Unauthenticated && m.forget != nil {
		m.forget(principal)
	}
}

type View struct {
	State     State  `json:"state"`
	Principal int    `json:"principal,omitempty"`
	Message   string `json:"message,omitempty"`
	Retry     bool   `json:"retry,omitempty"`
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := View{State: m.state, Principal: m.principal}
	switch m.state {
	case Unauthenticated:
		v.Message = "Please log in to access the admin submissions dashboard."
	case Pending:
		v.Message = "Checking access..."
	case NonAdmin:
		v.Message = "You do not have permission to view this page. Only administrators can access submission data. " +
			"The first account to register becomes the administrator; ask an administrator to grant you access."
	case RoleError:
		v.Message = "We could not verify your access right now. Please try again."
		v.Retry = true
	}
	return v
}
