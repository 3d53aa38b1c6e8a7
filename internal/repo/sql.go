package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// SQLRepository implements Repository on database/sql. Queries are written
// with ? placeholders and rebound for Postgres.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

func (r *SQLRepository) q(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

const leadColumns = "id, kind, status, name, company_name, phone_number, email, location, details, form_id, export_status, export_error, export_token, created_at"

func (r *SQLRepository) CreateLead(ctx context.Context, l Lead) (int64, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	var formID sql.NullString
	if l.FormID != "" {
		formID = sql.NullString{String: l.FormID, Valid: true}
	}

	var id int64
	query := r.q(`INSERT INTO leads (kind, status, name, company_name, phone_number, email, location, details, form_id, export_status, export_error, export_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowContext(ctx, query,
		string(l.Kind), l.Status, l.Name, l.CompanyName, l.PhoneNumber, l.Email, l.Location, l.Details,
		formID, l.ExportStatus, l.ExportError, l.ExportToken, l.CreatedAt.UnixNano(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert lead: %w", err)
	}
	return id, nil
}

func (r *SQLRepository) GetLead(ctx context.Context, id int64) (Lead, error) {
	row := r.db.QueryRowContext(ctx, r.q("SELECT "+leadColumns+" FROM leads WHERE id = ?"), id)
	return scanLead(row.Scan)
}

func (r *SQLRepository) LeadByFormID(ctx context.Context, formID string) (Lead, error) {
	row := r.db.QueryRowContext(ctx, r.q("SELECT "+leadColumns+" FROM leads WHERE form_id = ?"), formID)
	return scanLead(row.Scan)
}

// ListLeads returns leads of one kind, newest first.
func (r *SQLRepository) ListLeads(ctx context.Context, kind Kind) ([]Lead, error) {
	rows, err := r.db.QueryContext(ctx, r.q("SELECT "+leadColumns+" FROM leads WHERE kind = ? ORDER BY id DESC"), string(kind))
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := []Lead{}
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLRepository) UpdateLeadStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, r.q("UPDATE leads SET status = ? WHERE id = ?"), status, id)
	return affected(res, err)
}

func (r *SQLRepository) UpdateExport(ctx context.Context, id int64, status, errMsg string) error {
	res, err := r.db.ExecContext(ctx, r.q("UPDATE leads SET export_status = ?, export_error = ? WHERE id = ?"), status, errMsg, id)
	return affected(res, err)
}

func scanLead(scan func(dest ...any) error) (Lead, error) {
	var (
		l       Lead
		kind    string
		formID  sql.NullString
		created int64
	)
	err := scan(&l.ID, &kind, &l.Status, &l.Name, &l.CompanyName, &l.PhoneNumber, &l.Email, &l.Location,
		&l.Details, &formID, &l.ExportStatus, &l.ExportError, &l.ExportToken, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("scan lead: %w", err)
	}
	l.Kind = Kind(kind)
	l.FormID = formID.String
	l.CreatedAt = time.Unix(0, created).UTC()
	return l, nil
}

func (r *SQLRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := r.q("INSERT INTO users (login, email, password, description, created_at) VALUES (?, ?, ?, '', ?) RETURNING id")
	err := r.db.QueryRowContext(ctx, query, login, email, password, time.Now().UnixNano()).Scan(&id)
	return id, err
}

func (r *SQLRepository) GetBylogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	err := r.db.QueryRowContext(ctx, r.q("SELECT id, password FROM users WHERE login = ?"), login).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", err
	}
	return id, hash, nil
}

func (r *SQLRepository) GetProfileByID(ctx context.Context, id int) (Profile, error) {
	var (
		p       Profile
		role    string
		created int64
	)
	query := r.q(`SELECT u.id, u.login, u.email, u.description, COALESCE(ur.role, 'guest'), u.created_at
		FROM users u LEFT JOIN user_roles ur ON ur.user_id = u.id WHERE u.id = ?`)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Login, &p.Email, &p.Description, &role, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.Role = Role(role)
	p.CreatedAt = time.Unix(0, created).UTC()
	return p, nil
}

// UpdateProfile changes the login and description; an empty login keeps the current one.
func (r *SQLRepository) UpdateProfile(ctx context.Context, id int, login, description string) (Profile, error) {
	res, err := r.db.ExecContext(ctx,
		r.q("UPDATE users SET login = CASE WHEN ? = '' THEN login ELSE ? END, description = ? WHERE id = ?"),
		login, login, description, id)
	if err := affected(res, err); err != nil {
		return Profile{}, err
	}
	return r.GetProfileByID(ctx, id)
}

// AssignInitialRole makes the first account an admin and every later one a user.
// An existing role is left untouched.
func (r *SQLRepository) AssignInitialRole(ctx context.Context, userID int) (Role, error) {
	query := r.q(`INSERT INTO user_roles (user_id, role)
		SELECT CAST(? AS INTEGER), CASE WHEN EXISTS (SELECT 1 FROM user_roles WHERE role = 'admin') THEN 'user' ELSE 'admin' END
		WHERE true
		ON CONFLICT (user_id) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return "", fmt.Errorf("assign role: %w", err)
	}
	return r.GetRole(ctx, userID)
}

// GetRole returns RoleGuest for identities without a role row.
func (r *SQLRepository) GetRole(ctx context.Context, userID int) (Role, error) {
	var role string
	err := r.db.QueryRowContext(ctx, r.q("SELECT role FROM user_roles WHERE user_id = ?"), userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoleGuest, nil
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return Role(role), nil
}

func (r *SQLRepository) SetRole(ctx context.Context, userID int, role Role) error {
	query := r.q("INSERT INTO user_roles (user_id, role) VALUES (?, ?) ON CONFLICT (user_id) DO UPDATE SET role = excluded.role")
	if _, err := r.db.ExecContext(ctx, query, userID, string(role)); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
