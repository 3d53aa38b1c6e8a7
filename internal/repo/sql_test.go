package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	db, err := Open(SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db, SQLite))
	return New(db, SQLite)
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{dialect: Postgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.q("UPDATE t SET a = ? WHERE id = ?"))

	lite := &SQLRepository{dialect: SQLite}
	assert.Equal(t, "SELECT ?", lite.q("SELECT ?"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(SQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, SQLite))
	require.NoError(t, Migrate(db, SQLite))
}

func TestLeadsRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	created := time.Date(2026, 2, 11, 15, 45, 0, 0, time.UTC)

	id, err := r.CreateLead(ctx, Lead{
		Kind:         KindPartner,
		Name:         "Ravi",
		CompanyName:  "Sun Co",
		PhoneNumber:  "9999999999",
		Email:        "ravi@example.com",
		Location:     "Pune",
		Details:      "Installer network",
		FormID:       "form-1",
		ExportStatus: ExportPending,
		ExportToken:  "tok",
		CreatedAt:    created,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	l, err := r.GetLead(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, KindPartner, l.Kind)
	assert.Equal(t, StatusNew, l.Status)
	assert.Equal(t, "Sun Co", l.CompanyName)
	assert.Equal(t, "form-1", l.FormID)
	assert.Equal(t, "tok", l.ExportToken)
	assert.True(t, created.Equal(l.CreatedAt))

	byForm, err := r.LeadByFormID(ctx, "form-1")
	require.NoError(t, err)
	assert.Equal(t, id, byForm.ID)

	require.NoError(t, r.UpdateLeadStatus(ctx, id, "contacted"))
	require.NoError(t, r.UpdateExport(ctx, id, ExportFailed, "HTTP 500: Internal Server Error"))
	l, err = r.GetLead(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "contacted", l.Status)
	assert.Equal(t, ExportFailed, l.ExportStatus)
	assert.Equal(t, "HTTP 500: Internal Server Error", l.ExportError)
}

func TestLeadsWithoutFormIDDoNotCollide(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	for i := 0; i < 2; i++ {
		_, err := r.CreateLead(ctx, Lead{Kind: KindAMC, Name: "n", PhoneNumber: "p", Email: "e", Location: "l", Details: "d"})
		require.NoError(t, err)
	}
	leads, err := r.ListLeads(ctx, KindAMC)
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}

func TestListLeadsNewestFirstPerKind(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	var ids []int64
	for _, k := range []Kind{KindConsultancy, KindAMC, KindConsultancy, KindConsultancy} {
		id, err := r.CreateLead(ctx, Lead{Kind: k, Name: "n", PhoneNumber: "p", Email: "e", Location: "l", Details: "d"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	leads, err := r.ListLeads(ctx, KindConsultancy)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, []int64{ids[3], ids[2], ids[0]}, []int64{leads[0].ID, leads[1].ID, leads[2].ID})

	partners, err := r.ListLeads(ctx, KindPartner)
	require.NoError(t, err)
	assert.NotNil(t, partners)
	assert.Empty(t, partners)
}

func TestLeadNotFound(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	_, err := r.GetLead(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.LeadByFormID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.UpdateLeadStatus(ctx, 42, "x"), ErrNotFound)
}

func TestUsersAndRoles(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	first, err := r.CreateUser(ctx, "owner", "owner@example.com", "hash1")
	require.NoError(t, err)
	second, err := r.CreateUser(ctx, "visitor", "visitor@example.com", "hash2")
	require.NoError(t, err)

	_, err = r.CreateUser(ctx, "owner", "dup@example.com", "hash3")
	assert.Error(t, err)

	role, err := r.GetRole(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, RoleGuest, role)

	role, err = r.AssignInitialRole(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = r.AssignInitialRole(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	// assigning again keeps the existing role
	role, err = r.AssignInitialRole(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	require.NoError(t, r.SetRole(ctx, second, RoleAdmin))
	role, err = r.GetRole(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	id, hash, err := r.GetBylogin(ctx, "visitor")
	require.NoError(t, err)
	assert.Equal(t, second, id)
	assert.Equal(t, "hash2", hash)

	_, _, err = r.GetBylogin(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	id, err := r.CreateUser(ctx, "asha", "asha@example.com", "hash")
	require.NoError(t, err)

	p, err := r.GetProfileByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "asha", p.Login)
	assert.Equal(t, RoleGuest, p.Role)

	p, err = r.UpdateProfile(ctx, id, "", "Rooftop owner")
	require.NoError(t, err)
	assert.Equal(t, "asha", p.Login)
	assert.Equal(t, "Rooftop owner", p.Description)

	p, err = r.UpdateProfile(ctx, id, "asha.k", "Rooftop owner")
	require.NoError(t, err)
	assert.Equal(t, "asha.k", p.Login)

	_, err = r.GetProfileByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.UpdateProfile(ctx, 999, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParse(t *testing.T) {
	k, ok := ParseKind("amc")
	assert.True(t, ok)
	assert.Equal(t, KindAMC, k)
	_, ok = ParseKind("careers")
	assert.False(t, ok)

	role, ok := ParseRole("user")
	assert.True(t, ok)
	assert.Equal(t, RoleUser, role)
	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestNormalizeStatus(t *testing.T) {
	s, ok := NormalizeStatus("  Contacted ")
	assert.True(t, ok)
	assert.Equal(t, "contacted", s)

	_, ok = NormalizeStatus("   ")
	assert.False(t, ok)

	_, ok = NormalizeStatus(strings.Repeat("x", MaxStatusLen+1))
	assert.False(t, ok)

	s, ok = NormalizeStatus(strings.Repeat("x", MaxStatusLen))
	assert.True(t, ok)
	assert.Len(t, s, MaxStatusLen)
}
