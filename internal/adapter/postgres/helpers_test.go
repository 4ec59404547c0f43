package postgres

import (
	"errors"
	"testing"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDBError(t *testing.T) {
	assert.NoError(t, dbError("op", nil))
	assert.ErrorIs(t, dbError("op", pgx.ErrNoRows), types.ErrNotFound)
	assert.ErrorIs(t, dbError("op", &pgconn.PgError{Code: "23505", ConstraintName: "tenants_name_key"}), types.ErrConflict)
	assert.ErrorIs(t, dbError("op", &pgconn.PgError{Code: "23503"}), types.ErrNotFound)
	assert.ErrorIs(t, dbError("op", errors.New("boom")), types.ErrDatabaseFailed)
}

func TestWhere(t *testing.T) {
	var w where
	assert.Empty(t, w.String())

	w.add("tenant_id = ?", "t")
	w.raw("NOT deleted")
	w.add("(name ILIKE ? OR email ILIKE ?)", "%a%")
	assert.Equal(t, "WHERE tenant_id = $1 AND NOT deleted AND (name ILIKE $2 OR email ILIKE $2)", w.String())

	f := models.NewFilters(3, 10, "-name", []string{"created_at", "-name"})
	assert.Equal(t, "ORDER BY name DESC, id ASC LIMIT $3 OFFSET $4", w.page(f))
	assert.Equal(t, []any{"t", "%a%", 10, 20}, w.args)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "r.id, r.name", prefixed("r", "id, name"))
}

func TestWhere_PageAs(t *testing.T) {
	var w where
	w.raw("NOT e.deleted")
	f := models.NewFilters(0, 0, "", models.EndpointSortSafelist)
	assert.Equal(t, "ORDER BY e.url_pattern ASC, e.id ASC LIMIT $1 OFFSET $2", w.pageAs("e", f))
}
