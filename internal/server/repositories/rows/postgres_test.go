package rows

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arrayConverter lets []string parameters through the way the pgx driver
// does, so ANY($1) queries can be matched.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(arrayConverter{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresRepository(db), mock, db
}

var ts = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func customer() *models.Customer {
	return &models.Customer{
		Revision: models.Revision{ID: "c1", Version: 2, UpdatedAt: ts},
		UserID:   "u1",
		Name:     "Acme",
	}
}

func TestUpsert_BuildsInsertOnConflict(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := regexp.QuoteMeta(`INSERT INTO customers (id, version, updated_at, deleted_at, user_id, name, phone, email, address, notes) ` +
		`VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, `)

	mock.ExpectExec(q).
		WithArgs("c1", int64(2), models.FormatTime(ts), nil, "u1", "Acme", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), customer()))
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO customers`).WillReturnError(errors.New("boom"))

	err := repo.Upsert(context.Background(), customer())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert customers c1")
}

func TestUpdate(t *testing.T) {
	q := regexp.QuoteMeta(`UPDATE customers SET version = $2, updated_at = $3, deleted_at = $4, user_id = $5, name = $6, ` +
		`phone = $7, email = $8, address = $9, notes = $10 WHERE id = $1`)

	t.Run("tombstone is written verbatim", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)

		c := customer()
		c.MarkDeleted(ts.Add(time.Minute))

		mock.ExpectExec(q).
			WithArgs("c1", int64(3), models.FormatTime(*c.DeletedAt), models.FormatTime(*c.DeletedAt),
				"u1", "Acme", "", "", "", "").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), c))
	})

	t.Run("missing row is not found", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)

		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), customer())
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("older version still overwrites", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)

		c := customer()
		c.Version = 1
		mock.ExpectExec(q).
			WithArgs("c1", int64(1), sqlmock.AnyArg(), nil, "u1", "Acme", "", "", "", "").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), c))
	})
}

func TestDelete(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM photos WHERE id = $1`)).
			WithArgs("p1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.Delete(context.Background(), models.TablePhotos, "p1"))
	})

	t.Run("missing row is fine", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM photos`).WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, repo.Delete(context.Background(), models.TablePhotos, "p1"))
	})

	t.Run("unknown table never reaches the db", func(t *testing.T) {
		repo, _, _ := newRepoWithMock(t)
		err := repo.Delete(context.Background(), models.Table("users; --"), "x")
		require.ErrorIs(t, err, common.ErrUnknownTable)
	})
}

func TestSelectByUser(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	deleted := models.FormatTime(ts.Add(time.Hour))
	rows := sqlmock.NewRows([]string{"id", "version", "updated_at", "deleted_at", "user_id", "name", "phone", "email", "address", "notes"}).
		AddRow("c1", int64(1), models.FormatTime(ts), nil, "u1", "Acme", "", "", "", "").
		AddRow("c2", int64(4), models.FormatTime(ts), deleted, "u1", "Gone", "555", "", "", "")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, version, updated_at, deleted_at, user_id, name, phone, email, address, notes FROM customers WHERE user_id = $1 ORDER BY updated_at, id`)).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.SelectByUser(context.Background(), models.TableCustomers, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0].(*models.Customer)
	assert.Equal(t, "Acme", first.Name)
	assert.False(t, first.IsDeleted())

	second := got[1].(*models.Customer)
	assert.True(t, second.IsDeleted(), "tombstones are part of the mirror")
	assert.Equal(t, int64(4), second.Version)
}

func TestSelectByEstimates(t *testing.T) {
	t.Run("any of ids", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)

		rows := sqlmock.NewRows([]string{"id", "version", "updated_at", "deleted_at", "estimate_id", "description",
			"quantity", "unit_price", "total", "catalog_item_id", "markup_excluded"}).
			AddRow("i1", int64(1), models.FormatTime(ts), nil, "e1", "Paint", 2.0, 5.0, 10.0, "k1", true)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM estimate_items WHERE estimate_id = ANY($1)`)).
			WithArgs([]string{"e1", "e2"}).
			WillReturnRows(rows)

		got, err := repo.SelectByEstimates(context.Background(), models.TableEstimateItems, []string{"e1", "e2"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		item := got[0].(*models.EstimateItem)
		assert.Equal(t, 10.0, item.Total)
		assert.True(t, item.MarkupExcluded)
		require.NotNil(t, item.CatalogItemID)
		assert.Equal(t, "k1", *item.CatalogItemID)
	})

	t.Run("no ids returns empty without a query", func(t *testing.T) {
		repo, _, _ := newRepoWithMock(t)
		got, err := repo.SelectByEstimates(context.Background(), models.TablePhotos, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("wrong scope", func(t *testing.T) {
		repo, _, _ := newRepoWithMock(t)
		_, err := repo.SelectByEstimates(context.Background(), models.TableCustomers, []string{"e1"})
		require.ErrorIs(t, err, common.ErrorValidation)
	})
}

func TestSelect_ScanError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "version", "updated_at", "deleted_at", "user_id", "name", "phone", "email", "address", "notes"}).
		AddRow("c1", int64(1), "yesterday", nil, "u1", "Acme", "", "", "", "")
	mock.ExpectQuery(`FROM customers`).WillReturnRows(rows)

	_, err := repo.SelectByUser(context.Background(), models.TableCustomers, "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan customers")
}
