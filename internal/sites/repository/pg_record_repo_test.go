package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
)

func setupPGRepo(t *testing.T) (*PGRecordRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPGRecordRepository(db), mock, db
}

func TestPGRecordRepository_Save(t *testing.T) {
	repo, mock, _ := setupPGRepo(t)

	rec := testRecord("wind-farm-alpha", time.Now().UTC())

	mock.ExpectExec(`INSERT INTO site_projects`).
		WithArgs("wind-farm-alpha", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRecordRepository_Load(t *testing.T) {
	repo, mock, _ := setupPGRepo(t)

	t.Run("found", func(t *testing.T) {
		rec := testRecord("wind-farm-alpha", time.Now().UTC())
		data, err := json.Marshal(rec)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT data FROM site_projects`).
			WithArgs("wind-farm-alpha").
			WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data))

		got, err := repo.Load(context.Background(), "wind-farm-alpha")
		require.NoError(t, err)
		assert.Equal(t, "wind-farm-alpha", got.Name)
		require.NotNil(t, got.Coordinates)
		assert.Equal(t, 35.0675, got.Coordinates.Latitude)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT data FROM site_projects`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Load(context.Background(), "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRecordRepository_List(t *testing.T) {
	repo, mock, _ := setupPGRepo(t)

	a, err := json.Marshal(testRecord("site-a", time.Now().UTC()))
	require.NoError(t, err)
	b, err := json.Marshal(testRecord("site-b", time.Now().UTC()))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM site_projects ORDER BY created_at`).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(a).AddRow(b))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "site-a", records[0].Name)
	assert.Equal(t, "site-b", records[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRecordRepository_Delete(t *testing.T) {
	repo, mock, _ := setupPGRepo(t)

	mock.ExpectExec(`DELETE FROM site_projects`).
		WithArgs("wind-farm-alpha").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "wind-farm-alpha"))
	require.NoError(t, mock.ExpectationsWereMet())
}
