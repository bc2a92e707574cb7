package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/dudlr/dudlr/internal/errs"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewWithPool(mock), mock
}

func doodleRows(id string, rating, ratedCount int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "artist_id", "public", "anonymous",
		"staging_pixels", "staging_strokes", "final_strokes", "image_bytes",
		"rating", "rated_count", "complete", "created_at", "updated_at",
	}).AddRow(id, nil, true, false, []byte{}, []byte{}, []byte("m010010f"), []byte(nil), rating, ratedCount, true, now, now)
}

func TestRatingsRepository_Rate_FirstRatingTx(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT d\.rating, d\.rated_count, a\.account_ref`).
		WithArgs("doodle-1").
		WillReturnRows(pgxmock.NewRows([]string{"rating", "rated_count", "account_ref"}).
			AddRow(40, 1, nil))
	mock.ExpectQuery(`SELECT rating FROM ratings WHERE doodle_id = \$1 AND rater_id = \$2`).
		WithArgs("doodle-1", "rater-1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO ratings \(doodle_id, rater_id, rating\) VALUES \(\$1,\$2,\$3\)`).
		WithArgs("doodle-1", "rater-1", 80).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`UPDATE doodles`).
		WithArgs("doodle-1", 60, 2).
		WillReturnRows(doodleRows("doodle-1", 60, 2))
	mock.ExpectCommit()

	doodle, created, err := repo.Ratings.Rate(context.Background(), "doodle-1", "rater-1", 80)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, 60, doodle.Rating)
	require.Equal(t, 2, doodle.RatedCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingsRepository_Rate_RevisionTx(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT d\.rating, d\.rated_count, a\.account_ref`).
		WithArgs("doodle-1").
		WillReturnRows(pgxmock.NewRows([]string{"rating", "rated_count", "account_ref"}).
			AddRow(60, 2, nil))
	mock.ExpectQuery(`SELECT rating FROM ratings WHERE doodle_id = \$1 AND rater_id = \$2`).
		WithArgs("doodle-1", "rater-1").
		WillReturnRows(pgxmock.NewRows([]string{"rating"}).AddRow(40))
	mock.ExpectExec(`UPDATE ratings SET rating = \$3, updated_at = now\(\)`).
		WithArgs("doodle-1", "rater-1", 100).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`UPDATE doodles`).
		WithArgs("doodle-1", 90, 2).
		WillReturnRows(doodleRows("doodle-1", 90, 2))
	mock.ExpectCommit()

	doodle, created, err := repo.Ratings.Rate(context.Background(), "doodle-1", "rater-1", 100)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 90, doodle.Rating)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingsRepository_Rate_OwnerRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	owner := "owner-account"
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT d\.rating, d\.rated_count, a\.account_ref`).
		WithArgs("doodle-1").
		WillReturnRows(pgxmock.NewRows([]string{"rating", "rated_count", "account_ref"}).
			AddRow(0, 0, &owner))
	mock.ExpectRollback()

	_, _, err := repo.Ratings.Rate(context.Background(), "doodle-1", owner, 50)
	require.ErrorIs(t, err, errs.ErrConflictOfInterest)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingsRepository_Rate_MissingDoodleRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT d\.rating, d\.rated_count, a\.account_ref`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.Ratings.Rate(context.Background(), "missing", "rater-1", 50)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
