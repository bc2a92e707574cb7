package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/errs"
)

// RatingsRepository folds ratings into the doodle aggregate and maintains the
// per-(doodle, rater) ledger that makes a rater's second rating a revision.
type RatingsRepository struct {
	pool PgxPool
}

// Rate applies one rating inside a single transaction. The doodle row is
// locked for the duration of the fold, so two simultaneous first-time
// ratings cannot both read the same rated_count and lose an increment.
// Returns the updated doodle and whether a new ledger entry was created.
func (r *RatingsRepository) Rate(ctx context.Context, doodleID, raterID string, value int) (doodle domain.Doodle, created bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Doodle{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const lock = `
        SELECT d.rating, d.rated_count, a.account_ref
        FROM doodles d
        LEFT JOIN artists a ON a.id = d.artist_id
        WHERE d.id = $1
        FOR UPDATE OF d
    `
	var (
		rating     int
		ratedCount int
		owner      *string
	)
	if err = tx.QueryRow(ctx, lock, doodleID).Scan(&rating, &ratedCount, &owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errs.ErrNotFound
		}
		return domain.Doodle{}, false, err
	}

	if owner != nil && *owner == raterID {
		err = errs.ErrConflictOfInterest
		return domain.Doodle{}, false, err
	}

	var oldValue int
	scanErr := tx.QueryRow(ctx,
		`SELECT rating FROM ratings WHERE doodle_id = $1 AND rater_id = $2`,
		doodleID, raterID,
	).Scan(&oldValue)

	switch {
	case scanErr == nil:
		rating = domain.FoldRevisedRating(rating, ratedCount, oldValue, value)
		_, err = tx.Exec(ctx,
			`UPDATE ratings SET rating = $3, updated_at = now() WHERE doodle_id = $1 AND rater_id = $2`,
			doodleID, raterID, value,
		)
	case errors.Is(scanErr, pgx.ErrNoRows):
		created = true
		rating, ratedCount = domain.FoldNewRating(rating, ratedCount, value)
		_, err = tx.Exec(ctx,
			`INSERT INTO ratings (doodle_id, rater_id, rating) VALUES ($1,$2,$3)`,
			doodleID, raterID, value,
		)
	default:
		err = scanErr
	}
	if err != nil {
		return domain.Doodle{}, false, err
	}

	update := fmt.Sprintf(`
        UPDATE doodles
        SET rating = $2, rated_count = $3, updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, doodleColumns)
	doodle, err = scanDoodle(tx.QueryRow(ctx, update, doodleID, rating, ratedCount))
	if err != nil {
		return domain.Doodle{}, false, err
	}
	return doodle, created, nil
}

// Get retrieves the ledger entry for a specific rater/doodle combination.
func (r *RatingsRepository) Get(ctx context.Context, doodleID, raterID string) (domain.RatingEntry, error) {
	const query = `
        SELECT doodle_id, rater_id, rating, created_at, updated_at
        FROM ratings
        WHERE doodle_id = $1 AND rater_id = $2
    `
	var entry domain.RatingEntry
	err := r.pool.QueryRow(ctx, query, doodleID, raterID).Scan(
		&entry.DoodleID,
		&entry.RaterID,
		&entry.Value,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RatingEntry{}, errs.ErrNotFound
		}
		return domain.RatingEntry{}, err
	}
	return entry, nil
}
