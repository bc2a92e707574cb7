package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/errs"
)

// ArtistsRepository provides persistence helpers for artist entities.
type ArtistsRepository struct {
	pool PgxPool
}

const artistColumns = `
    id,
    display_name,
    provisional_name,
    account_ref,
    created_at,
    updated_at
`

// ArtistCreateParams bundles the fields required to provision an artist.
type ArtistCreateParams struct {
	ID              string
	ProvisionalName string
	AccountRef      string
}

// GetOrCreate looks the artist up by external account ref, inserting a fresh
// record with the provisional name on first access. The no-op conflict update
// makes the statement return the existing row instead of zero rows.
func (r *ArtistsRepository) GetOrCreate(ctx context.Context, params ArtistCreateParams) (domain.Artist, error) {
	query := fmt.Sprintf(`
        INSERT INTO artists (id, display_name, provisional_name, account_ref)
        VALUES ($1,$2,$2,$3)
        ON CONFLICT (account_ref) DO UPDATE SET account_ref = EXCLUDED.account_ref
        RETURNING %s
    `, artistColumns)

	row := r.pool.QueryRow(ctx, query, params.ID, params.ProvisionalName, params.AccountRef)
	return scanArtist(row)
}

// FindByID fetches an artist by identifier.
func (r *ArtistsRepository) FindByID(ctx context.Context, id string) (domain.Artist, error) {
	query := fmt.Sprintf(`SELECT %s FROM artists WHERE id = $1`, artistColumns)
	artist, err := scanArtist(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Artist{}, errs.ErrNotFound
		}
		return domain.Artist{}, err
	}
	return artist, nil
}

// FindByName fetches the oldest artist holding a display name. Provisional
// names may collide, so oldest-wins keeps lookups deterministic.
func (r *ArtistsRepository) FindByName(ctx context.Context, name string) (domain.Artist, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM artists WHERE display_name = $1 ORDER BY created_at, id LIMIT 1
    `, artistColumns)
	artist, err := scanArtist(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Artist{}, errs.ErrNotFound
		}
		return domain.Artist{}, err
	}
	return artist, nil
}

// FindByAccount fetches an artist by external account ref.
func (r *ArtistsRepository) FindByAccount(ctx context.Context, accountRef string) (domain.Artist, error) {
	query := fmt.Sprintf(`SELECT %s FROM artists WHERE account_ref = $1`, artistColumns)
	artist, err := scanArtist(r.pool.QueryRow(ctx, query, accountRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Artist{}, errs.ErrNotFound
		}
		return domain.Artist{}, err
	}
	return artist, nil
}

// Rename applies the one-shot display-name change. The artist row is locked
// so the frozen check and the uniqueness check stay consistent with the
// update.
func (r *ArtistsRepository) Rename(ctx context.Context, accountRef, newName string) (artist domain.Artist, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Artist{}, err
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

	query := fmt.Sprintf(`SELECT %s FROM artists WHERE account_ref = $1 FOR UPDATE`, artistColumns)
	artist, err = scanArtist(tx.QueryRow(ctx, query, accountRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Artist{}, errs.ErrNotFound
		}
		return domain.Artist{}, err
	}

	if artist.NameFrozen() {
		return domain.Artist{}, errs.ErrNameFrozen
	}

	var taken bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM artists WHERE display_name = $1 AND id <> $2)`,
		newName, artist.ID,
	).Scan(&taken)
	if err != nil {
		return domain.Artist{}, err
	}
	if taken {
		return domain.Artist{}, errs.ErrNameTaken
	}

	update := fmt.Sprintf(`
        UPDATE artists SET display_name = $2, updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, artistColumns)
	artist, err = scanArtist(tx.QueryRow(ctx, update, artist.ID, newName))
	if err != nil {
		return domain.Artist{}, err
	}
	return artist, nil
}

func scanArtist(row pgx.Row) (domain.Artist, error) {
	var artist domain.Artist
	err := row.Scan(
		&artist.ID,
		&artist.DisplayName,
		&artist.ProvisionalName,
		&artist.AccountRef,
		&artist.CreatedAt,
		&artist.UpdatedAt,
	)
	if err != nil {
		return domain.Artist{}, err
	}
	return artist, nil
}
