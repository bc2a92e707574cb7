package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/errs"
)

// DoodlesRepository provides persistence helpers for doodle records.
type DoodlesRepository struct {
	pool PgxPool
}

const doodleColumns = `
    id,
    artist_id,
    public,
    anonymous,
    staging_pixels,
    staging_strokes,
    final_strokes,
    image_bytes,
    rating,
    rated_count,
    complete,
    created_at,
    updated_at
`

// DoodleCreateParams bundles the fields required to create a doodle.
type DoodleCreateParams struct {
	ID       string
	ArtistID *string
}

// GalleryPage is one page of gallery results plus the total matching count,
// so callers can compute page counts.
type GalleryPage struct {
	Items []domain.Doodle
	Total int
}

// Create inserts a fresh accumulating doodle with empty staging buffers.
func (r *DoodlesRepository) Create(ctx context.Context, params DoodleCreateParams) (domain.Doodle, error) {
	query := fmt.Sprintf(`
        INSERT INTO doodles (id, artist_id)
        VALUES ($1,$2)
        RETURNING %s
    `, doodleColumns)

	row := r.pool.QueryRow(ctx, query, params.ID, params.ArtistID)
	return scanDoodle(row)
}

// GetByID fetches a doodle by its identifier.
func (r *DoodlesRepository) GetByID(ctx context.Context, id string) (domain.Doodle, error) {
	query := fmt.Sprintf(`SELECT %s FROM doodles WHERE id = $1`, doodleColumns)
	doodle, err := scanDoodle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Doodle{}, errs.ErrNotFound
		}
		return domain.Doodle{}, err
	}
	return doodle, nil
}

// AppendPixels concatenates a decoded pixel chunk onto the staging pixel
// buffer. The append is a single UPDATE, so concurrent chunks cannot clobber
// each other at the record level.
func (r *DoodlesRepository) AppendPixels(ctx context.Context, id string, chunk []byte) error {
	const query = `
        UPDATE doodles
        SET staging_pixels = staging_pixels || $2, updated_at = now()
        WHERE id = $1 AND NOT complete
    `
	// A nil slice would reach Postgres as NULL and poison the concatenation.
	if chunk == nil {
		chunk = []byte{}
	}
	tag, err := r.pool.Exec(ctx, query, id, chunk)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.stagingGone(ctx, id)
	}
	return nil
}

// AppendStrokes concatenates a raw stroke chunk onto the staging stroke buffer.
func (r *DoodlesRepository) AppendStrokes(ctx context.Context, id string, chunk []byte) error {
	const query = `
        UPDATE doodles
        SET staging_strokes = staging_strokes || $2, updated_at = now()
        WHERE id = $1 AND NOT complete
    `
	if chunk == nil {
		chunk = []byte{}
	}
	tag, err := r.pool.Exec(ctx, query, id, chunk)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.stagingGone(ctx, id)
	}
	return nil
}

// FinalizeStrokes commits the staging stroke buffer, applies visibility, and
// clears all staging in one statement. The doodle only becomes complete when
// the committed buffer exceeds minBytes; an under-threshold doodle keeps
// accepting finalize calls, but its staging is already gone, so a retry
// commits an empty buffer (documented limitation, preserved on purpose).
func (r *DoodlesRepository) FinalizeStrokes(ctx context.Context, id string, vis domain.Visibility, minBytes int) (domain.Doodle, error) {
	query := fmt.Sprintf(`
        UPDATE doodles
        SET final_strokes = staging_strokes,
            complete = octet_length(staging_strokes) > $4,
            public = $2,
            anonymous = $3,
            staging_strokes = ''::bytea,
            staging_pixels = ''::bytea,
            updated_at = now()
        WHERE id = $1 AND NOT complete
        RETURNING %s
    `, doodleColumns)

	doodle, err := scanDoodle(r.pool.QueryRow(ctx, query, id, vis.Public, vis.Anonymous, minBytes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Doodle{}, r.stagingGone(ctx, id)
		}
		return domain.Doodle{}, err
	}
	return doodle, nil
}

// FinalizeImage stores the encoded raster, clears the pixel staging buffer,
// and marks the doodle complete.
func (r *DoodlesRepository) FinalizeImage(ctx context.Context, id string, image []byte) (domain.Doodle, error) {
	query := fmt.Sprintf(`
        UPDATE doodles
        SET image_bytes = $2,
            complete = TRUE,
            staging_pixels = ''::bytea,
            updated_at = now()
        WHERE id = $1 AND NOT complete
        RETURNING %s
    `, doodleColumns)

	doodle, err := scanDoodle(r.pool.QueryRow(ctx, query, id, image))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Doodle{}, r.stagingGone(ctx, id)
		}
		return domain.Doodle{}, err
	}
	return doodle, nil
}

// stagingGone disambiguates a zero-row staging mutation: the doodle either
// does not exist or has already been finalized.
func (r *DoodlesRepository) stagingGone(ctx context.Context, id string) error {
	var complete bool
	err := r.pool.QueryRow(ctx, `SELECT complete FROM doodles WHERE id = $1`, id).Scan(&complete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	if complete {
		return errs.ErrFinalized
	}
	return errs.ErrNotFound
}

const galleryFilter = `complete AND public`

// Latest returns one page of finished public doodles ordered by creation time.
func (r *DoodlesRepository) Latest(ctx context.Context, limit, offset int, descending bool) (GalleryPage, error) {
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	query := fmt.Sprintf(`
        SELECT %s FROM doodles
        WHERE %s
        ORDER BY created_at %s, id %s
        LIMIT $1 OFFSET $2
    `, doodleColumns, galleryFilter, direction, direction)
	count := fmt.Sprintf(`SELECT count(*) FROM doodles WHERE %s`, galleryFilter)

	return r.galleryPage(ctx, query, count, limit, offset)
}

// TopRated returns one page of finished public doodles, best rated first.
func (r *DoodlesRepository) TopRated(ctx context.Context, limit, offset int) (GalleryPage, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM doodles
        WHERE %s
        ORDER BY rating DESC, created_at DESC, id DESC
        LIMIT $1 OFFSET $2
    `, doodleColumns, galleryFilter)
	count := fmt.Sprintf(`SELECT count(*) FROM doodles WHERE %s`, galleryFilter)

	return r.galleryPage(ctx, query, count, limit, offset)
}

// ByArtist returns one page of an artist's finished doodles. Unless
// includeHidden is set (owner viewing their own work), non-public and
// anonymous doodles are filtered out.
func (r *DoodlesRepository) ByArtist(ctx context.Context, artistID string, includeHidden bool, limit, offset int) (GalleryPage, error) {
	const filter = `artist_id = $3 AND complete AND ($4 OR (public AND NOT anonymous))`
	query := fmt.Sprintf(`
        SELECT %s FROM doodles
        WHERE %s
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2
    `, doodleColumns, filter)
	count := `SELECT count(*) FROM doodles WHERE artist_id = $1 AND complete AND ($2 OR (public AND NOT anonymous))`

	var page GalleryPage
	if err := r.pool.QueryRow(ctx, count, artistID, includeHidden).Scan(&page.Total); err != nil {
		return GalleryPage{}, err
	}

	rows, err := r.pool.Query(ctx, query, limit, offset, artistID, includeHidden)
	if err != nil {
		return GalleryPage{}, err
	}
	defer rows.Close()

	page.Items, err = collectDoodles(rows)
	if err != nil {
		return GalleryPage{}, err
	}
	return page, nil
}

func (r *DoodlesRepository) galleryPage(ctx context.Context, query, count string, limit, offset int) (GalleryPage, error) {
	var page GalleryPage
	if err := r.pool.QueryRow(ctx, count).Scan(&page.Total); err != nil {
		return GalleryPage{}, err
	}

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return GalleryPage{}, err
	}
	defer rows.Close()

	page.Items, err = collectDoodles(rows)
	if err != nil {
		return GalleryPage{}, err
	}
	return page, nil
}

func collectDoodles(rows pgx.Rows) ([]domain.Doodle, error) {
	items := make([]domain.Doodle, 0)
	for rows.Next() {
		doodle, err := scanDoodle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, doodle)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDoodle(row pgx.Row) (domain.Doodle, error) {
	var doodle domain.Doodle
	err := row.Scan(
		&doodle.ID,
		&doodle.ArtistID,
		&doodle.Public,
		&doodle.Anonymous,
		&doodle.StagingPixels,
		&doodle.StagingStrokes,
		&doodle.FinalStrokes,
		&doodle.ImageBytes,
		&doodle.Rating,
		&doodle.RatedCount,
		&doodle.Complete,
		&doodle.CreatedAt,
		&doodle.UpdatedAt,
	)
	if err != nil {
		return domain.Doodle{}, err
	}
	return doodle, nil
}
