package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/errs"
	"github.com/dudlr/dudlr/internal/identity"
	"github.com/dudlr/dudlr/internal/raster"
	"github.com/dudlr/dudlr/internal/repository"
)

// DoodleService drives the doodle lifecycle: create, incremental appends,
// finalization, and rating.
type DoodleService struct {
	doodles DoodleStore
	artists ArtistStore
	ratings RatingStore
	codec   raster.Codec
}

// NewDoodleService constructs the doodle aggregate service. A nil codec
// defaults to greyscale PNG.
func NewDoodleService(doodles DoodleStore, artists ArtistStore, ratings RatingStore, codec raster.Codec) *DoodleService {
	if codec == nil {
		codec = raster.GreyPNG{}
	}
	return &DoodleService{doodles: doodles, artists: artists, ratings: ratings, codec: codec}
}

// Create allocates a new accumulating doodle and returns it immediately so
// the client can start streaming strokes. A nil identity creates an
// ownerless doodle; whether anonymous creation is allowed is the caller's
// policy, not the library's.
func (s *DoodleService) Create(ctx context.Context, ident *identity.Identity) (domain.Doodle, error) {
	var artistID *string
	if ident != nil {
		artist, err := s.artists.GetOrCreate(ctx, repository.ArtistCreateParams{
			ID:              uuid.NewString(),
			ProvisionalName: provisionalName(ident),
			AccountRef:      ident.AccountRef,
		})
		if err != nil {
			return domain.Doodle{}, err
		}
		artistID = &artist.ID
	}
	return s.doodles.Create(ctx, repository.DoodleCreateParams{
		ID:       uuid.NewString(),
		ArtistID: artistID,
	})
}

// AppendPixels decodes a legacy comma-separated pixel chunk and appends it to
// the staging pixel buffer. Chunks accumulate; replaying a chunk doubles it.
func (s *DoodleService) AppendPixels(ctx context.Context, id string, payload []byte) error {
	chunk, err := decodePixelChunk(payload)
	if err != nil {
		return err
	}
	if len(chunk) == 0 {
		return nil
	}
	return s.doodles.AppendPixels(ctx, id, chunk)
}

// AppendStrokes appends a raw stroke chunk to the staging stroke buffer.
func (s *DoodleService) AppendStrokes(ctx context.Context, id string, chunk []byte) error {
	return s.doodles.AppendStrokes(ctx, id, chunk)
}

// FinalizeStrokes commits the staged stroke stream with the requested
// visibility. The doodle only counts as complete above the minimum content
// threshold.
func (s *DoodleService) FinalizeStrokes(ctx context.Context, id string, vis domain.Visibility) (domain.Doodle, error) {
	return s.doodles.FinalizeStrokes(ctx, id, vis, domain.MinFinalStrokeBytes)
}

// FinalizeRaster encodes the staged pixel buffer as a width x height
// greyscale image and completes the doodle. Dimensions are taken on faith:
// a mismatch against the buffer produces a garbled image, not an error.
func (s *DoodleService) FinalizeRaster(ctx context.Context, id string, width, height int) (domain.Doodle, error) {
	doodle, err := s.doodles.GetByID(ctx, id)
	if err != nil {
		return domain.Doodle{}, err
	}
	if doodle.Complete {
		return domain.Doodle{}, errs.ErrFinalized
	}
	image, err := s.codec.Encode(width, height, doodle.StagingPixels)
	if err != nil {
		return domain.Doodle{}, err
	}
	return s.doodles.FinalizeImage(ctx, id, image)
}

// Get fetches a doodle by id.
func (s *DoodleService) Get(ctx context.Context, id string) (domain.Doodle, error) {
	return s.doodles.GetByID(ctx, id)
}

// Strokes returns the committed stroke stream.
func (s *DoodleService) Strokes(ctx context.Context, id string) ([]byte, error) {
	doodle, err := s.doodles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return doodle.FinalStrokes, nil
}

// Image returns the stored raster for doodles finalized through the legacy
// pixel path. Doodles without one report not found.
func (s *DoodleService) Image(ctx context.Context, id string) ([]byte, error) {
	doodle, err := s.doodles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(doodle.ImageBytes) == 0 {
		return nil, fmt.Errorf("%w: doodle has no image", errs.ErrNotFound)
	}
	return doodle.ImageBytes, nil
}

// RenderImage rasterizes the committed stroke stream to PNG on demand, the
// derived export for doodles finalized through the stroke path.
func (s *DoodleService) RenderImage(ctx context.Context, id string) ([]byte, error) {
	doodle, err := s.doodles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(doodle.FinalStrokes) == 0 {
		return nil, fmt.Errorf("%w: doodle has no committed strokes", errs.ErrNotFound)
	}
	ops, err := raster.ParseStrokes(doodle.FinalStrokes)
	if err != nil {
		return nil, err
	}
	return raster.RenderPNG(ops, raster.CanvasWidth, raster.CanvasHeight)
}

// Rate folds one rating into the doodle's running aggregate. Requires an
// authenticated rater who is not the doodle's own artist. Returns the updated
// doodle and whether this was the rater's first rating for it.
func (s *DoodleService) Rate(ctx context.Context, id string, value int, ident *identity.Identity) (domain.Doodle, bool, error) {
	if ident == nil {
		return domain.Doodle{}, false, errs.ErrNotLoggedIn
	}
	if !domain.ValidRating(value) {
		return domain.Doodle{}, false, fmt.Errorf("%w: rating must be between 0 and %d", errs.ErrValidation, domain.MaxRating)
	}
	return s.ratings.Rate(ctx, id, ident.AccountRef, value)
}

// decodePixelChunk parses the legacy wire format: a comma-separated list of
// integers, each one byte value in [0,255].
func decodePixelChunk(payload []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, nil
	}
	tokens := strings.Split(trimmed, ",")
	chunk := make([]byte, 0, len(tokens))
	for _, token := range tokens {
		value, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || value < 0 || value > 255 {
			return nil, fmt.Errorf("%w: pixel token %q", errs.ErrInvalidEncoding, token)
		}
		chunk = append(chunk, byte(value))
	}
	return chunk, nil
}
