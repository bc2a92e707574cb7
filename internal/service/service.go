// Package service holds the doodle-store business logic: artist provisioning
// and rename policy, the incremental upload / finalize / rating pipeline, and
// gallery paging. Transports stay thin; persistence stays behind the store
// interfaces below.
package service

import (
	"context"
	"strings"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/identity"
	"github.com/dudlr/dudlr/internal/repository"
)

// ArtistStore is the persistence surface the artist registry needs.
type ArtistStore interface {
	GetOrCreate(ctx context.Context, params repository.ArtistCreateParams) (domain.Artist, error)
	FindByID(ctx context.Context, id string) (domain.Artist, error)
	FindByName(ctx context.Context, name string) (domain.Artist, error)
	FindByAccount(ctx context.Context, accountRef string) (domain.Artist, error)
	Rename(ctx context.Context, accountRef, newName string) (domain.Artist, error)
}

// DoodleStore is the persistence surface the doodle aggregate and gallery need.
type DoodleStore interface {
	Create(ctx context.Context, params repository.DoodleCreateParams) (domain.Doodle, error)
	GetByID(ctx context.Context, id string) (domain.Doodle, error)
	AppendPixels(ctx context.Context, id string, chunk []byte) error
	AppendStrokes(ctx context.Context, id string, chunk []byte) error
	FinalizeStrokes(ctx context.Context, id string, vis domain.Visibility, minBytes int) (domain.Doodle, error)
	FinalizeImage(ctx context.Context, id string, image []byte) (domain.Doodle, error)
	Latest(ctx context.Context, limit, offset int, descending bool) (repository.GalleryPage, error)
	TopRated(ctx context.Context, limit, offset int) (repository.GalleryPage, error)
	ByArtist(ctx context.Context, artistID string, includeHidden bool, limit, offset int) (repository.GalleryPage, error)
}

// RatingStore is the persistence surface for the rating fold.
type RatingStore interface {
	Rate(ctx context.Context, doodleID, raterID string, value int) (domain.Doodle, bool, error)
}

// provisionalName derives the auto-assigned display name for a fresh artist
// from the identity provider's hint, falling back to an account-ref tag.
func provisionalName(ident *identity.Identity) string {
	if hint, err := domain.NormalizeDisplayName(ident.NameHint); err == nil {
		return hint
	}
	ref := ident.AccountRef
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return "dudlr-" + strings.ToLower(ref)
}
