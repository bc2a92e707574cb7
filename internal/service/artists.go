package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/errs"
	"github.com/dudlr/dudlr/internal/identity"
	"github.com/dudlr/dudlr/internal/repository"
)

// ArtistService implements the artist registry: upsert-on-read provisioning
// and the rename-once policy.
type ArtistService struct {
	store ArtistStore
}

// NewArtistService constructs the artist registry.
func NewArtistService(store ArtistStore) *ArtistService {
	return &ArtistService{store: store}
}

// GetOrCreate resolves the artist for an authenticated identity, provisioning
// a record with an auto-assigned display name on first access.
func (s *ArtistService) GetOrCreate(ctx context.Context, ident *identity.Identity) (domain.Artist, error) {
	if ident == nil {
		return domain.Artist{}, errs.ErrNotLoggedIn
	}
	return s.store.GetOrCreate(ctx, repository.ArtistCreateParams{
		ID:              uuid.NewString(),
		ProvisionalName: provisionalName(ident),
		AccountRef:      ident.AccountRef,
	})
}

// Rename applies the caller's one permitted display-name change. The name is
// normalized and length-checked before the uniqueness and frozen checks run.
func (s *ArtistService) Rename(ctx context.Context, ident *identity.Identity, newName string) (domain.Artist, error) {
	if ident == nil {
		return domain.Artist{}, errs.ErrNotLoggedIn
	}
	normalized, err := domain.NormalizeDisplayName(newName)
	if err != nil {
		return domain.Artist{}, err
	}
	return s.store.Rename(ctx, ident.AccountRef, normalized)
}

// FindByName looks an artist up by display name.
func (s *ArtistService) FindByName(ctx context.Context, name string) (domain.Artist, error) {
	return s.store.FindByName(ctx, name)
}

// FindByID looks an artist up by identifier.
func (s *ArtistService) FindByID(ctx context.Context, id string) (domain.Artist, error) {
	return s.store.FindByID(ctx, id)
}
