package service

import (
	"context"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/identity"
	"github.com/dudlr/dudlr/internal/repository"
)

// DefaultPageSize is the gallery page size when callers do not override it.
const DefaultPageSize = 5

const maxPageSize = 100

// GalleryService is the read side: listing and paging over finished doodles.
type GalleryService struct {
	doodles  DoodleStore
	artists  ArtistStore
	pageSize int
}

// NewGalleryService constructs the gallery with a default page size.
func NewGalleryService(doodles DoodleStore, artists ArtistStore, pageSize int) *GalleryService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &GalleryService{doodles: doodles, artists: artists, pageSize: pageSize}
}

// Latest returns a page of finished public doodles by creation time.
// Order "asc" is oldest-first; anything else is newest-first.
func (s *GalleryService) Latest(ctx context.Context, limit, offset int, order string) (repository.GalleryPage, error) {
	limit, offset = s.clampPage(limit, offset)
	return s.doodles.Latest(ctx, limit, offset, order != "asc")
}

// TopRated returns a page of finished public doodles, best rated first.
func (s *GalleryService) TopRated(ctx context.Context, limit, offset int) (repository.GalleryPage, error) {
	limit, offset = s.clampPage(limit, offset)
	return s.doodles.TopRated(ctx, limit, offset)
}

// ByArtist returns a page of one artist's finished doodles, resolved by
// display name. Owners see all of their own work; everyone else only sees
// public, non-anonymous doodles.
func (s *GalleryService) ByArtist(ctx context.Context, name string, viewer *identity.Identity, limit, offset int) (domain.Artist, repository.GalleryPage, error) {
	artist, err := s.artists.FindByName(ctx, name)
	if err != nil {
		return domain.Artist{}, repository.GalleryPage{}, err
	}

	includeHidden := viewer != nil && viewer.AccountRef == artist.AccountRef
	limit, offset = s.clampPage(limit, offset)
	page, err := s.doodles.ByArtist(ctx, artist.ID, includeHidden, limit, offset)
	if err != nil {
		return domain.Artist{}, repository.GalleryPage{}, err
	}
	return artist, page, nil
}

func (s *GalleryService) clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.pageSize
	} else if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
