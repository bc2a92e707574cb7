package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/errs"
	"github.com/dudlr/dudlr/internal/repository"
)

// fakeArtists is an in-memory ArtistStore keyed by account ref.
type fakeArtists struct {
	artists map[string]domain.Artist
}

func newFakeArtists() *fakeArtists {
	return &fakeArtists{artists: map[string]domain.Artist{}}
}

func (f *fakeArtists) GetOrCreate(_ context.Context, params repository.ArtistCreateParams) (domain.Artist, error) {
	if artist, ok := f.artists[params.AccountRef]; ok {
		return artist, nil
	}
	artist := domain.Artist{
		ID:              params.ID,
		DisplayName:     params.ProvisionalName,
		ProvisionalName: params.ProvisionalName,
		AccountRef:      params.AccountRef,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.artists[params.AccountRef] = artist
	return artist, nil
}

func (f *fakeArtists) FindByID(_ context.Context, id string) (domain.Artist, error) {
	for _, artist := range f.artists {
		if artist.ID == id {
			return artist, nil
		}
	}
	return domain.Artist{}, errs.ErrNotFound
}

func (f *fakeArtists) FindByName(_ context.Context, name string) (domain.Artist, error) {
	var found *domain.Artist
	for _, artist := range f.artists {
		artist := artist
		if artist.DisplayName != name {
			continue
		}
		if found == nil || artist.CreatedAt.Before(found.CreatedAt) {
			found = &artist
		}
	}
	if found == nil {
		return domain.Artist{}, errs.ErrNotFound
	}
	return *found, nil
}

func (f *fakeArtists) FindByAccount(_ context.Context, accountRef string) (domain.Artist, error) {
	if artist, ok := f.artists[accountRef]; ok {
		return artist, nil
	}
	return domain.Artist{}, errs.ErrNotFound
}

func (f *fakeArtists) Rename(_ context.Context, accountRef, newName string) (domain.Artist, error) {
	artist, ok := f.artists[accountRef]
	if !ok {
		return domain.Artist{}, errs.ErrNotFound
	}
	if artist.NameFrozen() {
		return domain.Artist{}, errs.ErrNameFrozen
	}
	for ref, other := range f.artists {
		if ref != accountRef && other.DisplayName == newName {
			return domain.Artist{}, errs.ErrNameTaken
		}
	}
	artist.DisplayName = newName
	f.artists[accountRef] = artist
	return artist, nil
}

// fakeDoodles is an in-memory DoodleStore mirroring the repository semantics
// the services rely on.
type fakeDoodles struct {
	doodles map[string]*domain.Doodle
	order   []string

	lastByArtist struct {
		artistID      string
		includeHidden bool
		limit, offset int
	}
	lastLatest struct {
		limit, offset int
		descending    bool
	}
}

func newFakeDoodles() *fakeDoodles {
	return &fakeDoodles{doodles: map[string]*domain.Doodle{}}
}

func (f *fakeDoodles) Create(_ context.Context, params repository.DoodleCreateParams) (domain.Doodle, error) {
	doodle := &domain.Doodle{
		ID:        params.ID,
		ArtistID:  params.ArtistID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.doodles[params.ID] = doodle
	f.order = append(f.order, params.ID)
	return *doodle, nil
}

func (f *fakeDoodles) GetByID(_ context.Context, id string) (domain.Doodle, error) {
	doodle, ok := f.doodles[id]
	if !ok {
		return domain.Doodle{}, errs.ErrNotFound
	}
	return *doodle, nil
}

func (f *fakeDoodles) AppendPixels(_ context.Context, id string, chunk []byte) error {
	doodle, ok := f.doodles[id]
	if !ok {
		return errs.ErrNotFound
	}
	if doodle.Complete {
		return errs.ErrFinalized
	}
	doodle.StagingPixels = append(doodle.StagingPixels, chunk...)
	return nil
}

func (f *fakeDoodles) AppendStrokes(_ context.Context, id string, chunk []byte) error {
	doodle, ok := f.doodles[id]
	if !ok {
		return errs.ErrNotFound
	}
	if doodle.Complete {
		return errs.ErrFinalized
	}
	doodle.StagingStrokes = append(doodle.StagingStrokes, chunk...)
	return nil
}

func (f *fakeDoodles) FinalizeStrokes(_ context.Context, id string, vis domain.Visibility, minBytes int) (domain.Doodle, error) {
	doodle, ok := f.doodles[id]
	if !ok {
		return domain.Doodle{}, errs.ErrNotFound
	}
	if doodle.Complete {
		return domain.Doodle{}, errs.ErrFinalized
	}
	doodle.FinalStrokes = doodle.StagingStrokes
	doodle.Complete = len(doodle.FinalStrokes) > minBytes
	doodle.Public = vis.Public
	doodle.Anonymous = vis.Anonymous
	doodle.StagingStrokes = nil
	doodle.StagingPixels = nil
	return *doodle, nil
}

func (f *fakeDoodles) FinalizeImage(_ context.Context, id string, image []byte) (domain.Doodle, error) {
	doodle, ok := f.doodles[id]
	if !ok {
		return domain.Doodle{}, errs.ErrNotFound
	}
	if doodle.Complete {
		return domain.Doodle{}, errs.ErrFinalized
	}
	doodle.ImageBytes = image
	doodle.Complete = true
	doodle.StagingPixels = nil
	return *doodle, nil
}

func (f *fakeDoodles) Latest(_ context.Context, limit, offset int, descending bool) (repository.GalleryPage, error) {
	f.lastLatest.limit = limit
	f.lastLatest.offset = offset
	f.lastLatest.descending = descending
	return repository.GalleryPage{}, nil
}

func (f *fakeDoodles) TopRated(_ context.Context, limit, offset int) (repository.GalleryPage, error) {
	f.lastLatest.limit = limit
	f.lastLatest.offset = offset
	return repository.GalleryPage{}, nil
}

func (f *fakeDoodles) ByArtist(_ context.Context, artistID string, includeHidden bool, limit, offset int) (repository.GalleryPage, error) {
	f.lastByArtist.artistID = artistID
	f.lastByArtist.includeHidden = includeHidden
	f.lastByArtist.limit = limit
	f.lastByArtist.offset = offset
	return repository.GalleryPage{}, nil
}

// fakeRatings records the last fold request and plays back a canned result.
type fakeRatings struct {
	lastDoodleID string
	lastRaterID  string
	lastValue    int

	result  domain.Doodle
	created bool
	err     error
}

func (f *fakeRatings) Rate(_ context.Context, doodleID, raterID string, value int) (domain.Doodle, bool, error) {
	f.lastDoodleID = doodleID
	f.lastRaterID = raterID
	f.lastValue = value
	if f.err != nil {
		return domain.Doodle{}, false, f.err
	}
	return f.result, f.created, nil
}

func artistParams(id, name, accountRef string) repository.ArtistCreateParams {
	return repository.ArtistCreateParams{ID: id, ProvisionalName: name, AccountRef: accountRef}
}

func mustFakeDoodle(f *fakeDoodles, complete bool) domain.Doodle {
	id := fmt.Sprintf("doodle-%d", len(f.order))
	doodle, _ := f.Create(context.Background(), repository.DoodleCreateParams{ID: id})
	if complete {
		f.doodles[id].Complete = true
	}
	return doodle
}
