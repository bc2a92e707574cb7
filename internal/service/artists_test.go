package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dudlr/dudlr/internal/errs"
	"github.com/dudlr/dudlr/internal/identity"
)

func TestArtistService_GetOrCreate(t *testing.T) {
	store := newFakeArtists()
	svc := NewArtistService(store)
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, nil)
	require.ErrorIs(t, err, errs.ErrNotLoggedIn)

	artist, err := svc.GetOrCreate(ctx, &identity.Identity{AccountRef: "acct-1", NameHint: "  Jane   Doodler "})
	require.NoError(t, err)
	require.Equal(t, "Jane Doodler", artist.DisplayName)
	require.Equal(t, "acct-1", artist.AccountRef)
	require.NotEmpty(t, artist.ID)

	again, err := svc.GetOrCreate(ctx, &identity.Identity{AccountRef: "acct-1", NameHint: "Different Hint"})
	require.NoError(t, err)
	require.Equal(t, artist.ID, again.ID)
	require.Equal(t, "Jane Doodler", again.DisplayName)
}

func TestArtistService_GetOrCreate_FallbackName(t *testing.T) {
	store := newFakeArtists()
	svc := NewArtistService(store)

	artist, err := svc.GetOrCreate(context.Background(), &identity.Identity{AccountRef: "ABCDEF1234567890"})
	require.NoError(t, err)
	require.Equal(t, "dudlr-abcdef12", artist.DisplayName)
}

func TestArtistService_Rename(t *testing.T) {
	store := newFakeArtists()
	svc := NewArtistService(store)
	ctx := context.Background()
	ident := &identity.Identity{AccountRef: "acct-1", NameHint: "original"}

	_, err := svc.GetOrCreate(ctx, ident)
	require.NoError(t, err)

	_, err = svc.Rename(ctx, nil, "whatever")
	require.ErrorIs(t, err, errs.ErrNotLoggedIn)

	_, err = svc.Rename(ctx, ident, "   ")
	require.ErrorIs(t, err, errs.ErrValidation)

	renamed, err := svc.Rename(ctx, ident, "  spaced   out  ")
	require.NoError(t, err)
	require.Equal(t, "spaced out", renamed.DisplayName)

	_, err = svc.Rename(ctx, ident, "once more")
	require.ErrorIs(t, err, errs.ErrNameFrozen)
}

func TestArtistService_FindByName(t *testing.T) {
	store := newFakeArtists()
	svc := NewArtistService(store)
	ctx := context.Background()

	_, err := svc.FindByName(ctx, "nobody")
	require.ErrorIs(t, err, errs.ErrNotFound)

	created, err := svc.GetOrCreate(ctx, &identity.Identity{AccountRef: "acct-1", NameHint: "findable"})
	require.NoError(t, err)

	found, err := svc.FindByName(ctx, "findable")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
}
