package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dudlr/dudlr/internal/domain"
)

type artistResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Renamed   bool      `json:"renamed"`
	CreatedAt time.Time `json:"createdAt"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type artistDoodlesResponse struct {
	Artist artistResponse   `json:"artist"`
	Items  []doodleResponse `json:"items"`
	Total  int              `json:"total"`
}

func (s *Server) handleCurrentArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := s.artists.GetOrCreate(r.Context(), s.caller(r))
	if err != nil {
		s.respondServiceError(w, err, "current artist")
		return
	}
	s.respondJSON(w, http.StatusOK, toArtistResponse(artist))
}

func (s *Server) handleRenameArtist(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	artist, err := s.artists.Rename(r.Context(), s.caller(r), req.Name)
	if err != nil {
		s.respondServiceError(w, err, "rename artist")
		return
	}
	s.respondJSON(w, http.StatusOK, toArtistResponse(artist))
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	name, err := decodeNameParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	artist, err := s.artists.FindByName(r.Context(), name)
	if err != nil {
		s.respondServiceError(w, err, "get artist")
		return
	}
	s.respondJSON(w, http.StatusOK, toArtistResponse(artist))
}

func (s *Server) handleListByArtist(w http.ResponseWriter, r *http.Request) {
	name, err := decodeNameParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	limit, offset, err := pageParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	artist, page, err := s.gallery.ByArtist(r.Context(), name, s.caller(r), limit, offset)
	if err != nil {
		s.respondServiceError(w, err, "list by artist")
		return
	}

	items := make([]doodleResponse, 0, len(page.Items))
	for _, doodle := range page.Items {
		items = append(items, toDoodleResponse(doodle))
	}
	s.respondJSON(w, http.StatusOK, artistDoodlesResponse{
		Artist: toArtistResponse(artist),
		Items:  items,
		Total:  page.Total,
	})
}

func toArtistResponse(artist domain.Artist) artistResponse {
	return artistResponse{
		ID:        artist.ID,
		Name:      artist.DisplayName,
		Renamed:   artist.NameFrozen(),
		CreatedAt: artist.CreatedAt,
	}
}

func decodeNameParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "name")
	if raw == "" {
		return "", fmt.Errorf("missing name parameter")
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid name parameter")
	}
	return name, nil
}
