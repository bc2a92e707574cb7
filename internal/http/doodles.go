package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dudlr/dudlr/internal/domain"
	"github.com/dudlr/dudlr/internal/errs"
	"github.com/dudlr/dudlr/internal/raster"
	"github.com/dudlr/dudlr/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

const maxThumbDim = 1000

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type doodleResponse struct {
	ID         string    `json:"id"`
	ArtistID   *string   `json:"artistId,omitempty"`
	Public     bool      `json:"public"`
	Anonymous  bool      `json:"anonymous"`
	Complete   bool      `json:"complete"`
	Rating     int       `json:"rating"`
	RatedCount int       `json:"ratedCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type doodleListResponse struct {
	Items []doodleResponse `json:"items"`
	Total int              `json:"total"`
}

type finalizeStrokesRequest struct {
	Public    *bool `json:"public"`
	Anonymous *bool `json:"anonymous"`
}

type finalizeRasterRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type rateRequest struct {
	Rating int `json:"rating"`
}

type rateResponse struct {
	DoodleID   string `json:"doodleId"`
	Rating     int    `json:"rating"`
	RatedCount int    `json:"ratedCount"`
}

func (s *Server) handleCreateDoodle(w http.ResponseWriter, r *http.Request) {
	ident := s.caller(r)
	if ident == nil {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	doodle, err := s.doodles.Create(r.Context(), ident)
	if err != nil {
		s.respondServiceError(w, err, "create doodle")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/doodles/%s", url.PathEscape(doodle.ID)))
	s.respondJSON(w, http.StatusCreated, toDoodleResponse(doodle))
}

func (s *Server) handleGetDoodle(w http.ResponseWriter, r *http.Request) {
	doodle, err := s.doodles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err, "get doodle")
		return
	}
	s.respondJSON(w, http.StatusOK, toDoodleResponse(doodle))
}

func (s *Server) handleAppendPixels(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.readChunk(w, r)
	if !ok {
		return
	}
	if err := s.doodles.AppendPixels(r.Context(), chi.URLParam(r, "id"), payload); err != nil {
		s.respondServiceError(w, err, "append pixels")
		return
	}
	s.respondJSON(w, http.StatusAccepted, nil)
}

func (s *Server) handleAppendStrokes(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.readChunk(w, r)
	if !ok {
		return
	}
	if err := s.doodles.AppendStrokes(r.Context(), chi.URLParam(r, "id"), payload); err != nil {
		s.respondServiceError(w, err, "append strokes")
		return
	}
	s.respondJSON(w, http.StatusAccepted, nil)
}

func (s *Server) handleFinalizeStrokes(w http.ResponseWriter, r *http.Request) {
	var req finalizeStrokesRequest
	if err := decodeJSONBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.respondDecodeError(w, err)
		return
	}

	vis := domain.DefaultVisibility()
	if req.Public != nil {
		vis.Public = *req.Public
	}
	if req.Anonymous != nil {
		vis.Anonymous = *req.Anonymous
	}

	doodle, err := s.doodles.FinalizeStrokes(r.Context(), chi.URLParam(r, "id"), vis)
	if err != nil {
		s.respondServiceError(w, err, "finalize strokes")
		return
	}
	s.respondJSON(w, http.StatusOK, toDoodleResponse(doodle))
}

func (s *Server) handleFinalizeRaster(w http.ResponseWriter, r *http.Request) {
	var req finalizeRasterRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "width and height must be positive")
		return
	}

	doodle, err := s.doodles.FinalizeRaster(r.Context(), chi.URLParam(r, "id"), req.Width, req.Height)
	if err != nil {
		s.respondServiceError(w, err, "finalize raster")
		return
	}
	s.respondJSON(w, http.StatusOK, toDoodleResponse(doodle))
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	image, err := s.doodles.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err, "get image")
		return
	}
	s.respondPNG(w, r, image)
}

func (s *Server) handleGetStrokes(w http.ResponseWriter, r *http.Request) {
	strokes, err := s.doodles.Strokes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err, "get strokes")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(strokes)
}

func (s *Server) handleRenderStrokes(w http.ResponseWriter, r *http.Request) {
	image, err := s.doodles.RenderImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err, "render strokes")
		return
	}
	s.respondPNG(w, r, image)
}

func (s *Server) handleRateDoodle(w http.ResponseWriter, r *http.Request) {
	ident := s.caller(r)
	if ident == nil {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req rateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	doodle, inserted, err := s.doodles.Rate(r.Context(), chi.URLParam(r, "id"), req.Rating, ident)
	if err != nil {
		s.respondServiceError(w, err, "rate doodle")
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, rateResponse{
		DoodleID:   doodle.ID,
		Rating:     doodle.Rating,
		RatedCount: doodle.RatedCount,
	})
}

func (s *Server) handleListLatest(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	page, err := s.gallery.Latest(r.Context(), limit, offset, strings.TrimSpace(r.URL.Query().Get("order")))
	if err != nil {
		s.respondServiceError(w, err, "list latest")
		return
	}
	s.respondJSON(w, http.StatusOK, toDoodleListResponse(page))
}

func (s *Server) handleListTopRated(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	page, err := s.gallery.TopRated(r.Context(), limit, offset)
	if err != nil {
		s.respondServiceError(w, err, "list top rated")
		return
	}
	s.respondJSON(w, http.StatusOK, toDoodleListResponse(page))
}

// readChunk pulls a raw request body chunk, size-capped. Reports its own
// error response and returns ok=false on failure.
func (s *Server) readChunk(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body exceeds the size limit")
		return nil, false
	}
	return payload, true
}

func (s *Server) respondPNG(w http.ResponseWriter, r *http.Request, image []byte) {
	if val := strings.TrimSpace(r.URL.Query().Get("thumb")); val != "" {
		maxDim, err := strconv.Atoi(val)
		if err != nil || maxDim <= 0 || maxDim > maxThumbDim {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid thumb value")
			return
		}
		scaled, err := raster.Thumbnail(image, maxDim)
		if err != nil {
			s.respondServiceError(w, err, "thumbnail")
			return
		}
		image = scaled
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image)
}

func pageParams(query url.Values) (limit, offset int, err error) {
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err = strconv.Atoi(val)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("invalid limit value")
		}
	}
	if val := strings.TrimSpace(query.Get("offset")); val != "" {
		offset, err = strconv.Atoi(val)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset value")
		}
	}
	return limit, offset, nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

// respondServiceError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, errs.ErrInvalidEncoding):
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_ENCODING", err.Error())
	case errors.Is(err, errs.ErrValidation):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, errs.ErrNotLoggedIn):
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
	case errors.Is(err, errs.ErrConflictOfInterest):
		s.respondError(w, http.StatusForbidden, "CONFLICT_OF_INTEREST", "Artists cannot rate their own doodles")
	case errors.Is(err, errs.ErrNameTaken):
		s.respondError(w, http.StatusConflict, "NAME_TAKEN", "Display name is already in use")
	case errors.Is(err, errs.ErrNameFrozen):
		s.respondError(w, http.StatusConflict, "NAME_FROZEN", "Display name has already been changed")
	case errors.Is(err, errs.ErrFinalized):
		s.respondError(w, http.StatusConflict, "ALREADY_FINALIZED", "Doodle has already been finalized")
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func toDoodleResponse(doodle domain.Doodle) doodleResponse {
	resp := doodleResponse{
		ID:         doodle.ID,
		Public:     doodle.Public,
		Anonymous:  doodle.Anonymous,
		Complete:   doodle.Complete,
		Rating:     doodle.Rating,
		RatedCount: doodle.RatedCount,
		CreatedAt:  doodle.CreatedAt,
		UpdatedAt:  doodle.UpdatedAt,
	}
	if !doodle.Anonymous {
		resp.ArtistID = doodle.ArtistID
	}
	return resp
}

func toDoodleListResponse(page repository.GalleryPage) doodleListResponse {
	items := make([]doodleResponse, 0, len(page.Items))
	for _, doodle := range page.Items {
		items = append(items, toDoodleResponse(doodle))
	}
	return doodleListResponse{Items: items, Total: page.Total}
}
