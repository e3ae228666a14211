// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"dealer_reviews/internal/app"
	"dealer_reviews/internal/domain"
)

type Handlers struct {
	Reviews   *app.ReviewAggregator
	Dealers   *app.DealerService
	Inventory *app.InventoryService
}

// envelope is the error body every route shares: {"status": 400, "message": "Bad Request"}.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MountHandlers registers the API at the root and again under /djangoapp,
// the prefix the existing frontend calls.
func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found", "")
	})
	s.mux.Group(h.routes)
	s.mux.Route("/djangoapp", h.routes)
}

func (h *Handlers) routes(r chi.Router) {
	r.Get("/reviews/dealer", h.getDealerReviews)
	r.Get("/reviews/dealer/", h.getDealerReviews)
	r.Get("/reviews/dealer/{dealerId}", h.getDealerReviews)
	r.Get("/get_dealers", h.getDealers)
	r.Get("/get_dealers/{state}", h.getDealers)
	r.Get("/dealer/{dealerId}", h.getDealer)
	r.Post("/add_review", h.addReview)
	r.Get("/get_cars", h.getCars)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Status: status, Message: message, Error: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

// writeBackendError maps a backend failure onto the envelope statuses.
func writeBackendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "Upstream Unavailable", err.Error())
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON sends v with the given status; 200 GET bodies carry an ETag and honour If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if status == http.StatusOK && r.Method == http.MethodGet && etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) getDealerReviews(w http.ResponseWriter, r *http.Request) {
	out := h.Reviews.GetDealerReviews(r.Context(), chi.URLParam(r, "dealerId"))
	writeJSON(w, r, out.Status, out)
}

func (h *Handlers) getDealers(w http.ResponseWriter, r *http.Request) {
	dealers, err := h.Dealers.ListDealers(r.Context(), chi.URLParam(r, "state"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		Status  int             `json:"status"`
		Dealers json.RawMessage `json:"dealers"`
	}{http.StatusOK, dealers})
}

func (h *Handlers) getDealer(w http.ResponseWriter, r *http.Request) {
	id, ok := app.ParseDealerID(chi.URLParam(r, "dealerId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Bad Request", "")
		return
	}
	dealer, err := h.Dealers.GetDealer(r.Context(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		Status int           `json:"status"`
		Dealer domain.Dealer `json:"dealer"`
	}{http.StatusOK, dealer})
}

func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Bad Request", "body must be a JSON review")
		return
	}
	res, err := h.Dealers.AddReview(r.Context(), body)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		Status int             `json:"status"`
		Result json.RawMessage `json:"result"`
	}{http.StatusOK, res})
}

func (h *Handlers) getCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Inventory.ListCarModels(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list car models failed")
		writeError(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		CarModels []domain.CarModelView `json:"CarModels"`
	}{cars})
}
