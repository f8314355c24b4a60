package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloodlink/internal/domain"
	"bloodlink/internal/donor"
	"bloodlink/internal/matching"
	"bloodlink/internal/request"
	"bloodlink/internal/stats"
	"bloodlink/pkg/platform/sentinel"
)

// Handler is the thin HTTP layer. It delegates to the domain services so
// transport concerns stay isolated from matching logic.
type Handler struct {
	logger   *slog.Logger
	donors   *donor.Service
	requests *request.Service
	matcher  *matching.Service
	stats    *stats.Service
}

func NewHandler(logger *slog.Logger, donors *donor.Service, requests *request.Service, matcher *matching.Service, statsSvc *stats.Service) *Handler {
	return &Handler{
		logger:   logger,
		donors:   donors,
		requests: requests,
		matcher:  matcher,
		stats:    statsSvc,
	}
}

// NewRouter wires all public endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/donors", h.handleRegisterDonor)
	r.Post("/api/requests", h.handleSubmitRequest)
	r.Get("/api/requests/{id}/matches", h.handleMatchSummary)
	r.Get("/api/stats", h.handleStats)
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type registerDonorRequest struct {
	Name       string `json:"name"`
	BloodGroup string `json:"blood_group"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
}

func (h *Handler) handleRegisterDonor(w http.ResponseWriter, r *http.Request) {
	var body registerDonorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(r.Context(), w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	d, err := h.donors.Register(r.Context(), donor.RegisterInput{
		Name:       body.Name,
		BloodGroup: body.BloodGroup,
		Email:      body.Email,
		Phone:      body.Phone,
		Location:   body.Location,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"donor_id": d.ID,
		"message":  "donor registered successfully",
	})
}

type submitRequestRequest struct {
	HospitalName     string `json:"hospital_name"`
	HospitalEmail    string `json:"hospital_email"`
	HospitalPhone    string `json:"hospital_phone"`
	HospitalLocation string `json:"hospital_location"`
	BloodGroup       string `json:"required_blood_group"`
	PatientDetails   string `json:"patient_details"`
	Urgency          string `json:"urgency_level"`
}

// handleSubmitRequest persists the request and runs the matching fan-out.
// The response carries only aggregate counts, never donor identity.
func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body submitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(r.Context(), w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req, err := h.requests.Submit(r.Context(), request.SubmitInput{
		HospitalName:     body.HospitalName,
		HospitalEmail:    body.HospitalEmail,
		HospitalPhone:    body.HospitalPhone,
		HospitalLocation: body.HospitalLocation,
		BloodGroup:       body.BloodGroup,
		PatientDetails:   body.PatientDetails,
		Urgency:          body.Urgency,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	summary, err := h.matcher.Process(r.Context(), req)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"request_id": req.ID,
		"summary":    summary,
	})
}

func (h *Handler) handleMatchSummary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, http.StatusBadRequest, "invalid request id")
		return
	}
	req, err := h.requests.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	pool, err := h.donors.List(r.Context())
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	local, remote, err := h.matcher.Tier(req, pool)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	matches, err := h.matcher.MatchesFor(r.Context(), req.ID)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, matching.Summary{
		LocalCandidateCount:  len(local),
		RemoteCandidateCount: len(remote),
		MatchesRecorded:      matches,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Snapshot(r.Context())
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError centralizes domain error translation to HTTP responses.
func (h *Handler) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidBloodGroup), errors.Is(err, domain.ErrInvalidInput):
		h.writeError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, donor.ErrDuplicateContact):
		h.writeError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, sentinel.ErrNotFound):
		h.writeError(ctx, w, http.StatusNotFound, "not found")
	default:
		h.logger.ErrorContext(ctx, "request failed", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
