package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/sendkite/broadcast-backend/internal/errors"
	"github.com/sendkite/broadcast-backend/internal/importer"
	"github.com/sendkite/broadcast-backend/internal/model"
	"github.com/sendkite/broadcast-backend/internal/repository"
	"github.com/sendkite/broadcast-backend/internal/service"
)

// Handler serves the non-wizard API surface: the contact book, channels,
// CSV imports and the campaign list.
type Handler struct {
	ContactRepo   repository.ContactRepositoryInterface
	ChannelRepo   repository.ChannelRepositoryInterface
	CampaignRepo  repository.CampaignRepositoryInterface
	MessageRepo   repository.OutboundMessageRepositoryInterface
	ImportService *service.ImportService
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListContacts returns the contact book, optionally filtered by a name/phone
// search and a single tag.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	tag := r.URL.Query().Get("tag")

	contacts, err := h.ContactRepo.List(r.Context(), search, tag)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

// CreateContact adds a single contact. A phone that already exists answers
// 409 so the dashboard can surface the duplicate instead of retrying.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var contact model.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if contact.Phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}

	if err := h.ContactRepo.Create(r.Context(), &contact); err != nil {
		if errors.Is(err, appErrors.ErrDuplicatePhone) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// ListChannels returns the connected sending channels with their health
// scores, so the wizard can show the derived daily limit per channel.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.ChannelRepo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if channels == nil {
		channels = []model.Channel{}
	}
	writeJSON(w, http.StatusOK, channels)
}

// CreateImport parses an uploaded CSV body into a preview. The rows are held
// in memory until the client runs or discards the import.
func (h *Handler) CreateImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	id, total, err := h.ImportService.StartRun(string(raw))
	if err != nil {
		if errors.Is(err, importer.ErrMissingPhoneColumn) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    id,
		"total": total,
	})
}

// RunImport executes a parsed import. The request context is threaded into
// the row loop, so closing the connection stops the run between rows.
func (h *Handler) RunImport(w http.ResponseWriter, r *http.Request) {
	result, err := h.ImportService.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrImportNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetImport reports the state and running counters of an import.
func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	state, result, err := h.ImportService.Progress(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":  state,
		"result": result,
	})
}

// DeleteImport discards an import and its parsed rows.
func (h *Handler) DeleteImport(w http.ResponseWriter, r *http.Request) {
	if err := h.ImportService.Reset(chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCampaigns returns persisted campaigns, newest first, with optional
// status filter and offset/limit paging.
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	offset := parseIntParam(r, "offset", 0)
	limit := parseIntParam(r, "limit", 20)
	status := r.URL.Query().Get("status")

	campaigns, total, err := h.CampaignRepo.ListCampaigns(r.Context(), offset, limit, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if campaigns == nil {
		campaigns = []*model.Campaign{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": campaigns,
		"total":     total,
	})
}

// GetCampaign fetches one campaign by id.
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.CampaignRepo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// CampaignStats reports per-status delivery counts for a campaign.
func (h *Handler) CampaignStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.MessageRepo.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
