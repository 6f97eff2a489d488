package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sendkite/broadcast-backend/internal/draft"
	appErrors "github.com/sendkite/broadcast-backend/internal/errors"
	"github.com/sendkite/broadcast-backend/internal/model"
	"github.com/sendkite/broadcast-backend/internal/service"
)

// DraftController is the HTTP surface of the campaign wizard. Every mutation
// goes through the draft service's session store; responses echo the updated
// session so the dashboard can re-render without a second fetch.
type DraftController struct {
	DraftService *service.DraftService
}

// sessionResponse is the wire shape of an editing session. The validation
// message for the current step is derived on every read, never stored.
type sessionResponse struct {
	ID              string       `json:"id"`
	CampaignID      string       `json:"campaign_id,omitempty"`
	Step            int          `json:"step"`
	Draft           *draft.Draft `json:"draft"`
	ValidationError string       `json:"validation_error,omitempty"`
}

func toResponse(sess *draft.Session) sessionResponse {
	resp := sessionResponse{
		ID:         sess.ID,
		CampaignID: sess.CampaignID,
		Step:       sess.Step,
		Draft:      sess.Draft,
	}
	if err := sess.Validate(); err != nil {
		resp.ValidationError = err.Error()
	}
	return resp
}

func (c *DraftController) writeSession(w http.ResponseWriter, sess *draft.Session) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toResponse(sess))
}

func (c *DraftController) writeError(w http.ResponseWriter, err error) {
	var vErr *appErrors.ValidationError
	var notFound *appErrors.ErrCampaignNotFound
	switch {
	case errors.As(err, &vErr):
		http.Error(w, vErr.Message, http.StatusUnprocessableEntity)
	case errors.Is(err, service.ErrSessionNotFound), errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CreateDraft opens a fresh editing session.
func (c *DraftController) CreateDraft(w http.ResponseWriter, r *http.Request) {
	sess := c.DraftService.StartSession()
	c.writeSession(w, sess)
}

// EditDraft opens a session hydrated from a persisted campaign.
func (c *DraftController) EditDraft(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	sess, err := c.DraftService.StartEditSession(r.Context(), campaignID)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeSession(w, sess)
}

// GetDraft returns the session with the current step's validation state.
func (c *DraftController) GetDraft(w http.ResponseWriter, r *http.Request) {
	sess, err := c.DraftService.Session(chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeSession(w, sess)
}

// DiscardDraft drops the session without saving.
func (c *DraftController) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	c.DraftService.Discard(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (c *DraftController) mutate(w http.ResponseWriter, r *http.Request, fn func(*draft.Session) error) {
	sess, err := c.DraftService.Mutate(chi.URLParam(r, "id"), fn)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeSession(w, sess)
}

// SetName sets the campaign name.
func (c *DraftController) SetName(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Draft.SetName(body.Name)
		return nil
	})
}

// SetChannel selects the sending channel by id.
func (c *DraftController) SetChannel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChannelID string `json:"channel_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	sess, err := c.DraftService.SetChannel(r.Context(), chi.URLParam(r, "id"), body.ChannelID)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeSession(w, sess)
}

// SetAudienceMode switches between "all" and "contacts".
func (c *DraftController) SetAudienceMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode model.AudienceMode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		return sess.Draft.SetAudienceMode(body.Mode)
	})
}

// SetNumbers replaces the recipient set.
func (c *DraftController) SetNumbers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Numbers []string `json:"numbers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Draft.SetNumbers(body.Numbers)
		return nil
	})
}

// ToggleNumber adds or removes one canonical phone.
func (c *DraftController) ToggleNumber(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Draft.ToggleNumber(body.Phone)
		return nil
	})
}

// SelectVisible unions the audience with a live contact filter.
func (c *DraftController) SelectVisible(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Search string `json:"search"`
		Tag    string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	sess, err := c.DraftService.SelectVisible(r.Context(), chi.URLParam(r, "id"), body.Search, body.Tag)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeSession(w, sess)
}

// ClearAudience empties the recipient set.
func (c *DraftController) ClearAudience(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Draft.ClearAudience()
		return nil
	})
}

// SetMessage sets the message body (spintax stored as-is).
func (c *DraftController) SetMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Draft.SetMessage(body.Message)
		return nil
	})
}

// AddTemplate adds a pick to the rotation set.
func (c *DraftController) AddTemplate(w http.ResponseWriter, r *http.Request) {
	var pick model.TemplatePick
	if err := json.NewDecoder(r.Body).Decode(&pick); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		return sess.Draft.AddTemplate(pick)
	})
}

// UpdateTemplate merges a patch into an existing pick.
func (c *DraftController) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   *string `json:"name"`
		Weight *int    `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	templateID := chi.URLParam(r, "templateID")
	c.mutate(w, r, func(sess *draft.Session) error {
		return sess.Draft.UpdateTemplate(templateID, draft.TemplatePatch{Name: body.Name, Weight: body.Weight})
	})
}

// RemoveTemplate drops a pick from the rotation set.
func (c *DraftController) RemoveTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Draft.RemoveTemplate(templateID)
		return nil
	})
}

// AddAttachment attaches a file reference, assigning an id when absent.
func (c *DraftController) AddAttachment(w http.ResponseWriter, r *http.Request) {
	var att model.Attachment
	if err := json.NewDecoder(r.Body).Decode(&att); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		return sess.Draft.AddAttachment(att)
	})
}

// RemoveAttachment drops an attachment by id.
func (c *DraftController) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	attID := chi.URLParam(r, "attachmentID")
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Draft.RemoveAttachment(attID)
		return nil
	})
}

// SetSchedule sets or clears the scheduled send time.
func (c *DraftController) SetSchedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ScheduleAt *time.Time `json:"schedule_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Draft.SetSchedule(body.ScheduleAt)
		return nil
	})
}

// UpdateSettings replaces the broadcast rules.
func (c *DraftController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.BroadcastSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.mutate(w, r, func(sess *draft.Session) error {
		return sess.Draft.UpdateSettings(settings)
	})
}

// Next advances the wizard; blocked by the current step's gate.
func (c *DraftController) Next(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, func(sess *draft.Session) error {
		return sess.Next()
	})
}

// Prev goes back one step; never blocked.
func (c *DraftController) Prev(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, func(sess *draft.Session) error {
		sess.Prev()
		return nil
	})
}

// Submit persists the campaign and hands it to the dispatch queue.
func (c *DraftController) Submit(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.DraftService.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"id":       campaign.ID,
		"campaign": campaign,
	})
}
