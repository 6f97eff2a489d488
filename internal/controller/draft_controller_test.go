package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendkite/broadcast-backend/internal/model"
	"github.com/sendkite/broadcast-backend/internal/service"
)

type stubContactRepo struct {
	contacts []model.Contact
}

func (r *stubContactRepo) List(ctx context.Context, search, tag string) ([]model.Contact, error) {
	out := []model.Contact{}
	for _, c := range r.contacts {
		if tag != "" && !hasTag(c, tag) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func hasTag(c model.Contact, tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *stubContactRepo) Create(ctx context.Context, c *model.Contact) error {
	r.contacts = append(r.contacts, *c)
	return nil
}

func (r *stubContactRepo) AllPhones(ctx context.Context) ([]string, error) {
	phones := []string{}
	for _, c := range r.contacts {
		phones = append(phones, c.Phone)
	}
	return phones, nil
}

type stubChannelRepo struct {
	channels map[string]model.Channel
}

func (r *stubChannelRepo) List(ctx context.Context) ([]model.Channel, error) {
	out := []model.Channel{}
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out, nil
}

func (r *stubChannelRepo) GetByID(ctx context.Context, id string) (*model.Channel, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

type stubCampaignRepo struct {
	campaigns map[string]*model.Campaign
}

func (r *stubCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	r.campaigns[c.ID] = c
	return nil
}

func (r *stubCampaignRepo) Update(ctx context.Context, c *model.Campaign) error {
	if _, ok := r.campaigns[c.ID]; !ok {
		return fmt.Errorf("campaign %s not found", c.ID)
	}
	r.campaigns[c.ID] = c
	return nil
}

func (r *stubCampaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s not found", id)
	}
	return c, nil
}

func (r *stubCampaignRepo) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	out := []*model.Campaign{}
	for _, c := range r.campaigns {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *stubCampaignRepo) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	if c, ok := r.campaigns[id]; ok {
		c.Status = status
	}
	return nil
}

type stubPublisher struct {
	published []string
}

func (p *stubPublisher) Publish(topic string, payload interface{}) error {
	p.published = append(p.published, topic)
	return nil
}

func newTestRouter() (*chi.Mux, *service.DraftService, *stubCampaignRepo, *stubPublisher) {
	contacts := &stubContactRepo{contacts: []model.Contact{
		{ID: 1, Name: "Aina", Phone: "+60123456789", Tags: []string{"vip"}},
		{ID: 2, Name: "Ben", Phone: "+60198765432", Tags: []string{"new"}},
	}}
	channels := &stubChannelRepo{channels: map[string]model.Channel{
		"ch-1": {ID: "ch-1", Label: "Support line", Type: "whatsapp", Score: 82},
		"ch-2": {ID: "ch-2", Label: "Backup line", Type: "whatsapp", Score: 35},
	}}
	campaigns := &stubCampaignRepo{campaigns: map[string]*model.Campaign{}}
	pub := &stubPublisher{}

	svc := service.NewDraftService(contacts, channels, campaigns, pub)
	ctrl := &DraftController{DraftService: svc}

	r := chi.NewRouter()
	r.Post("/drafts", ctrl.CreateDraft)
	r.Route("/drafts/{id}", func(r chi.Router) {
		r.Get("/", ctrl.GetDraft)
		r.Delete("/", ctrl.DiscardDraft)
		r.Patch("/name", ctrl.SetName)
		r.Put("/channel", ctrl.SetChannel)
		r.Put("/audience/mode", ctrl.SetAudienceMode)
		r.Put("/audience/numbers", ctrl.SetNumbers)
		r.Post("/audience/toggle", ctrl.ToggleNumber)
		r.Post("/audience/select-visible", ctrl.SelectVisible)
		r.Delete("/audience", ctrl.ClearAudience)
		r.Put("/message", ctrl.SetMessage)
		r.Post("/templates", ctrl.AddTemplate)
		r.Patch("/templates/{templateID}", ctrl.UpdateTemplate)
		r.Delete("/templates/{templateID}", ctrl.RemoveTemplate)
		r.Post("/attachments", ctrl.AddAttachment)
		r.Delete("/attachments/{attachmentID}", ctrl.RemoveAttachment)
		r.Put("/schedule", ctrl.SetSchedule)
		r.Put("/settings", ctrl.UpdateSettings)
		r.Post("/next", ctrl.Next)
		r.Post("/prev", ctrl.Prev)
		r.Post("/submit", ctrl.Submit)
	})
	return r, svc, campaigns, pub
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, sessionResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp sessionResponse
	if rr.Code < 300 && rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	}
	return rr, resp
}

func TestCreateDraftStartsAtStepOne(t *testing.T) {
	router, _, _, _ := newTestRouter()

	rr, resp := doJSON(t, router, http.MethodPost, "/drafts", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 1, resp.Step)
	assert.NotEmpty(t, resp.ValidationError, "empty draft fails the first gate")
}

func TestGetDraftUnknownSession(t *testing.T) {
	router, _, _, _ := newTestRouter()

	rr, _ := doJSON(t, router, http.MethodGet, "/drafts/nope/", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNextBlockedByGate(t *testing.T) {
	router, _, _, _ := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)

	rr, _ := doJSON(t, router, http.MethodPost, "/drafts/"+created.ID+"/next", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	_, resp := doJSON(t, router, http.MethodGet, "/drafts/"+created.ID+"/", nil)
	assert.Equal(t, 1, resp.Step, "step unchanged when the gate blocks")
}

func TestWizardFlowThroughSubmit(t *testing.T) {
	router, _, campaigns, pub := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)
	base := "/drafts/" + created.ID

	rr, _ := doJSON(t, router, http.MethodPatch, base+"/name", map[string]string{"name": "August promo"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr, resp := doJSON(t, router, http.MethodPut, base+"/channel", map[string]string{"channel_id": "ch-1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 100, resp.Draft.Settings.DailyLimit, "healthy channel raises the daily limit")

	rr, resp = doJSON(t, router, http.MethodPut, base+"/audience/numbers", map[string][]string{
		"numbers": {"+60123456789", "+60198765432"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, resp.Draft.AudienceCount)
	assert.Empty(t, resp.ValidationError)

	rr, _ = doJSON(t, router, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, resp = doJSON(t, router, http.MethodPut, base+"/message", map[string]string{
		"message": "Hi {there|friend}, sale ends Sunday",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, resp.ValidationError)

	rr, resp = doJSON(t, router, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, resp.Step)

	rr, resp = doJSON(t, router, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 4, resp.Step)

	req := httptest.NewRequest(http.MethodPost, base+"/submit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var submitResp struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitResp))
	assert.True(t, submitResp.Success)

	saved, ok := campaigns.campaigns[submitResp.ID]
	require.True(t, ok, "campaign persisted")
	assert.Equal(t, "August promo", saved.Name)
	assert.Len(t, saved.Recipients, 2)
	assert.Equal(t, []string{"campaign_submissions"}, pub.published)

	rr, _ = doJSON(t, router, http.MethodGet, base+"/", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code, "session destroyed after submit")
}

func TestNextClampedAtReview(t *testing.T) {
	router, svc, _, _ := newTestRouter()
	sess := svc.StartSession()
	sess.Draft.SetName("clamp")
	sess.Draft.SetMessage("hello")
	sess.Draft.SetNumbers([]string{"+60123456789"})
	sess.Draft.Channel = &model.Channel{ID: "ch-1", Label: "Support line", Score: 82}
	base := "/drafts/" + sess.ID

	for i := 0; i < 6; i++ {
		rr, _ := doJSON(t, router, http.MethodPost, base+"/next", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	_, resp := doJSON(t, router, http.MethodGet, base+"/", nil)
	assert.Equal(t, 4, resp.Step)
}

func TestPrevNeverBlocked(t *testing.T) {
	router, svc, _, _ := newTestRouter()
	sess := svc.StartSession()
	base := "/drafts/" + sess.ID

	for i := 0; i < 3; i++ {
		rr, resp := doJSON(t, router, http.MethodPost, base+"/prev", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, resp.Step)
	}
}

func TestToggleNumberKeepsCountInStep(t *testing.T) {
	router, _, _, _ := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)
	base := "/drafts/" + created.ID

	_, resp := doJSON(t, router, http.MethodPost, base+"/audience/toggle", map[string]string{"phone": "+60123456789"})
	assert.Equal(t, 1, resp.Draft.AudienceCount)

	_, resp = doJSON(t, router, http.MethodPost, base+"/audience/toggle", map[string]string{"phone": "+60123456789"})
	assert.Equal(t, 0, resp.Draft.AudienceCount)
}

func TestSelectVisibleUnionsFilteredContacts(t *testing.T) {
	router, _, _, _ := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)
	base := "/drafts/" + created.ID

	_, resp := doJSON(t, router, http.MethodPost, base+"/audience/select-visible", map[string]string{"tag": "vip"})
	assert.Equal(t, 1, resp.Draft.AudienceCount)

	_, resp = doJSON(t, router, http.MethodPost, base+"/audience/select-visible", map[string]string{})
	assert.Equal(t, 2, resp.Draft.AudienceCount)
}

func TestSetAudienceModeRejectsUnknown(t *testing.T) {
	router, _, _, _ := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)

	rr, _ := doJSON(t, router, http.MethodPut, "/drafts/"+created.ID+"/audience/mode", map[string]string{"mode": "manual"})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestTemplateLifecycle(t *testing.T) {
	router, _, _, _ := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)
	base := "/drafts/" + created.ID

	_, resp := doJSON(t, router, http.MethodPost, base+"/templates", model.TemplatePick{TemplateID: "tpl-1", Name: "Promo A", Weight: 3})
	require.Len(t, resp.Draft.Templates, 1)

	rr, resp := doJSON(t, router, http.MethodPatch, base+"/templates/tpl-1", map[string]int{"weight": 5})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, resp.Draft.Templates[0].Weight)
	assert.Equal(t, "Promo A", resp.Draft.Templates[0].Name, "patch leaves the name alone")

	rr, _ = doJSON(t, router, http.MethodPatch, base+"/templates/tpl-missing", map[string]int{"weight": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	_, resp = doJSON(t, router, http.MethodDelete, base+"/templates/tpl-1", nil)
	assert.Empty(t, resp.Draft.Templates)
}

func TestAddAttachmentAssignsID(t *testing.T) {
	router, _, _, _ := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)
	base := "/drafts/" + created.ID

	_, resp := doJSON(t, router, http.MethodPost, base+"/attachments", model.Attachment{Kind: "image", Name: "banner.png"})
	require.Len(t, resp.Draft.Attachments, 1)
	assert.NotEmpty(t, resp.Draft.Attachments[0].ID)

	_, resp = doJSON(t, router, http.MethodDelete, base+"/attachments/"+resp.Draft.Attachments[0].ID, nil)
	assert.Empty(t, resp.Draft.Attachments)
}

func TestUpdateSettingsRejectsBadSpeed(t *testing.T) {
	router, _, _, _ := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)

	rr, _ := doJSON(t, router, http.MethodPut, "/drafts/"+created.ID+"/settings", map[string]interface{}{
		"speed": "warp",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestDiscardDraft(t *testing.T) {
	router, _, _, _ := newTestRouter()
	_, created := doJSON(t, router, http.MethodPost, "/drafts", nil)

	rr, _ := doJSON(t, router, http.MethodDelete, "/drafts/"+created.ID+"/", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr, _ = doJSON(t, router, http.MethodGet, "/drafts/"+created.ID+"/", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
