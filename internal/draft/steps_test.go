package draft_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sendkite/broadcast-backend/internal/draft"
	"github.com/sendkite/broadcast-backend/internal/model"
)

func channelFixture() *model.Channel {
	return &model.Channel{ID: "ch-1", Label: "Main line", Type: "whatsapp", Score: 80}
}

func TestStepOneFailsWithoutName(t *testing.T) {
	d := draft.New()
	d.SetChannel(channelFixture())

	err := draft.Validate(draft.StepChannelAudience, d)
	assert.EqualError(t, err, "campaign name is required")
}

func TestStepOneFailsWithoutChannel(t *testing.T) {
	d := draft.New()
	d.SetName("Promo")

	assert.Error(t, draft.Validate(draft.StepChannelAudience, d))
}

func TestStepOnePassesWithAllMode(t *testing.T) {
	d := draft.New()
	d.SetName("Promo")
	d.SetChannel(channelFixture())

	assert.NoError(t, draft.Validate(draft.StepChannelAudience, d))
}

func TestStepOneContactsModeNeedsRecipients(t *testing.T) {
	d := draft.New()
	d.SetName("Promo")
	d.SetChannel(channelFixture())
	assert.NoError(t, d.SetAudienceMode(model.AudienceModeContacts))

	assert.Error(t, draft.Validate(draft.StepChannelAudience, d))

	d.SetNumbers([]string{"+60123456789"})
	assert.NoError(t, draft.Validate(draft.StepChannelAudience, d))
}

func TestStepTwoNeedsMessageOrTemplate(t *testing.T) {
	d := draft.New()
	assert.Error(t, draft.Validate(draft.StepMessage, d))

	d.SetMessage("   ")
	assert.Error(t, draft.Validate(draft.StepMessage, d))

	d.SetMessage("Hello {name}, {a|b|c}!")
	assert.NoError(t, draft.Validate(draft.StepMessage, d))

	d.SetMessage("")
	assert.NoError(t, d.AddTemplate(model.TemplatePick{TemplateID: "t1", Weight: 1}))
	assert.NoError(t, draft.Validate(draft.StepMessage, d))
}

func TestStepsThreeAndFourAlwaysPass(t *testing.T) {
	d := draft.New()
	assert.NoError(t, draft.Validate(draft.StepScheduleRules, d))
	assert.NoError(t, draft.Validate(draft.StepReview, d))
}

func TestValidateClampsStep(t *testing.T) {
	d := draft.New()
	// Below range clamps to step 1, which fails on the empty draft.
	assert.Error(t, draft.Validate(0, d))
	// Above range clamps to step 4, which always passes.
	assert.NoError(t, draft.Validate(99, d))
}

func TestValidateSubmit(t *testing.T) {
	d := draft.New()
	d.SetName("Promo")
	d.SetChannel(channelFixture())
	d.SetMessage("hello")

	assert.NoError(t, draft.ValidateSubmit(d, []string{"+60123456789"}))
	assert.EqualError(t, draft.ValidateSubmit(d, nil), "campaign has no recipients")

	d.SetChannel(nil)
	assert.Error(t, draft.ValidateSubmit(d, []string{"+60123456789"}))
}

func TestSessionNextBlockedByGate(t *testing.T) {
	s := draft.NewSession("s1")
	assert.Error(t, s.Next())
	assert.Equal(t, 1, s.Step)

	s.Draft.SetName("Promo")
	s.Draft.SetChannel(channelFixture())
	assert.NoError(t, s.Next())
	assert.Equal(t, 2, s.Step)
}

func TestSessionPrevClampedAtOne(t *testing.T) {
	s := draft.NewSession("s1")
	s.Prev()
	assert.Equal(t, 1, s.Step)
}

func TestSessionStepClampedAtFour(t *testing.T) {
	s := draft.NewSession("s1")
	s.Draft.SetName("Promo")
	s.Draft.SetChannel(channelFixture())
	s.Draft.SetMessage("hi")

	for i := 0; i < 10; i++ {
		_ = s.Next()
	}
	assert.Equal(t, 4, s.Step)
}
