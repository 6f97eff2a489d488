package draft

import (
	"strings"

	appErrors "github.com/sendkite/broadcast-backend/internal/errors"
	"github.com/sendkite/broadcast-backend/internal/model"
)

// Wizard steps.
const (
	StepChannelAudience = 1
	StepMessage         = 2
	StepScheduleRules   = 3
	StepReview          = 4
)

func clampStep(step int) int {
	if step < StepChannelAudience {
		return StepChannelAudience
	}
	if step > StepReview {
		return StepReview
	}
	return step
}

// Validate is the step validation gate: it decides whether the draft may
// advance from the given step. It never mutates the draft and returns a
// single human-readable message per step as a value.
func Validate(step int, d *Draft) error {
	switch clampStep(step) {
	case StepChannelAudience:
		if strings.TrimSpace(d.Name) == "" {
			return appErrors.NewValidationError(StepChannelAudience, "campaign name is required")
		}
		if d.Channel == nil {
			return appErrors.NewValidationError(StepChannelAudience, "select a channel to send from")
		}
		mode := d.Audience.Mode
		if mode != model.AudienceModeAll && mode != model.AudienceModeContacts {
			return appErrors.NewValidationError(StepChannelAudience, "unsupported audience mode")
		}
		if mode == model.AudienceModeContacts && d.AudienceCount <= 0 {
			return appErrors.NewValidationError(StepChannelAudience, "select at least one recipient")
		}
	case StepMessage:
		if strings.TrimSpace(d.Message) == "" && len(d.Templates) == 0 {
			return appErrors.NewValidationError(StepMessage, "write a message or pick at least one template")
		}
	case StepScheduleRules, StepReview:
		// Schedule is optional and settings always carry valid defaults.
	}
	return nil
}

// ValidateSubmit re-runs steps 1-3 and checks the final submission
// requirements against the resolved recipient list.
func ValidateSubmit(d *Draft, recipients []string) error {
	for step := StepChannelAudience; step <= StepScheduleRules; step++ {
		if err := Validate(step, d); err != nil {
			return err
		}
	}
	if len(recipients) == 0 {
		return appErrors.NewValidationError(StepReview, "campaign has no recipients")
	}
	if d.Channel == nil || d.Channel.ID == "" {
		return appErrors.NewValidationError(StepReview, "campaign has no channel")
	}
	return nil
}
