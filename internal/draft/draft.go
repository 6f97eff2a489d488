// Package draft implements the broadcast campaign wizard: the in-progress
// draft aggregate, its audience and template sets, the per-step validation
// gate and the step state machine. Everything here is synchronous and owned
// by a single editing session; the HTTP layer serializes access.
package draft

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/sendkite/broadcast-backend/internal/errors"
	"github.com/sendkite/broadcast-backend/internal/model"
	"github.com/sendkite/broadcast-backend/internal/quota"
)

// Draft is the in-progress, unsaved campaign being edited.
type Draft struct {
	Name          string                  `json:"name"`
	Channel       *model.Channel          `json:"channel,omitempty"`
	Audience      model.AudienceQuery     `json:"audience"`
	AudienceCount int                     `json:"audience_count"`
	Templates     []model.TemplatePick    `json:"templates"`
	Message       string                  `json:"message"`
	Attachments   []model.Attachment      `json:"attachments"`
	ScheduleAt    *time.Time              `json:"schedule_at,omitempty"`
	Settings      model.BroadcastSettings `json:"settings"`
}

// New returns an empty draft with default settings.
func New() *Draft {
	return &Draft{
		Audience:    model.AudienceQuery{Mode: model.AudienceModeAll, Numbers: []string{}},
		Templates:   []model.TemplatePick{},
		Attachments: []model.Attachment{},
		Settings:    model.DefaultSettings(),
	}
}

// FromCampaign rehydrates a draft from a persisted campaign (edit mode).
// Absent fields get their defaults.
func FromCampaign(c *model.Campaign) *Draft {
	d := New()
	d.Name = c.Name
	if c.Channel != nil {
		d.Channel = c.Channel
	} else if c.ChannelID != "" {
		d.Channel = &model.Channel{ID: c.ChannelID, Label: c.ChannelLabel}
	}
	if len(c.Recipients) > 0 {
		d.SetNumbers(c.Recipients)
	}
	if len(c.Templates) > 0 {
		d.Templates = append([]model.TemplatePick{}, c.Templates...)
	}
	d.Message = c.Message
	if len(c.Attachments) > 0 {
		d.Attachments = append([]model.Attachment{}, c.Attachments...)
	}
	d.ScheduleAt = c.ScheduledAt
	if c.Settings.Speed != "" {
		d.Settings = c.Settings
	}
	return d
}

// Campaign serializes the draft into its persisted form. Recipients is the
// audience set for contacts mode; for "all" mode the caller resolves the
// full contact book before submission.
func (d *Draft) Campaign(recipients []string) *model.Campaign {
	c := &model.Campaign{
		Name:        d.Name,
		Recipients:  recipients,
		Templates:   append([]model.TemplatePick{}, d.Templates...),
		Message:     d.Message,
		Attachments: append([]model.Attachment{}, d.Attachments...),
		Settings:    d.Settings,
		ScheduledAt: d.ScheduleAt,
		Status:      model.CampaignStatusDraft,
	}
	if d.ScheduleAt != nil {
		c.Status = model.CampaignStatusScheduled
	}
	if d.Channel != nil {
		c.Channel = d.Channel
		c.ChannelID = d.Channel.ID
		c.ChannelLabel = d.Channel.Label
	}
	return c
}

// SetName sets the campaign name.
func (d *Draft) SetName(name string) {
	d.Name = name
}

// SetChannel selects the sending channel and, unless the user overrode the
// speed, re-derives the daily limit from the channel's trust score.
func (d *Draft) SetChannel(ch *model.Channel) {
	d.Channel = ch
	if ch != nil && d.Settings.Speed != model.SpeedCustom {
		d.Settings.DailyLimit = quota.DailyLimit(ch.Score)
	}
}

// SetMessage sets the message body. Spintax groups and variable tokens are
// stored as-is; expansion happens at send time.
func (d *Draft) SetMessage(msg string) {
	d.Message = msg
}

// AddAttachment appends an attachment. IDs must be unique within the draft.
func (d *Draft) AddAttachment(att model.Attachment) error {
	if strings.TrimSpace(att.ID) == "" {
		return fmt.Errorf("attachment id is required")
	}
	for _, a := range d.Attachments {
		if a.ID == att.ID {
			return fmt.Errorf("attachment %s already added", att.ID)
		}
	}
	d.Attachments = append(d.Attachments, att)
	return nil
}

// RemoveAttachment drops the attachment with the given id, if present.
func (d *Draft) RemoveAttachment(id string) {
	for i, a := range d.Attachments {
		if a.ID == id {
			d.Attachments = append(d.Attachments[:i], d.Attachments[i+1:]...)
			return
		}
	}
}

// SetSchedule sets the scheduled send time; nil means send immediately after
// confirmation.
func (d *Draft) SetSchedule(at *time.Time) {
	d.ScheduleAt = at
}

// UpdateSettings replaces the broadcast settings. When speed is back on auto
// and a channel is selected, the daily limit is re-derived so it can never
// drift from the quota policy.
func (d *Draft) UpdateSettings(s model.BroadcastSettings) error {
	if s.Speed == "" {
		s.Speed = model.SpeedAuto
	}
	if s.Speed != model.SpeedAuto && s.Speed != model.SpeedCustom {
		return appErrors.NewValidationError(StepScheduleRules, fmt.Sprintf("unknown speed %q", s.Speed))
	}
	if s.BroadcastHours.Mode == "" {
		s.BroadcastHours.Mode = model.BroadcastHoursAllDay
	}
	if s.DelayMin < 0 || s.DelayMax < 0 || (s.DelayMax > 0 && s.DelayMin > s.DelayMax) {
		return appErrors.NewValidationError(StepScheduleRules, "invalid delay range")
	}
	if s.Speed == model.SpeedAuto && d.Channel != nil {
		s.DailyLimit = quota.DailyLimit(d.Channel.Score)
	}
	if s.DailyLimit <= 0 {
		s.DailyLimit = model.DefaultSettings().DailyLimit
	}
	d.Settings = s
	return nil
}
