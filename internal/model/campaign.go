package model

import "time"

// CampaignStatus represents valid campaign statuses.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// Campaign is the persisted form of a submitted broadcast draft.
type Campaign struct {
	ID           string            `db:"id" json:"id"`
	Name         string            `db:"name" json:"name"`
	Recipients   []string          `db:"recipients" json:"recipients"`
	Templates    []TemplatePick    `db:"templates" json:"templates"`
	Message      string            `db:"message" json:"message"`
	Attachments  []Attachment      `db:"attachments" json:"attachments"`
	Settings     BroadcastSettings `db:"settings" json:"settings"`
	ScheduledAt  *time.Time        `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Channel      *Channel          `db:"-" json:"channel,omitempty"`
	ChannelID    string            `db:"channel_id" json:"channel_id"`
	ChannelLabel string            `db:"channel_label" json:"channel_label"`
	Status       CampaignStatus    `db:"status" json:"status"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time        `db:"updated_at" json:"updated_at,omitempty"`
}

// TemplatePick references a reusable message template plus a rotation weight.
// Weight is a relative integer >= 1 used by the sender to pick among templates.
type TemplatePick struct {
	TemplateID string `json:"template_id"`
	Name       string `json:"name,omitempty"`
	Weight     int    `json:"weight"`
}

// Attachment is a file attached to a campaign message.
type Attachment struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Mime      string `json:"mime"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url,omitempty"`
	LocalRef  string `json:"local_ref,omitempty"`
}

// AudienceMode selects how a draft's recipients are resolved.
type AudienceMode string

const (
	AudienceModeAll      AudienceMode = "all"
	AudienceModeContacts AudienceMode = "contacts"
)

// AudienceQuery holds the resolved recipient set for a draft. Numbers are
// canonical phone keys with no duplicates.
type AudienceQuery struct {
	Mode    AudienceMode `json:"mode"`
	Numbers []string     `json:"numbers"`
}
