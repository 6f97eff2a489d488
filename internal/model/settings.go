package model

// Send speed presets. SpeedAuto derives the daily limit from the channel's
// trust score; SpeedCustom means the user overrode it.
const (
	SpeedAuto   = "auto"
	SpeedCustom = "custom"
)

// BroadcastHoursAllDay is the "24_7" broadcast window.
const BroadcastHoursAllDay = "24_7"

// BroadcastHours is either the all-day window or a custom HHmm range.
type BroadcastHours struct {
	Mode  string `json:"mode"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// BroadcastSettings are the sending rules attached to a campaign. All fields
// have valid defaults, so a draft never fails validation on settings alone.
type BroadcastSettings struct {
	Speed          string         `json:"speed"`
	BroadcastHours BroadcastHours `json:"broadcast_hours"`
	SimulateHuman  bool           `json:"simulate_human"`
	StopIfReply    bool           `json:"stop_if_reply"`
	DailyLimit     int            `json:"daily_limit"`
	DelayMin       int            `json:"delay_min,omitempty"`
	DelayMax       int            `json:"delay_max,omitempty"`
}

// DefaultSettings returns the settings a fresh draft starts with.
func DefaultSettings() BroadcastSettings {
	return BroadcastSettings{
		Speed:          SpeedAuto,
		BroadcastHours: BroadcastHours{Mode: BroadcastHoursAllDay},
		SimulateHuman:  true,
		StopIfReply:    false,
		DailyLimit:     50,
	}
}
