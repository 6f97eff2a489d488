package draft

import "time"

// Session owns one draft for the duration of an editing session. It is the
// single writer for its draft; there is no process-wide draft singleton.
type Session struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id,omitempty"` // set in edit mode
	Step       int       `json:"step"`
	Draft      *Draft    `json:"draft"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSession starts a fresh editing session on an empty draft.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Step:      StepChannelAudience,
		Draft:     New(),
		CreatedAt: time.Now(),
	}
}

// Next advances the wizard one step. The transition is blocked whenever the
// gate for the current step fails; the gate error is returned unchanged.
func (s *Session) Next() error {
	if err := Validate(s.Step, s.Draft); err != nil {
		return err
	}
	s.Step = clampStep(s.Step + 1)
	return nil
}

// Prev goes back one step. Going back is never blocked.
func (s *Session) Prev() {
	s.Step = clampStep(s.Step - 1)
}

// Validate runs the gate for the current step.
func (s *Session) Validate() error {
	return Validate(s.Step, s.Draft)
}
