package draft

import (
	"fmt"

	appErrors "github.com/sendkite/broadcast-backend/internal/errors"
	"github.com/sendkite/broadcast-backend/internal/model"
)

// Audience mutations keep AudienceCount equal to the cardinality of
// Audience.Numbers at all times. Numbers are trusted as canonical once in
// the set; normalization happens at the contact book / import boundary.

// SetNumbers replaces the recipient set with a deduplicated copy of list and
// forces contacts mode. There is no fallback to any legacy manual mode.
func (d *Draft) SetNumbers(list []string) {
	seen := make(map[string]struct{}, len(list))
	numbers := make([]string, 0, len(list))
	for _, p := range list {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		numbers = append(numbers, p)
	}
	d.Audience.Mode = model.AudienceModeContacts
	d.Audience.Numbers = numbers
	d.AudienceCount = len(numbers)
}

// ToggleNumber adds the canonical phone if absent, removes it if present.
func (d *Draft) ToggleNumber(p string) {
	if p == "" {
		return
	}
	for i, n := range d.Audience.Numbers {
		if n == p {
			d.Audience.Numbers = append(d.Audience.Numbers[:i], d.Audience.Numbers[i+1:]...)
			d.AudienceCount = len(d.Audience.Numbers)
			return
		}
	}
	d.Audience.Mode = model.AudienceModeContacts
	d.Audience.Numbers = append(d.Audience.Numbers, p)
	d.AudienceCount = len(d.Audience.Numbers)
}

// SelectVisible unions the current set with the phones of a filtered contact
// view. Previously selected numbers outside the view are kept.
func (d *Draft) SelectVisible(visible []model.Contact) {
	seen := make(map[string]struct{}, len(d.Audience.Numbers))
	for _, n := range d.Audience.Numbers {
		seen[n] = struct{}{}
	}
	for _, c := range visible {
		if c.Phone == "" {
			continue
		}
		if _, ok := seen[c.Phone]; ok {
			continue
		}
		seen[c.Phone] = struct{}{}
		d.Audience.Numbers = append(d.Audience.Numbers, c.Phone)
	}
	d.Audience.Mode = model.AudienceModeContacts
	d.AudienceCount = len(d.Audience.Numbers)
}

// ClearAudience empties the recipient set.
func (d *Draft) ClearAudience() {
	d.Audience.Numbers = []string{}
	d.AudienceCount = 0
}

// SetAudienceMode switches between "all" and "contacts". The numbers set is
// kept so switching back does not lose a selection.
func (d *Draft) SetAudienceMode(mode model.AudienceMode) error {
	if mode != model.AudienceModeAll && mode != model.AudienceModeContacts {
		return appErrors.NewValidationError(StepChannelAudience, fmt.Sprintf("unsupported audience mode %q", mode))
	}
	d.Audience.Mode = mode
	return nil
}
