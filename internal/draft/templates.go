package draft

import (
	"fmt"

	"github.com/sendkite/broadcast-backend/internal/model"
)

// TemplatePatch carries the fields of a template pick to merge. Nil fields
// are left untouched.
type TemplatePatch struct {
	Name   *string
	Weight *int
}

// AddTemplate adds a pick to the rotation set. Adding an id that is already
// present is a no-op: first write wins.
func (d *Draft) AddTemplate(pick model.TemplatePick) error {
	if pick.TemplateID == "" {
		return fmt.Errorf("template id is required")
	}
	for _, t := range d.Templates {
		if t.TemplateID == pick.TemplateID {
			return nil
		}
	}
	if pick.Weight < 1 {
		pick.Weight = 1
	}
	d.Templates = append(d.Templates, pick)
	return nil
}

// UpdateTemplate merges patch into the pick with the given id. Weight never
// drops below 1.
func (d *Draft) UpdateTemplate(templateID string, patch TemplatePatch) error {
	for i := range d.Templates {
		if d.Templates[i].TemplateID != templateID {
			continue
		}
		if patch.Name != nil {
			d.Templates[i].Name = *patch.Name
		}
		if patch.Weight != nil {
			w := *patch.Weight
			if w < 1 {
				w = 1
			}
			d.Templates[i].Weight = w
		}
		return nil
	}
	return fmt.Errorf("template %s not in rotation", templateID)
}

// RemoveTemplate drops the pick with the given id, if present.
func (d *Draft) RemoveTemplate(templateID string) {
	for i, t := range d.Templates {
		if t.TemplateID == templateID {
			d.Templates = append(d.Templates[:i], d.Templates[i+1:]...)
			return
		}
	}
}
