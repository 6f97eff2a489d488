package model

import "time"

// Contact is an entry in the contact book. Phone is always the canonical
// normalized form and is unique across the whole book.
type Contact struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name,omitempty"`
	Phone     string    `db:"phone" json:"phone"`
	Tags      []string  `db:"tags" json:"tags"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
