package model

import "time"

// Company is an external collaborator record; this service only reads it
// to group devices for bulk fan-out and the fleet list view.
type Company struct {
	ID        int       `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
