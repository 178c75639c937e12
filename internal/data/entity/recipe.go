package entity

import (
	"github.com/google/uuid"
)

type Recipe struct {
	Base
	AuthorID    uuid.UUID `db:"author_id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
}
