package entity

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	BaseSimple
	UserID     uuid.UUID  `db:"user_id"`
	RecipeID   uuid.UUID  `db:"recipe_id"`
	Rating     float64    `db:"rating"` // 0.0-5.0
	Context    *string    `db:"context"`
	ImageURL   *string    `db:"image_url"`
	ModifiedAt *time.Time `db:"modified_at"` // nil until the first update
}
