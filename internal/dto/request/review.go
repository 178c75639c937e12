package request

import (
	"io"
)

type CreateReviewRequest struct {
	RecipeID string  `json:"recipe_id" validate:"required,uuid4"`
	UserID   string  `json:"user_id" validate:"omitempty,uuid4"`
	Rating   float64 `json:"rating" validate:"min=0,max=5"`
	Context  *string `json:"context,omitempty" validate:"omitempty,max=500"`
}

// UpdateReviewRequest carries only the fields to overwrite; nil means keep.
// A present zero rating is a real update, not a no-change sentinel.
type UpdateReviewRequest struct {
	Rating  *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Context *string  `json:"context,omitempty" validate:"omitempty,max=500"`
}

// ImageUpload is the optional multipart image accompanying a review write
type ImageUpload struct {
	Content  io.Reader
	Filename string
}
