package response

import (
	"time"

	"recipe-sharing/internal/data/entity"
)

type RecipeResponse struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
}

// Helper converter
func RecipeToResponse(recipe *entity.Recipe, averageRating float64) RecipeResponse {
	return RecipeResponse{
		ID:            recipe.ID.String(),
		AuthorID:      recipe.AuthorID.String(),
		Name:          recipe.Name,
		Description:   recipe.Description,
		AverageRating: averageRating,
		CreatedAt:     recipe.CreatedAt,
	}
}
