package response

import (
	"time"

	"recipe-sharing/internal/data/entity"
)

type ReviewResponse struct {
	ID         string     `json:"review_id"`
	UserID     string     `json:"user_id"`
	RecipeID   string     `json:"recipe_id"`
	Context    *string    `json:"context,omitempty"`
	ImageURL   *string    `json:"image_url,omitempty"`
	Rating     float64    `json:"rating"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	Nickname   string     `json:"nickname,omitempty"`
	RecipeName string     `json:"recipe_name,omitempty"`

	// Mean rating across the recipe's reviews, present on the operations
	// that include it
	RecipeAverageRating *float64 `json:"recipe_average_rating,omitempty"`
}

// Helper converter
func ReviewToResponse(review *entity.Review, nickname, recipeName string, recipeAverage *float64) ReviewResponse {
	return ReviewResponse{
		ID:                  review.ID.String(),
		UserID:              review.UserID.String(),
		RecipeID:            review.RecipeID.String(),
		Context:             review.Context,
		ImageURL:            review.ImageURL,
		Rating:              review.Rating,
		CreatedAt:           review.CreatedAt,
		ModifiedAt:          review.ModifiedAt,
		Nickname:            nickname,
		RecipeName:          recipeName,
		RecipeAverageRating: recipeAverage,
	}
}
