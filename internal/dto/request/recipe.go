package request

type CreateRecipeRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}
