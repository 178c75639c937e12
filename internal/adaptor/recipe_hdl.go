package adaptor

import (
	"encoding/json"
	"net/http"

	"recipe-sharing/internal/dto/request"
	"recipe-sharing/internal/usecase"
	"recipe-sharing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RecipeHandler struct {
	service usecase.RecipeService
	log     *zap.Logger
}

func NewRecipeHandler(service usecase.RecipeService, log *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		service: service,
		log:     log.With(zap.String("handler", "recipe")),
	}
}

// CreateRecipe handles POST /api/recipes (protected)
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	authorID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	recipe, err := h.service.CreateRecipe(r.Context(), authorID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create recipe")
		return
	}

	utils.ResponseCreated(w, "success", recipe)
}

// GetRecipe handles GET /api/recipes/{id} (public)
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "id")
	if recipeID == "" {
		utils.ResponseBadRequest(w, "Recipe ID is required", nil)
		return
	}

	recipe, err := h.service.GetRecipe(r.Context(), recipeID)
	if err != nil {
		handleServiceError(w, h.log, err, "get recipe")
		return
	}

	utils.ResponseSuccess(w, "success", recipe)
}

// SearchRecipes handles GET /api/recipes (public)
func (h *RecipeHandler) SearchRecipes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	recipes, err := h.service.SearchRecipes(r.Context(), query.Get("q"), req)
	if err != nil {
		handleServiceError(w, h.log, err, "search recipes")
		return
	}

	utils.ResponseSuccess(w, "success", recipes)
}

// DeleteRecipe handles DELETE /api/recipes/{id} (protected)
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	recipeID := chi.URLParam(r, "id")
	if recipeID == "" {
		utils.ResponseBadRequest(w, "Recipe ID is required", nil)
		return
	}

	if err := h.service.DeleteRecipe(r.Context(), callerID, recipeID); err != nil {
		handleServiceError(w, h.log, err, "delete recipe")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
