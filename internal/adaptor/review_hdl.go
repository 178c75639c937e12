package adaptor

import (
	"encoding/json"
	"net/http"
	"strings"

	"recipe-sharing/internal/dto/request"
	"recipe-sharing/internal/usecase"
	"recipe-sharing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxImageMemory = 10 << 20 // 10 MB

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// CreateReview handles POST /api/reviews (protected, multipart or JSON)
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateReviewRequest
	var image *request.ImageUpload

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxImageMemory); err != nil {
			utils.ResponseBadRequest(w, "Invalid multipart form", nil)
			return
		}

		req.RecipeID = r.FormValue("recipe_id")
		req.UserID = r.FormValue("user_id")

		if rating, ok := utils.ParseFloat(r.FormValue("rating")); ok {
			req.Rating = rating
		}

		if values, ok := r.MultipartForm.Value["context"]; ok && len(values) > 0 {
			req.Context = &values[0]
		}

		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			image = &request.ImageUpload{
				Content:  file,
				Filename: header.Filename,
			}
		} else if err != http.ErrMissingFile {
			utils.ResponseBadRequest(w, "Invalid image upload", nil)
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return
		}
	}

	review, err := h.service.CreateReview(r.Context(), callerID, &req, image)
	if err != nil {
		handleServiceError(w, h.log, err, "create review")
		return
	}

	utils.ResponseCreated(w, "success", review)
}

// GetReview handles GET /api/reviews/{id} (public)
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")
	if reviewID == "" {
		utils.ResponseBadRequest(w, "Review ID is required", nil)
		return
	}

	review, err := h.service.GetReview(r.Context(), reviewID)
	if err != nil {
		handleServiceError(w, h.log, err, "get review")
		return
	}

	utils.ResponseSuccess(w, "success", review)
}

// GetAllReviews handles GET /api/reviews (public)
func (h *ReviewHandler) GetAllReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetAllReviews(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// GetUserReviews handles GET /api/users/{id}/reviews (protected)
func (h *ReviewHandler) GetUserReviews(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	userID := chi.URLParam(r, "id")
	if userID == "" {
		utils.ResponseBadRequest(w, "User ID is required", nil)
		return
	}

	reviews, err := h.service.GetReviewsByUser(r.Context(), callerID, userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get user reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// GetRecipeReviews handles GET /api/recipes/{id}/reviews (public)
func (h *ReviewHandler) GetRecipeReviews(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "id")
	if recipeID == "" {
		utils.ResponseBadRequest(w, "Recipe ID is required", nil)
		return
	}

	reviews, err := h.service.GetReviewsByRecipe(r.Context(), recipeID)
	if err != nil {
		handleServiceError(w, h.log, err, "get recipe reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// UpdateReview handles PATCH /api/reviews/{id} (protected, multipart or JSON)
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reviewID := chi.URLParam(r, "id")
	if reviewID == "" {
		utils.ResponseBadRequest(w, "Review ID is required", nil)
		return
	}

	var req request.UpdateReviewRequest
	var image *request.ImageUpload

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxImageMemory); err != nil {
			utils.ResponseBadRequest(w, "Invalid multipart form", nil)
			return
		}

		if rating, ok := utils.ParseFloat(r.FormValue("rating")); ok {
			req.Rating = &rating
		}

		if values, ok := r.MultipartForm.Value["context"]; ok && len(values) > 0 {
			req.Context = &values[0]
		}

		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			image = &request.ImageUpload{
				Content:  file,
				Filename: header.Filename,
			}
		} else if err != http.ErrMissingFile {
			utils.ResponseBadRequest(w, "Invalid image upload", nil)
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return
		}
	}

	review, err := h.service.UpdateReview(r.Context(), callerID, reviewID, &req, image)
	if err != nil {
		handleServiceError(w, h.log, err, "update review")
		return
	}

	utils.ResponseSuccess(w, "success", review)
}

// DeleteReview handles DELETE /api/reviews/{id} (protected)
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reviewID := chi.URLParam(r, "id")
	if reviewID == "" {
		utils.ResponseBadRequest(w, "Review ID is required", nil)
		return
	}

	if err := h.service.DeleteReview(r.Context(), callerID, reviewID); err != nil {
		handleServiceError(w, h.log, err, "delete review")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// DeleteReviewImage handles DELETE /api/reviews/{id}/image (protected)
func (h *ReviewHandler) DeleteReviewImage(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reviewID := chi.URLParam(r, "id")
	if reviewID == "" {
		utils.ResponseBadRequest(w, "Review ID is required", nil)
		return
	}

	if err := h.service.DeleteReviewImage(r.Context(), callerID, reviewID); err != nil {
		handleServiceError(w, h.log, err, "delete review image")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
