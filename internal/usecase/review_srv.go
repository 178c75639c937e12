package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-sharing/internal/data/entity"
	"recipe-sharing/internal/data/repository"
	"recipe-sharing/internal/dto/request"
	"recipe-sharing/internal/dto/response"
	"recipe-sharing/pkg/filestore"
	"recipe-sharing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	CreateReview(ctx context.Context, callerID uuid.UUID, req *request.CreateReviewRequest, image *request.ImageUpload) (*response.ReviewResponse, error)
	GetReview(ctx context.Context, reviewID string) (*response.ReviewResponse, error)
	GetReviewsByUser(ctx context.Context, callerID uuid.UUID, userID string) ([]response.ReviewResponse, error)
	GetReviewsByRecipe(ctx context.Context, recipeID string) ([]response.ReviewResponse, error)
	GetAllReviews(ctx context.Context) ([]response.ReviewResponse, error)
	UpdateReview(ctx context.Context, callerID uuid.UUID, reviewID string, req *request.UpdateReviewRequest, image *request.ImageUpload) (*response.ReviewResponse, error)
	DeleteReview(ctx context.Context, callerID uuid.UUID, reviewID string) error
	DeleteReviewImage(ctx context.Context, callerID uuid.UUID, reviewID string) error
}

type reviewService struct {
	repo  *repository.Repository
	files *filestore.Store
	log   *zap.Logger
}

func NewReviewService(repo *repository.Repository, files *filestore.Store, log *zap.Logger) ReviewService {
	return &reviewService{
		repo:  repo,
		files: files,
		log:   log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, callerID uuid.UUID, req *request.CreateReviewRequest, image *request.ImageUpload) (*response.ReviewResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// Identity gate before any persistence access
	if req.UserID == "" {
		return nil, ErrEmptyUserID
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", ErrValidation, req.UserID)
	}

	if userID != callerID {
		s.log.Warn("Create review user mismatch",
			zap.String("caller_id", callerID.String()),
			zap.String("user_id", req.UserID),
		)
		return nil, ErrUnauthorized
	}

	recipeID, err := uuid.Parse(req.RecipeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recipe ID %s", ErrValidation, req.RecipeID)
	}

	// Check user exists
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to check user", zap.Error(err), zap.String("user_id", req.UserID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	// Check recipe exists
	recipe, err := s.repo.Recipe.FindByID(ctx, recipeID)
	if err != nil {
		s.log.Error("Failed to check recipe", zap.Error(err), zap.String("recipe_id", req.RecipeID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}

	// Reject an obvious duplicate before writing anything; the unique
	// (user_id, recipe_id) constraint remains the arbiter under concurrency
	existing, err := s.repo.Review.FindByUserAndRecipe(ctx, userID, recipeID)
	if err != nil {
		s.log.Error("Failed to check existing review",
			zap.Error(err),
			zap.String("user_id", req.UserID),
			zap.String("recipe_id", req.RecipeID),
		)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if existing != nil {
		return nil, ErrReviewExists
	}

	// Create review entity
	now := time.Now()
	review := &entity.Review{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:   userID,
		RecipeID: recipeID,
		Rating:   req.Rating,
		Context:  req.Context,
	}

	// Store the image before touching the database; the file must be
	// durable before any row points at it
	var stored *filestore.StoredFile
	var imageRow *entity.ReviewImage
	if image != nil {
		stored, err = s.files.Save(image.Content, image.Filename)
		if err != nil {
			s.log.Error("Failed to store review image",
				zap.Error(err),
				zap.String("filename", image.Filename),
			)
			return nil, fmt.Errorf("%w: %v", ErrImageSave, err)
		}

		review.ImageURL = &stored.URL
		imageRow = &entity.ReviewImage{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: now,
			},
			ReviewID:    review.ID,
			ImgName:     stored.Name,
			ImgOrigName: stored.OriginalName,
			ImgPath:     stored.Path,
		}
	}

	// Review and attachment row land in one transaction. The unique
	// (user_id, recipe_id) constraint decides concurrent duplicates.
	if err := s.repo.Review.Create(ctx, review, imageRow); err != nil {
		// No orphaned file on any failure path
		if stored != nil {
			if rmErr := s.files.Remove(stored.Name); rmErr != nil {
				s.log.Warn("Failed to clean up image after aborted create",
					zap.Error(rmErr),
					zap.String("stored_name", stored.Name),
				)
			}
		}

		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrReviewExists
		}

		s.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("user_id", req.UserID),
			zap.String("recipe_id", req.RecipeID),
		)
		return nil, fmt.Errorf("%w: %v", ErrReviewPost, err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("user_id", req.UserID),
		zap.String("recipe_id", req.RecipeID),
		zap.Float64("rating", req.Rating),
	)

	resp := s.buildReviewResponse(ctx, review, true)
	return &resp, nil
}

func (s *reviewService) GetReview(ctx context.Context, reviewID string) (*response.ReviewResponse, error) {
	reviewUUID, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid review ID %s", ErrValidation, reviewID)
	}

	review, err := s.repo.Review.FindByID(ctx, reviewUUID)
	if err != nil {
		s.log.Error("Failed to get review", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}

	resp := s.buildReviewResponse(ctx, review, true)
	return &resp, nil
}

func (s *reviewService) GetReviewsByUser(ctx context.Context, callerID uuid.UUID, userID string) ([]response.ReviewResponse, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", ErrValidation, userID)
	}

	if userUUID != callerID {
		return nil, ErrUnauthorized
	}

	user, err := s.repo.User.FindByID(ctx, userUUID)
	if err != nil {
		s.log.Error("Failed to check user", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	reviews, err := s.repo.Review.FindByUser(ctx, userUUID)
	if err != nil {
		s.log.Error("Failed to get user reviews", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	// Zero reviews surface as not-found, matching the public API contract
	if len(reviews) == 0 {
		return nil, ErrReviewNotFound
	}

	responses := make([]response.ReviewResponse, len(reviews))
	for i, review := range reviews {
		responses[i] = s.buildReviewResponse(ctx, review, true)
	}

	s.log.Info("User reviews retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(reviews)),
	)

	return responses, nil
}

func (s *reviewService) GetReviewsByRecipe(ctx context.Context, recipeID string) ([]response.ReviewResponse, error) {
	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recipe ID %s", ErrValidation, recipeID)
	}

	recipe, err := s.repo.Recipe.FindByID(ctx, recipeUUID)
	if err != nil {
		s.log.Error("Failed to check recipe", zap.Error(err), zap.String("recipe_id", recipeID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}

	reviews, err := s.repo.Review.FindByRecipe(ctx, recipeUUID)
	if err != nil {
		s.log.Error("Failed to get recipe reviews", zap.Error(err), zap.String("recipe_id", recipeID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if len(reviews) == 0 {
		return nil, ErrReviewNotFound
	}

	responses := make([]response.ReviewResponse, len(reviews))
	for i, review := range reviews {
		responses[i] = s.buildReviewResponse(ctx, review, false)
	}

	s.log.Info("Recipe reviews retrieved",
		zap.String("recipe_id", recipeID),
		zap.Int("count", len(reviews)),
	)

	return responses, nil
}

func (s *reviewService) GetAllReviews(ctx context.Context) ([]response.ReviewResponse, error) {
	reviews, err := s.repo.Review.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to list reviews", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	responses := make([]response.ReviewResponse, len(reviews))
	for i, review := range reviews {
		responses[i] = s.buildReviewResponse(ctx, review, true)
	}

	return responses, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, callerID uuid.UUID, reviewID string, req *request.UpdateReviewRequest, image *request.ImageUpload) (*response.ReviewResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update review validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	reviewUUID, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid review ID %s", ErrValidation, reviewID)
	}

	review, err := s.repo.Review.FindByID(ctx, reviewUUID)
	if err != nil {
		s.log.Error("Failed to get review", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}

	// Check if review belongs to caller
	if review.UserID != callerID {
		return nil, ErrUnauthorized
	}

	// Apply only the supplied fields
	updated := false

	if req.Rating != nil {
		review.Rating = *req.Rating
		updated = true
	}

	if req.Context != nil {
		review.Context = req.Context
		updated = true
	}

	if !updated && image == nil {
		// No changes
		resp := s.buildReviewResponse(ctx, review, false)
		return &resp, nil
	}

	// New image bytes go to disk first; the old file stays in place until
	// the transaction below commits
	var stored *filestore.StoredFile
	var imageRow *entity.ReviewImage
	var previous *entity.ReviewImage

	now := time.Now()

	if image != nil {
		previous, err = s.repo.Review.FindImageByReviewID(ctx, reviewUUID)
		if err != nil {
			s.log.Error("Failed to check existing image", zap.Error(err), zap.String("review_id", reviewID))
			return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
		}

		if previous != nil {
			stored, err = s.files.Replace(previous.ImgName, image.Content, image.Filename)
		} else {
			stored, err = s.files.Save(image.Content, image.Filename)
		}
		if err != nil {
			s.log.Error("Failed to store review image",
				zap.Error(err),
				zap.String("review_id", reviewID),
				zap.String("filename", image.Filename),
			)
			return nil, fmt.Errorf("%w: %v", ErrImageSave, err)
		}

		review.ImageURL = &stored.URL
		imageRow = &entity.ReviewImage{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: now,
			},
			ReviewID:    review.ID,
			ImgName:     stored.Name,
			ImgOrigName: stored.OriginalName,
			ImgPath:     stored.Path,
		}
	}

	review.ModifiedAt = &now

	if err := s.repo.Review.Update(ctx, review, imageRow); err != nil {
		// Prior state stays intact: discard the new file, keep the old one
		if stored != nil {
			if rmErr := s.files.Remove(stored.Name); rmErr != nil {
				s.log.Warn("Failed to clean up image after aborted update",
					zap.Error(rmErr),
					zap.String("stored_name", stored.Name),
				)
			}
		}

		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}

		s.log.Error("Failed to update review", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	// Old bytes are discarded only after the new handle committed
	if previous != nil && stored != nil {
		if err := s.files.Remove(previous.ImgName); err != nil {
			s.log.Warn("Failed to remove replaced image",
				zap.Error(err),
				zap.String("stored_name", previous.ImgName),
			)
		}
	}

	s.log.Info("Review updated",
		zap.String("review_id", reviewID),
		zap.String("user_id", callerID.String()),
		zap.Bool("image_replaced", stored != nil),
	)

	resp := s.buildReviewResponse(ctx, review, false)
	return &resp, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, callerID uuid.UUID, reviewID string) error {
	reviewUUID, err := uuid.Parse(reviewID)
	if err != nil {
		return fmt.Errorf("%w: invalid review ID %s", ErrValidation, reviewID)
	}

	review, err := s.repo.Review.FindByID(ctx, reviewUUID)
	if err != nil {
		s.log.Error("Failed to get review", zap.Error(err), zap.String("review_id", reviewID))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if review == nil {
		// Deleting an absent review is a no-op
		return nil
	}

	if review.UserID != callerID {
		return ErrUnauthorized
	}

	image, err := s.repo.Review.FindImageByReviewID(ctx, reviewUUID)
	if err != nil {
		s.log.Error("Failed to check review image", zap.Error(err), zap.String("review_id", reviewID))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if err := s.repo.Review.Delete(ctx, reviewUUID); err != nil {
		s.log.Error("Failed to delete review", zap.Error(err), zap.String("review_id", reviewID))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	// Attachment bytes go last, after the rows are gone
	if image != nil {
		if err := s.files.Remove(image.ImgName); err != nil {
			s.log.Warn("Failed to remove image of deleted review",
				zap.Error(err),
				zap.String("stored_name", image.ImgName),
			)
		}
	}

	s.log.Info("Review deleted",
		zap.String("review_id", reviewID),
		zap.String("user_id", callerID.String()),
		zap.Bool("had_image", image != nil),
	)

	return nil
}

func (s *reviewService) DeleteReviewImage(ctx context.Context, callerID uuid.UUID, reviewID string) error {
	reviewUUID, err := uuid.Parse(reviewID)
	if err != nil {
		return fmt.Errorf("%w: invalid review ID %s", ErrValidation, reviewID)
	}

	review, err := s.repo.Review.FindByID(ctx, reviewUUID)
	if err != nil {
		s.log.Error("Failed to get review", zap.Error(err), zap.String("review_id", reviewID))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if review == nil {
		return nil
	}

	if review.UserID != callerID {
		return ErrUnauthorized
	}

	image, err := s.repo.Review.FindImageByReviewID(ctx, reviewUUID)
	if err != nil {
		s.log.Error("Failed to check review image", zap.Error(err), zap.String("review_id", reviewID))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if image == nil {
		// Nothing attached
		return nil
	}

	if err := s.repo.Review.DeleteImage(ctx, reviewUUID); err != nil {
		s.log.Error("Failed to delete review image", zap.Error(err), zap.String("review_id", reviewID))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if err := s.files.Remove(image.ImgName); err != nil {
		s.log.Warn("Failed to remove image file",
			zap.Error(err),
			zap.String("stored_name", image.ImgName),
		)
	}

	s.log.Info("Review image deleted",
		zap.String("review_id", reviewID),
		zap.String("user_id", callerID.String()),
	)

	return nil
}

// ==================== HELPER METHODS ====================

// buildReviewResponse assembles the denormalized view: reviewer nickname,
// recipe name and, when asked for, the recipe's live average rating.
func (s *reviewService) buildReviewResponse(ctx context.Context, review *entity.Review, withAverage bool) response.ReviewResponse {
	nickname := ""
	user, err := s.repo.User.FindByID(ctx, review.UserID)
	if err != nil {
		s.log.Warn("Failed to look up reviewer nickname",
			zap.Error(err),
			zap.String("user_id", review.UserID.String()),
		)
	} else if user != nil {
		nickname = user.Nickname
	}

	recipeName := ""
	recipe, err := s.repo.Recipe.FindByID(ctx, review.RecipeID)
	if err != nil {
		s.log.Warn("Failed to look up recipe name",
			zap.Error(err),
			zap.String("recipe_id", review.RecipeID.String()),
		)
	} else if recipe != nil {
		recipeName = recipe.Name
	}

	var average *float64
	if withAverage {
		if avg, err := s.repo.Review.RecipeAverageRating(ctx, review.RecipeID); err == nil {
			average = &avg
		} else {
			s.log.Warn("Failed to compute recipe average rating",
				zap.Error(err),
				zap.String("recipe_id", review.RecipeID.String()),
			)
		}
	}

	return response.ReviewToResponse(review, nickname, recipeName, average)
}
