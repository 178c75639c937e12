package usecase

import (
	"context"
	"fmt"
	"time"

	"recipe-sharing/internal/data/entity"
	"recipe-sharing/internal/data/repository"
	"recipe-sharing/internal/dto/request"
	"recipe-sharing/internal/dto/response"
	"recipe-sharing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RecipeService interface {
	CreateRecipe(ctx context.Context, authorID uuid.UUID, req *request.CreateRecipeRequest) (*response.RecipeResponse, error)
	GetRecipe(ctx context.Context, recipeID string) (*response.RecipeResponse, error)
	SearchRecipes(ctx context.Context, keyword string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RecipeResponse], error)
	DeleteRecipe(ctx context.Context, callerID uuid.UUID, recipeID string) error
}

type recipeService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewRecipeService(repo *repository.Repository, log *zap.Logger) RecipeService {
	return &recipeService{
		repo: repo,
		log:  log.With(zap.String("service", "recipe")),
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, req *request.CreateRecipeRequest) (*response.RecipeResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create recipe validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	now := time.Now()
	recipe := &entity.Recipe{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		AuthorID:    authorID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.repo.Recipe.Create(ctx, recipe); err != nil {
		s.log.Error("Failed to create recipe",
			zap.Error(err),
			zap.String("author_id", authorID.String()),
		)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	s.log.Info("Recipe created",
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("author_id", authorID.String()),
	)

	resp := response.RecipeToResponse(recipe, 0)
	return &resp, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, recipeID string) (*response.RecipeResponse, error) {
	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recipe ID %s", ErrValidation, recipeID)
	}

	recipe, err := s.repo.Recipe.FindByID(ctx, recipeUUID)
	if err != nil {
		s.log.Error("Failed to get recipe", zap.Error(err), zap.String("recipe_id", recipeID))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}

	avgRating, err := s.repo.Review.RecipeAverageRating(ctx, recipeUUID)
	if err != nil {
		s.log.Warn("Failed to compute average rating",
			zap.Error(err),
			zap.String("recipe_id", recipeID),
		)
		// Show the recipe anyway
	}

	resp := response.RecipeToResponse(recipe, avgRating)
	return &resp, nil
}

func (s *recipeService) SearchRecipes(ctx context.Context, keyword string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RecipeResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	recipes, err := s.repo.Recipe.Search(ctx, keyword, limit, offset)
	if err != nil {
		s.log.Error("Failed to search recipes",
			zap.Error(err),
			zap.String("keyword", keyword),
		)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	total, err := s.repo.Recipe.CountSearch(ctx, keyword)
	if err != nil {
		s.log.Error("Failed to count recipes", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	responses := make([]response.RecipeResponse, len(recipes))
	for i, recipe := range recipes {
		avgRating, err := s.repo.Review.RecipeAverageRating(ctx, recipe.ID)
		if err != nil {
			s.log.Warn("Failed to compute average rating",
				zap.Error(err),
				zap.String("recipe_id", recipe.ID.String()),
			)
		}
		responses[i] = response.RecipeToResponse(recipe, avgRating)
	}

	s.log.Info("Recipes searched",
		zap.String("keyword", keyword),
		zap.Int("count", len(recipes)),
		zap.Int64("total", total),
	)

	return response.NewPaginatedResponse(responses, req.Page, req.PerPage, total), nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, callerID uuid.UUID, recipeID string) error {
	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return fmt.Errorf("%w: invalid recipe ID %s", ErrValidation, recipeID)
	}

	recipe, err := s.repo.Recipe.FindByID(ctx, recipeUUID)
	if err != nil {
		s.log.Error("Failed to get recipe", zap.Error(err), zap.String("recipe_id", recipeID))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if recipe == nil {
		return ErrRecipeNotFound
	}

	if recipe.AuthorID != callerID {
		return ErrUnauthorized
	}

	if err := s.repo.Recipe.Delete(ctx, recipeUUID); err != nil {
		s.log.Error("Failed to delete recipe", zap.Error(err), zap.String("recipe_id", recipeID))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	s.log.Info("Recipe deleted",
		zap.String("recipe_id", recipeID),
		zap.String("author_id", callerID.String()),
	)

	return nil
}
