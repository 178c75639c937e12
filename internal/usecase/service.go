package usecase

import (
	"recipe-sharing/internal/data/repository"
	"recipe-sharing/pkg/auth"
	"recipe-sharing/pkg/filestore"

	"go.uber.org/zap"
)

type Service struct {
	Auth   AuthService
	User   UserService
	Recipe RecipeService
	Review ReviewService
}

func NewService(repo *repository.Repository, authenticator auth.Authenticator, files *filestore.Store, log *zap.Logger) *Service {
	return &Service{
		Auth:   NewAuthService(repo, authenticator, log),
		User:   NewUserService(repo.User, log),
		Recipe: NewRecipeService(repo, log),
		Review: NewReviewService(repo, files, log),
	}
}
