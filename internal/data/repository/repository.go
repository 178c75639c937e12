package repository

import (
	"errors"

	"recipe-sharing/pkg/database"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned by writes that matched no row
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint
	ErrDuplicate = errors.New("resource already exists")
)

type Repository struct {
	User   UserRepository
	Recipe RecipeRepository
	Review ReviewRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:   NewUserRepository(db, log),
		Recipe: NewRecipeRepository(db, log),
		Review: NewReviewRepository(db, log),
	}
}
