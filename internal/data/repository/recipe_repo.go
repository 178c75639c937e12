package repository

import (
	"context"
	"fmt"

	"recipe-sharing/internal/data/entity"
	"recipe-sharing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RecipeRepository interface {
	Create(ctx context.Context, recipe *entity.Recipe) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Recipe, error)
	Search(ctx context.Context, keyword string, limit, offset int) ([]*entity.Recipe, error)
	CountSearch(ctx context.Context, keyword string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type recipeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRecipeRepository(db database.PgxIface, log *zap.Logger) RecipeRepository {
	return &recipeRepository{
		db:  db,
		log: log.With(zap.String("repository", "recipe")),
	}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *entity.Recipe) error {
	query := `
		INSERT INTO recipes (id, author_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		recipe.ID,
		recipe.AuthorID,
		recipe.Name,
		recipe.Description,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create recipe",
			zap.Error(err),
			zap.String("name", recipe.Name),
		)
		return fmt.Errorf("create recipe %s: %w", recipe.Name, err)
	}

	return nil
}

func (r *recipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Recipe, error) {
	query := `
		SELECT id, author_id, name, description, created_at, updated_at
		FROM recipes
		WHERE id = $1
	`

	var recipe entity.Recipe
	err := r.db.QueryRow(ctx, query, id).Scan(
		&recipe.ID,
		&recipe.AuthorID,
		&recipe.Name,
		&recipe.Description,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find recipe by ID",
			zap.Error(err),
			zap.String("recipe_id", id.String()),
		)
		return nil, fmt.Errorf("find recipe by ID %s: %w", id.String(), err)
	}

	return &recipe, nil
}

func (r *recipeRepository) Search(ctx context.Context, keyword string, limit, offset int) ([]*entity.Recipe, error) {
	query := `
		SELECT id, author_id, name, description, created_at, updated_at
		FROM recipes
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, keyword, limit, offset)
	if err != nil {
		r.log.Error("Failed to search recipes",
			zap.Error(err),
			zap.String("keyword", keyword),
		)
		return nil, fmt.Errorf("search recipes %q: %w", keyword, err)
	}
	defer rows.Close()

	var recipes []*entity.Recipe
	for rows.Next() {
		var recipe entity.Recipe
		err := rows.Scan(
			&recipe.ID,
			&recipe.AuthorID,
			&recipe.Name,
			&recipe.Description,
			&recipe.CreatedAt,
			&recipe.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan recipe row", zap.Error(err))
			return nil, fmt.Errorf("scan recipe row: %w", err)
		}
		recipes = append(recipes, &recipe)
	}

	return recipes, nil
}

func (r *recipeRepository) CountSearch(ctx context.Context, keyword string) (int64, error) {
	query := `SELECT COUNT(*) FROM recipes WHERE name ILIKE '%' || $1 || '%'`

	var count int64
	err := r.db.QueryRow(ctx, query, keyword).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count recipes",
			zap.Error(err),
			zap.String("keyword", keyword),
		)
		return 0, fmt.Errorf("count recipes %q: %w", keyword, err)
	}

	return count, nil
}

func (r *recipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM recipes WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete recipe",
			zap.Error(err),
			zap.String("recipe_id", id.String()),
		)
		return fmt.Errorf("delete recipe %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
