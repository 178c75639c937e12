package repository

import (
	"context"
	"errors"
	"fmt"

	"recipe-sharing/internal/data/entity"
	"recipe-sharing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

type ReviewRepository interface {
	// Create inserts the review and, when image is non-nil, its attachment
	// row in one transaction. A (user_id, recipe_id) collision returns
	// ErrDuplicate; the unique constraint makes concurrent inserts for the
	// same pair commute to one winner.
	Create(ctx context.Context, review *entity.Review, image *entity.ReviewImage) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	FindByUserAndRecipe(ctx context.Context, userID, recipeID uuid.UUID) (*entity.Review, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Review, error)
	FindByRecipe(ctx context.Context, recipeID uuid.UUID) ([]*entity.Review, error)
	FindAll(ctx context.Context) ([]*entity.Review, error)
	// Update rewrites the review row and, when image is non-nil, upserts the
	// attachment row in the same transaction.
	Update(ctx context.Context, review *entity.Review, image *entity.ReviewImage) error
	// Delete removes the review; deleting an absent review is a no-op.
	Delete(ctx context.Context, id uuid.UUID) error
	FindImageByReviewID(ctx context.Context, reviewID uuid.UUID) (*entity.ReviewImage, error)
	// DeleteImage drops the attachment row and clears image_url together.
	DeleteImage(ctx context.Context, reviewID uuid.UUID) error

	// RecipeAverageRating computes the mean rating across the recipe's
	// reviews; zero reviews yield 0, never an error.
	RecipeAverageRating(ctx context.Context, recipeID uuid.UUID) (float64, error)
}

type reviewRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReviewRepository(db database.PgxIface, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

const reviewColumns = `id, user_id, recipe_id, rating, context, image_url, created_at, modified_at`

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review, image *entity.ReviewImage) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create review: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO reviews (id, user_id, recipe_id, rating, context, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.RecipeID,
		review.Rating,
		review.Context,
		review.ImageURL,
		review.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("user_id", review.UserID.String()),
			zap.String("recipe_id", review.RecipeID.String()),
		)
		return fmt.Errorf("create review for recipe %s by user %s: %w",
			review.RecipeID.String(), review.UserID.String(), err)
	}

	if image != nil {
		if err := insertImage(ctx, tx, image); err != nil {
			r.log.Error("Failed to create review image",
				zap.Error(err),
				zap.String("review_id", review.ID.String()),
			)
			return fmt.Errorf("create review image for %s: %w", review.ID.String(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create review: %w", err)
	}

	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE id = $1
	`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return nil, fmt.Errorf("find review by ID %s: %w", id.String(), err)
	}

	return review, nil
}

func (r *reviewRepository) FindByUserAndRecipe(ctx context.Context, userID, recipeID uuid.UUID) (*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1 AND recipe_id = $2
		LIMIT 1
	`

	review, err := scanReview(r.db.QueryRow(ctx, query, userID, recipeID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by user and recipe",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("recipe_id", recipeID.String()),
		)
		return nil, fmt.Errorf("find review by user %s and recipe %s: %w",
			userID.String(), recipeID.String(), err)
	}

	return review, nil
}

func (r *reviewRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1
		ORDER BY rating DESC, id ASC
	`

	return r.queryList(ctx, query, "user_id", userID)
}

func (r *reviewRepository) FindByRecipe(ctx context.Context, recipeID uuid.UUID) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE recipe_id = $1
		ORDER BY rating DESC, id ASC
	`

	return r.queryList(ctx, query, "recipe_id", recipeID)
}

func (r *reviewRepository) FindAll(ctx context.Context) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		ORDER BY rating DESC, id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list reviews", zap.Error(err))
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func (r *reviewRepository) queryList(ctx context.Context, query, field string, id uuid.UUID) ([]*entity.Review, error) {
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to list reviews",
			zap.Error(err),
			zap.String(field, id.String()),
		)
		return nil, fmt.Errorf("list reviews by %s %s: %w", field, id.String(), err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review, image *entity.ReviewImage) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update review: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE reviews
		SET rating = $2, context = $3, image_url = $4, modified_at = $5
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query,
		review.ID,
		review.Rating,
		review.Context,
		review.ImageURL,
		review.ModifiedAt,
	)

	if err != nil {
		r.log.Error("Failed to update review",
			zap.Error(err),
			zap.String("review_id", review.ID.String()),
		)
		return fmt.Errorf("update review %s: %w", review.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if image != nil {
		if err := upsertImage(ctx, tx, image); err != nil {
			r.log.Error("Failed to upsert review image",
				zap.Error(err),
				zap.String("review_id", review.ID.String()),
			)
			return fmt.Errorf("upsert review image for %s: %w", review.ID.String(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update review: %w", err)
	}

	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// review_images rows go with the review via ON DELETE CASCADE
	query := `DELETE FROM reviews WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete review",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return fmt.Errorf("delete review %s: %w", id.String(), err)
	}

	return nil
}

func (r *reviewRepository) FindImageByReviewID(ctx context.Context, reviewID uuid.UUID) (*entity.ReviewImage, error) {
	query := `
		SELECT id, review_id, img_name, img_orig_name, img_path, created_at
		FROM review_images
		WHERE review_id = $1
	`

	var image entity.ReviewImage
	err := r.db.QueryRow(ctx, query, reviewID).Scan(
		&image.ID,
		&image.ReviewID,
		&image.ImgName,
		&image.ImgOrigName,
		&image.ImgPath,
		&image.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review image",
			zap.Error(err),
			zap.String("review_id", reviewID.String()),
		)
		return nil, fmt.Errorf("find image for review %s: %w", reviewID.String(), err)
	}

	return &image, nil
}

func (r *reviewRepository) DeleteImage(ctx context.Context, reviewID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete review image: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM review_images WHERE review_id = $1`, reviewID); err != nil {
		r.log.Error("Failed to delete review image row",
			zap.Error(err),
			zap.String("review_id", reviewID.String()),
		)
		return fmt.Errorf("delete image row for review %s: %w", reviewID.String(), err)
	}

	if _, err := tx.Exec(ctx, `UPDATE reviews SET image_url = NULL WHERE id = $1`, reviewID); err != nil {
		r.log.Error("Failed to clear review image URL",
			zap.Error(err),
			zap.String("review_id", reviewID.String()),
		)
		return fmt.Errorf("clear image URL for review %s: %w", reviewID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete review image: %w", err)
	}

	return nil
}

func (r *reviewRepository) RecipeAverageRating(ctx context.Context, recipeID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE recipe_id = $1`

	var avgRating float64
	err := r.db.QueryRow(ctx, query, recipeID).Scan(&avgRating)
	if err != nil {
		r.log.Error("Failed to get recipe average rating",
			zap.Error(err),
			zap.String("recipe_id", recipeID.String()),
		)
		return 0, fmt.Errorf("get recipe average rating for %s: %w", recipeID.String(), err)
	}

	return avgRating, nil
}

// ==================== ROW HELPERS ====================

func scanReview(row pgx.Row) (*entity.Review, error) {
	var review entity.Review
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.RecipeID,
		&review.Rating,
		&review.Context,
		&review.ImageURL,
		&review.CreatedAt,
		&review.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func collectReviews(rows pgx.Rows) ([]*entity.Review, error) {
	var reviews []*entity.Review
	for rows.Next() {
		var review entity.Review
		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.RecipeID,
			&review.Rating,
			&review.Context,
			&review.ImageURL,
			&review.CreatedAt,
			&review.ModifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

func insertImage(ctx context.Context, tx pgx.Tx, image *entity.ReviewImage) error {
	query := `
		INSERT INTO review_images (id, review_id, img_name, img_orig_name, img_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		image.ID,
		image.ReviewID,
		image.ImgName,
		image.ImgOrigName,
		image.ImgPath,
		image.CreatedAt,
	)
	return err
}

func upsertImage(ctx context.Context, tx pgx.Tx, image *entity.ReviewImage) error {
	query := `
		INSERT INTO review_images (id, review_id, img_name, img_orig_name, img_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (review_id) DO UPDATE
		SET img_name = EXCLUDED.img_name,
		    img_orig_name = EXCLUDED.img_orig_name,
		    img_path = EXCLUDED.img_path
	`

	_, err := tx.Exec(ctx, query,
		image.ID,
		image.ReviewID,
		image.ImgName,
		image.ImgOrigName,
		image.ImgPath,
		image.CreatedAt,
	)
	return err
}
