package usecase

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"recipe-sharing/internal/data/entity"
	"recipe-sharing/internal/data/repository"
	"recipe-sharing/internal/dto/request"
	"recipe-sharing/pkg/filestore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ==================== IN-MEMORY FAKES ====================

type fakeUserRepo struct {
	users    map[uuid.UUID]*entity.User
	failFind error
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if f.failFind != nil {
		return nil, f.failFind
	}
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByNickname(_ context.Context, nickname string) (*entity.User, error) {
	for _, user := range f.users {
		if user.Nickname == nickname {
			return user, nil
		}
	}
	return nil, nil
}

type fakeRecipeRepo struct {
	recipes  map[uuid.UUID]*entity.Recipe
	failFind error
}

func (f *fakeRecipeRepo) Create(_ context.Context, recipe *entity.Recipe) error {
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Recipe, error) {
	if f.failFind != nil {
		return nil, f.failFind
	}
	return f.recipes[id], nil
}

func (f *fakeRecipeRepo) Search(_ context.Context, keyword string, limit, offset int) ([]*entity.Recipe, error) {
	var out []*entity.Recipe
	for _, recipe := range f.recipes {
		if strings.Contains(strings.ToLower(recipe.Name), strings.ToLower(keyword)) {
			out = append(out, recipe)
		}
	}
	return out, nil
}

func (f *fakeRecipeRepo) CountSearch(_ context.Context, keyword string) (int64, error) {
	found, _ := f.Search(context.Background(), keyword, 0, 0)
	return int64(len(found)), nil
}

func (f *fakeRecipeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.recipes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.recipes, id)
	return nil
}

type fakeReviewRepo struct {
	reviews map[uuid.UUID]*entity.Review
	images  map[uuid.UUID]*entity.ReviewImage // keyed by review ID

	failCreate error
	failUpdate error
}

func (f *fakeReviewRepo) Create(_ context.Context, review *entity.Review, image *entity.ReviewImage) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	for _, existing := range f.reviews {
		if existing.UserID == review.UserID && existing.RecipeID == review.RecipeID {
			return repository.ErrDuplicate
		}
	}
	clone := *review
	f.reviews[review.ID] = &clone
	if image != nil {
		img := *image
		f.images[review.ID] = &img
	}
	return nil
}

func (f *fakeReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return nil, nil
	}
	clone := *review
	return &clone, nil
}

func (f *fakeReviewRepo) FindByUserAndRecipe(_ context.Context, userID, recipeID uuid.UUID) (*entity.Review, error) {
	for _, review := range f.reviews {
		if review.UserID == userID && review.RecipeID == recipeID {
			clone := *review
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeReviewRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]*entity.Review, error) {
	var out []*entity.Review
	for _, review := range f.reviews {
		if review.UserID == userID {
			out = append(out, review)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) FindByRecipe(_ context.Context, recipeID uuid.UUID) ([]*entity.Review, error) {
	var out []*entity.Review
	for _, review := range f.reviews {
		if review.RecipeID == recipeID {
			out = append(out, review)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) FindAll(_ context.Context) ([]*entity.Review, error) {
	var out []*entity.Review
	for _, review := range f.reviews {
		out = append(out, review)
	}
	return out, nil
}

func (f *fakeReviewRepo) Update(_ context.Context, review *entity.Review, image *entity.ReviewImage) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	if _, ok := f.reviews[review.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *review
	f.reviews[review.ID] = &clone
	if image != nil {
		img := *image
		f.images[review.ID] = &img
	}
	return nil
}

func (f *fakeReviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.reviews, id)
	delete(f.images, id)
	return nil
}

func (f *fakeReviewRepo) FindImageByReviewID(_ context.Context, reviewID uuid.UUID) (*entity.ReviewImage, error) {
	image, ok := f.images[reviewID]
	if !ok {
		return nil, nil
	}
	clone := *image
	return &clone, nil
}

func (f *fakeReviewRepo) DeleteImage(_ context.Context, reviewID uuid.UUID) error {
	delete(f.images, reviewID)
	if review, ok := f.reviews[reviewID]; ok {
		review.ImageURL = nil
	}
	return nil
}

func (f *fakeReviewRepo) RecipeAverageRating(_ context.Context, recipeID uuid.UUID) (float64, error) {
	var sum float64
	var count int
	for _, review := range f.reviews {
		if review.RecipeID == recipeID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

// ==================== FIXTURE ====================

type reviewFixture struct {
	service  ReviewService
	users    *fakeUserRepo
	recipes  *fakeRecipeRepo
	reviews  *fakeReviewRepo
	uploads  string
	userID   uuid.UUID
	recipeID uuid.UUID
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	uploads := t.TempDir()
	files, err := filestore.New(uploads, "/review/images", zap.NewNop())
	require.NoError(t, err)

	userID := uuid.New()
	recipeID := uuid.New()

	users := &fakeUserRepo{users: map[uuid.UUID]*entity.User{
		userID: {
			Base:     entity.Base{ID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
			Email:    "cook@example.com",
			Nickname: "cook",
		},
	}}
	recipes := &fakeRecipeRepo{recipes: map[uuid.UUID]*entity.Recipe{
		recipeID: {
			Base:     entity.Base{ID: recipeID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
			AuthorID: userID,
			Name:     "Beef Stew",
		},
	}}
	reviews := &fakeReviewRepo{
		reviews: map[uuid.UUID]*entity.Review{},
		images:  map[uuid.UUID]*entity.ReviewImage{},
	}

	repo := &repository.Repository{
		User:   users,
		Recipe: recipes,
		Review: reviews,
	}

	return &reviewFixture{
		service:  NewReviewService(repo, files, zap.NewNop()),
		users:    users,
		recipes:  recipes,
		reviews:  reviews,
		uploads:  files.Dir(),
		userID:   userID,
		recipeID: recipeID,
	}
}

func (f *reviewFixture) createRequest() *request.CreateReviewRequest {
	return &request.CreateReviewRequest{
		RecipeID: f.recipeID.String(),
		UserID:   f.userID.String(),
		Rating:   4.5,
	}
}

func (f *reviewFixture) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.uploads)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// ==================== CREATE ====================

func TestCreateReviewSuccess(t *testing.T) {
	f := newReviewFixture(t)

	resp, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, f.userID.String(), resp.UserID)
	assert.Equal(t, f.recipeID.String(), resp.RecipeID)
	assert.Equal(t, 4.5, resp.Rating)
	assert.Equal(t, "cook", resp.Nickname)
	assert.Equal(t, "Beef Stew", resp.RecipeName)
	require.NotNil(t, resp.RecipeAverageRating)
	assert.Equal(t, 4.5, *resp.RecipeAverageRating)
	assert.Nil(t, resp.ModifiedAt)
}

func TestCreateReviewWithImageStoresFile(t *testing.T) {
	f := newReviewFixture(t)

	image := &request.ImageUpload{
		Content:  strings.NewReader("jpeg bytes"),
		Filename: "stew.jpg",
	}

	resp, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), image)
	require.NoError(t, err)

	require.NotNil(t, resp.ImageURL)
	assert.True(t, strings.HasPrefix(*resp.ImageURL, "/review/images/"))
	assert.True(t, strings.HasSuffix(*resp.ImageURL, "_stew.jpg"))

	files := f.storedFiles(t)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "_stew.jpg"))
}

func TestCreateReviewDuplicateReturnsErrReviewExists(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	_, err = f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	assert.ErrorIs(t, err, ErrReviewExists)
}

func TestCreateReviewDuplicateWritesNoImageFile(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	image := &request.ImageUpload{
		Content:  strings.NewReader("second attempt"),
		Filename: "again.jpg",
	}
	_, err = f.service.CreateReview(context.Background(), f.userID, f.createRequest(), image)
	assert.ErrorIs(t, err, ErrReviewExists)

	// The pre-check fires before any file write
	assert.Empty(t, f.storedFiles(t))
}

func TestCreateReviewConstraintRaceCleansUpStoredImage(t *testing.T) {
	f := newReviewFixture(t)

	// A concurrent winner slips past the pre-check; the insert itself
	// reports the duplicate
	f.reviews.failCreate = repository.ErrDuplicate

	image := &request.ImageUpload{
		Content:  strings.NewReader("raced"),
		Filename: "raced.jpg",
	}
	_, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), image)
	assert.ErrorIs(t, err, ErrReviewExists)

	// The file written before the insert failed must not linger
	assert.Empty(t, f.storedFiles(t))
}

func TestCreateReviewEmptyUserIDRejected(t *testing.T) {
	f := newReviewFixture(t)

	req := f.createRequest()
	req.UserID = ""

	_, err := f.service.CreateReview(context.Background(), f.userID, req, nil)
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestCreateReviewForOtherUserRejected(t *testing.T) {
	f := newReviewFixture(t)

	req := f.createRequest()
	req.UserID = uuid.New().String()

	_, err := f.service.CreateReview(context.Background(), f.userID, req, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateReviewUnknownRecipeRejected(t *testing.T) {
	f := newReviewFixture(t)

	req := f.createRequest()
	req.RecipeID = uuid.New().String()

	_, err := f.service.CreateReview(context.Background(), f.userID, req, nil)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

// ==================== READ ====================

func TestGetReviewNotFound(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.service.GetReview(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestGetReviewsByUserEmptyListIsNotFound(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.service.GetReviewsByUser(context.Background(), f.userID, f.userID.String())
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestGetReviewsByUserRequiresMatchingCaller(t *testing.T) {
	f := newReviewFixture(t)

	otherID := uuid.New()
	_, err := f.service.GetReviewsByUser(context.Background(), f.userID, otherID.String())
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.service.GetReviewsByUser(context.Background(), f.userID, "")
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestGetReviewDegradesOnLookupFailure(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	f.users.failFind = errors.New("connection reset")
	f.recipes.failFind = errors.New("connection reset")

	// The review itself still renders; the denormalized names come back empty
	resp, err := f.service.GetReview(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Nickname)
	assert.Empty(t, resp.RecipeName)
	assert.Equal(t, created.Rating, resp.Rating)
}

func TestGetReviewsByRecipeReturnsReviews(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	reviews, err := f.service.GetReviewsByRecipe(context.Background(), f.recipeID.String())
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 4.5, reviews[0].Rating)
}

// ==================== UPDATE ====================

func TestUpdateReviewPartialFieldsOnly(t *testing.T) {
	f := newReviewFixture(t)

	comment := "rich and hearty"
	req := f.createRequest()
	req.Context = &comment
	created, err := f.service.CreateReview(context.Background(), f.userID, req, nil)
	require.NoError(t, err)

	newRating := 2.0
	updated, err := f.service.UpdateReview(context.Background(), f.userID, created.ID,
		&request.UpdateReviewRequest{Rating: &newRating}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, updated.Rating)
	// Context untouched when not supplied
	require.NotNil(t, updated.Context)
	assert.Equal(t, comment, *updated.Context)
	assert.NotNil(t, updated.ModifiedAt)
}

func TestUpdateReviewZeroRatingIsARealUpdate(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	zero := 0.0
	updated, err := f.service.UpdateReview(context.Background(), f.userID, created.ID,
		&request.UpdateReviewRequest{Rating: &zero}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Rating)
}

func TestUpdateReviewNoChangesIsANoOp(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	updated, err := f.service.UpdateReview(context.Background(), f.userID, created.ID,
		&request.UpdateReviewRequest{}, nil)
	require.NoError(t, err)

	assert.Equal(t, created.Rating, updated.Rating)
	assert.Nil(t, updated.ModifiedAt)
}

func TestUpdateReviewByNonOwnerRejected(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	rating := 1.0
	_, err = f.service.UpdateReview(context.Background(), uuid.New(), created.ID,
		&request.UpdateReviewRequest{Rating: &rating}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateReviewReplacesImageFile(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(),
		&request.ImageUpload{Content: strings.NewReader("old"), Filename: "old.jpg"})
	require.NoError(t, err)

	updated, err := f.service.UpdateReview(context.Background(), f.userID, created.ID, &request.UpdateReviewRequest{},
		&request.ImageUpload{Content: strings.NewReader("new"), Filename: "new.jpg"})
	require.NoError(t, err)

	require.NotNil(t, updated.ImageURL)
	assert.True(t, strings.HasSuffix(*updated.ImageURL, "_new.jpg"))
	assert.NotEqual(t, *created.ImageURL, *updated.ImageURL)

	// Exactly one file remains: the replacement
	files := f.storedFiles(t)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "_new.jpg"))
}

func TestUpdateReviewFailedWriteKeepsOldImage(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(),
		&request.ImageUpload{Content: strings.NewReader("old"), Filename: "old.jpg"})
	require.NoError(t, err)

	f.reviews.failUpdate = repository.ErrNotFound

	_, err = f.service.UpdateReview(context.Background(), f.userID, created.ID, &request.UpdateReviewRequest{},
		&request.ImageUpload{Content: strings.NewReader("new"), Filename: "new.jpg"})
	assert.ErrorIs(t, err, ErrReviewNotFound)

	// The aborted write discarded the new file and left the old bytes intact
	files := f.storedFiles(t)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "_old.jpg"))
}

// ==================== DELETE ====================

func TestDeleteReviewRemovesRowAndImageFile(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(),
		&request.ImageUpload{Content: strings.NewReader("bytes"), Filename: "dish.jpg"})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteReview(context.Background(), f.userID, created.ID))

	_, err = f.service.GetReview(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
	assert.Empty(t, f.storedFiles(t))
}

func TestDeleteReviewAbsentIsANoOp(t *testing.T) {
	f := newReviewFixture(t)

	assert.NoError(t, f.service.DeleteReview(context.Background(), f.userID, uuid.New().String()))
}

func TestDeleteReviewByNonOwnerRejected(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(), nil)
	require.NoError(t, err)

	err = f.service.DeleteReview(context.Background(), uuid.New(), created.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeleteReviewImageDetachesAndRemovesFile(t *testing.T) {
	f := newReviewFixture(t)

	created, err := f.service.CreateReview(context.Background(), f.userID, f.createRequest(),
		&request.ImageUpload{Content: strings.NewReader("bytes"), Filename: "dish.jpg"})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteReviewImage(context.Background(), f.userID, created.ID))

	after, err := f.service.GetReview(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, after.ImageURL)
	assert.Empty(t, f.storedFiles(t))

	// Deleting again with nothing attached is a no-op
	assert.NoError(t, f.service.DeleteReviewImage(context.Background(), f.userID, created.ID))
}
