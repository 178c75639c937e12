package adaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-sharing/internal/dto/request"
	"recipe-sharing/internal/dto/response"
	"recipe-sharing/internal/usecase"
	"recipe-sharing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubReviewService returns canned results per call
type stubReviewService struct {
	createResp *response.ReviewResponse
	createErr  error
	getResp    *response.ReviewResponse
	getErr     error
	updateResp *response.ReviewResponse
	updateErr  error
	deleteErr  error
}

func (s *stubReviewService) CreateReview(_ context.Context, _ uuid.UUID, _ *request.CreateReviewRequest, _ *request.ImageUpload) (*response.ReviewResponse, error) {
	return s.createResp, s.createErr
}

func (s *stubReviewService) GetReview(_ context.Context, _ string) (*response.ReviewResponse, error) {
	return s.getResp, s.getErr
}

func (s *stubReviewService) GetReviewsByUser(_ context.Context, _ uuid.UUID, _ string) ([]response.ReviewResponse, error) {
	return nil, s.getErr
}

func (s *stubReviewService) GetReviewsByRecipe(_ context.Context, _ string) ([]response.ReviewResponse, error) {
	return nil, s.getErr
}

func (s *stubReviewService) GetAllReviews(_ context.Context) ([]response.ReviewResponse, error) {
	return nil, s.getErr
}

func (s *stubReviewService) UpdateReview(_ context.Context, _ uuid.UUID, _ string, _ *request.UpdateReviewRequest, _ *request.ImageUpload) (*response.ReviewResponse, error) {
	return s.updateResp, s.updateErr
}

func (s *stubReviewService) DeleteReview(_ context.Context, _ uuid.UUID, _ string) error {
	return s.deleteErr
}

func (s *stubReviewService) DeleteReviewImage(_ context.Context, _ uuid.UUID, _ string) error {
	return s.deleteErr
}

func newReviewRouter(service usecase.ReviewService, callerID uuid.UUID) *chi.Mux {
	handler := NewReviewHandler(service, zap.NewNop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(utils.SetUserContext(req.Context(), callerID)))
		})
	})

	r.Post("/api/reviews", handler.CreateReview)
	r.Get("/api/reviews/{id}", handler.GetReview)
	r.Patch("/api/reviews/{id}", handler.UpdateReview)
	r.Delete("/api/reviews/{id}", handler.DeleteReview)
	r.Delete("/api/reviews/{id}/image", handler.DeleteReviewImage)

	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var envelope utils.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func TestCreateReviewReturns201(t *testing.T) {
	callerID := uuid.New()
	service := &stubReviewService{
		createResp: &response.ReviewResponse{ID: uuid.New().String(), Rating: 4.0},
	}
	router := newReviewRouter(service, callerID)

	body, _ := json.Marshal(map[string]any{
		"recipe_id": uuid.New().String(),
		"user_id":   callerID.String(),
		"rating":    4.0,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Status)
}

func TestCreateReviewDuplicateReturns409(t *testing.T) {
	service := &stubReviewService{createErr: usecase.ErrReviewExists}
	router := newReviewRouter(service, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Status)
}

func TestCreateReviewEmptyUserIDReturns400(t *testing.T) {
	service := &stubReviewService{createErr: usecase.ErrEmptyUserID}
	router := newReviewRouter(service, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReviewWithoutAuthContextReturns401(t *testing.T) {
	handler := NewReviewHandler(&stubReviewService{}, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/api/reviews", handler.CreateReview)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetReviewNotFoundReturns404(t *testing.T) {
	service := &stubReviewService{getErr: usecase.ErrReviewNotFound}
	router := newReviewRouter(service, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReviewForbiddenReturns403(t *testing.T) {
	service := &stubReviewService{updateErr: usecase.ErrUnauthorized}
	router := newReviewRouter(service, uuid.New())

	req := httptest.NewRequest(http.MethodPatch, "/api/reviews/"+uuid.New().String(),
		bytes.NewReader([]byte(`{"rating":1}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteReviewReturns200(t *testing.T) {
	service := &stubReviewService{}
	router := newReviewRouter(service, uuid.New())

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Status)
}

func TestDeleteReviewImageReturns200(t *testing.T) {
	service := &stubReviewService{}
	router := newReviewRouter(service, uuid.New())

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/"+uuid.New().String()+"/image", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
