package wire

import (
	"net/http"
	"time"

	"recipe-sharing/internal/adaptor"
	"recipe-sharing/internal/data/repository"
	"recipe-sharing/internal/usecase"
	"recipe-sharing/pkg/auth"
	"recipe-sharing/pkg/filestore"
	"recipe-sharing/pkg/middleware"
	"recipe-sharing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired dependencies
type App struct {
	Router *chi.Mux
}

// Wiring initializes all dependencies
func Wiring(repo *repository.Repository, files *filestore.Store, config *utils.Config, logger *zap.Logger) *App {
	authenticator := auth.NewJWTAuthenticator(
		config.JWT.Secret,
		config.JWT.Audience,
		config.JWT.Issuer,
		time.Duration(config.JWT.ExpiryHours)*time.Hour,
	)

	service := usecase.NewService(repo, authenticator, files, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, authenticator, files, config, logger)

	return &App{
		Router: router,
	}
}

// setupRouter configures the chi router
func setupRouter(
	handler *adaptor.Handler,
	authenticator auth.Authenticator,
	files *filestore.Store,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Public routes
	r.Post("/api/register", handler.Auth.Register)
	r.Post("/api/login", handler.Auth.Login)

	r.Get("/api/recipes", handler.Recipe.SearchRecipes)
	r.Get("/api/recipes/{id}", handler.Recipe.GetRecipe)
	r.Get("/api/recipes/{id}/reviews", handler.Review.GetRecipeReviews)

	r.Get("/api/reviews", handler.Review.GetAllReviews)
	r.Get("/api/reviews/{id}", handler.Review.GetReview)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authenticator, logger))

		r.Get("/api/users/me", handler.User.GetProfile)
		r.Get("/api/users/{id}/reviews", handler.Review.GetUserReviews)

		r.Post("/api/recipes", handler.Recipe.CreateRecipe)
		r.Delete("/api/recipes/{id}", handler.Recipe.DeleteRecipe)

		r.Post("/api/reviews", handler.Review.CreateReview)
		r.Patch("/api/reviews/{id}", handler.Review.UpdateReview)
		r.Delete("/api/reviews/{id}", handler.Review.DeleteReview)
		r.Delete("/api/reviews/{id}/image", handler.Review.DeleteReviewImage)
	})

	// Stored review images are served straight from the upload directory
	publicPath := config.Upload.PublicPath
	r.Handle(publicPath+"/*", http.StripPrefix(publicPath+"/",
		http.FileServer(http.Dir(files.Dir()))))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
