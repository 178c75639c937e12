package usecase

import (
	"errors"
)

// Caller-visible error kinds. Handlers map these to HTTP statuses with
// errors.Is; anything not listed here is normalized to ErrDatabase before
// it leaves the service boundary.
var (
	ErrValidation = errors.New("validation failed")

	ErrEmptyUserID  = errors.New("user id is required")
	ErrUnauthorized = errors.New("not allowed to modify this resource")

	ErrUserNotFound   = errors.New("user not found")
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrReviewNotFound = errors.New("review not found")

	ErrReviewExists = errors.New("user already reviewed this recipe")
	ErrImageSave    = errors.New("failed to store review image")
	ErrReviewPost   = errors.New("failed to post review")

	ErrEmailTaken         = errors.New("email already registered")
	ErrNicknameTaken      = errors.New("nickname already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrDatabase = errors.New("database error")
)
