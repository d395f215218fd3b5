package service

import (
	"errors"

	"github.com/mkravets/dashboard/internal/repo"
)

var (
	ErrEmailTaken    = repo.ErrEmailTaken
	ErrUsernameTaken = repo.ErrUsernameTaken

	// ErrInvalidCredentials covers missing user, inactive user and wrong
	// password alike so a caller cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrRefreshExpired = errors.New("refresh token expired")
	ErrInvalidRefresh = errors.New("invalid refresh token")
	ErrUserInactive   = errors.New("user not found or inactive")
)
