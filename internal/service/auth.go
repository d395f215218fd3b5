package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/dashboard/internal/events"
	"github.com/mkravets/dashboard/internal/hash"
	"github.com/mkravets/dashboard/internal/logging"
	"github.com/mkravets/dashboard/internal/models"
	"github.com/mkravets/dashboard/internal/repo"
	"github.com/mkravets/dashboard/internal/sessionstore"
	"github.com/mkravets/dashboard/internal/tokens"
)

// AuthService owns the session lifecycle: registration, login, refresh
// rotation, logout and password changes. It keeps no in-process state; all
// cross-request state lives in the session store and the database.
type AuthService struct {
	Users    *repo.UserRepo
	Ledger   *repo.LedgerRepo
	Sessions sessionstore.Store
	Codec    *tokens.Codec
	Events   *events.Producer
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, nil, err
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: pwHash,
		Role:         "USER",
		IsActive:     true,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken) {
			l.Warn("register_conflict", "error", err)
			return nil, nil, err
		}
		l.Error("register_failed", "error", err)
		return nil, nil, err
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, "user_registered", user.ID)
	l.Info("register_successful", "user_id", user.ID)
	return user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "reason", "unknown email")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		l.Warn("login_failed", "reason", "inactive user", "user_id", user.ID)
		return nil, nil, ErrInvalidCredentials
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password", "user_id", user.ID)
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, "user_logged_in", user.ID)
	l.Info("login_successful", "user_id", user.ID)
	return user, pair, nil
}

// issueSession mints a fresh token pair and makes the new refresh token the
// only live one: the store overwrite evicts whatever was there before.
func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, _, err := s.Codec.SignAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	jti := tokens.NewJTI()
	refreshToken, refreshExp, err := s.Codec.SignRefresh(user.ID, user.Email, user.Role, jti)
	if err != nil {
		return nil, err
	}

	if err := s.Sessions.PutRefresh(ctx, user.ID.String(), refreshToken, time.Until(refreshExp)); err != nil {
		return nil, err
	}

	if err := s.Ledger.Insert(ctx, &models.RefreshToken{
		JTI:       jti,
		TokenHash: tokens.Sha256Hex(refreshToken),
		UserID:    user.ID,
		ExpiresAt: refreshExp,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.Codec.AccessTTL.Seconds()),
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Codec.ParseRefresh(presented)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			l.Warn("refresh_rejected", "reason", "token expired")
			return nil, ErrRefreshExpired
		}
		l.Warn("refresh_rejected", "reason", "token invalid")
		return nil, ErrInvalidRefresh
	}

	// The store entry is the liveness authority: a rotated or revoked token
	// no longer matches even while its signature is still valid.
	stored, err := s.Sessions.GetRefresh(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if stored == "" || stored != presented {
		l.Warn("refresh_rejected", "reason", "not the live token", "user_id", claims.Subject)
		return nil, ErrInvalidRefresh
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserInactive
		}
		return nil, err
	}
	if !user.IsActive {
		l.Warn("refresh_rejected", "reason", "inactive user", "user_id", user.ID)
		return nil, ErrUserInactive
	}

	// Concurrent refreshes with the same token race here; only one wins the
	// compare-and-delete, the loser gets the unauthorized path.
	ok, err := s.Sessions.CompareAndDelete(ctx, claims.Subject, presented)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.Warn("refresh_rejected", "reason", "lost rotation race", "user_id", user.ID)
		return nil, ErrInvalidRefresh
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "session_refreshed", user.ID)
	l.Info("refresh_successful", "user_id", user.ID)
	return pair, nil
}

// Logout is idempotent: clearing an absent session is not an error.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Sessions.DeleteRefresh(ctx, userID.String()); err != nil {
		return err
	}
	if err := s.Ledger.DeleteByUser(ctx, userID); err != nil {
		return err
	}

	s.publish(ctx, "user_logged_out", userID)
	l.Info("logout_successful", "user_id", userID)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, currentPassword) {
		l.Warn("change_password_rejected", "reason", "wrong current password", "user_id", userID)
		return ErrInvalidCredentials
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, userID, pwHash); err != nil {
		return err
	}

	// Password change terminates the active session on every device.
	if err := s.Logout(ctx, userID); err != nil {
		return err
	}

	s.publish(ctx, "password_changed", userID)
	l.Info("change_password_successful", "user_id", userID)
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.Users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*models.User, error) {
	return s.Users.UpdateProfile(ctx, userID, firstName, lastName)
}

// publish is fire-and-forget: audit events never fail the request.
func (s *AuthService) publish(ctx context.Context, eventType string, userID uuid.UUID) {
	if err := s.Events.Publish(ctx, eventType, userID.String()); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", eventType, "error", err)
	}
}
