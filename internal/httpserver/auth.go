package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mkravets/dashboard/internal/logging"
	"github.com/mkravets/dashboard/internal/middleware"
	"github.com/mkravets/dashboard/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, username and password are required")
	}

	user, pair, err := h.Svc.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			l.Error("register_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
		}
	}

	h.setSessionCookies(c, pair)
	return c.JSON(http.StatusCreated, echo.Map{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	h.setSessionCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	presented := req.RefreshToken
	if presented == "" {
		if cookie, err := c.Cookie("refreshToken"); err == nil {
			presented = cookie.Value
		}
	}
	if presented == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"code": middleware.CodeUnauthorized, "message": "missing refresh token",
		})
	}

	pair, err := h.Svc.Refresh(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshExpired):
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"code": middleware.CodeTokenExpired, "message": "Refresh token expired",
			})
		case errors.Is(err, service.ErrInvalidRefresh), errors.Is(err, service.ErrUserInactive):
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"code": middleware.CodeInvalidToken, "message": err.Error(),
			})
		default:
			l.Error("refresh_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
		}
	}

	h.setSessionCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	userID, err := contextUserID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Logout(ctx, userID); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}

	c.SetCookie(deleteCookie("accessToken", "/"))
	c.SetCookie(deleteCookie("refreshToken", "/"))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_change_password")

	userID, err := contextUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new password is required")
	}

	if err := h.Svc.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		l.Error("change_password_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "password change failed")
	}

	c.SetCookie(deleteCookie("accessToken", "/"))
	c.SetCookie(deleteCookie("refreshToken", "/"))
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	userID, err := contextUserID(c)
	if err != nil {
		return err
	}

	user, getErr := h.Svc.GetProfile(c.Request().Context(), userID)
	if getErr != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) UpdateMe(c echo.Context) error {
	userID, err := contextUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, updErr := h.Svc.UpdateProfile(c.Request().Context(), userID, req.FirstName, req.LastName)
	if updErr != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) setSessionCookies(c echo.Context, pair *service.TokenPair) {
	accessExp := time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second)
	refreshExp := time.Now().Add(h.Svc.Codec.RefreshTTL)
	c.SetCookie(createCookie("accessToken", pair.AccessToken, "/", accessExp))
	c.SetCookie(createCookie("refreshToken", pair.RefreshToken, "/", refreshExp))
}

func contextUserID(c echo.Context) (uuid.UUID, error) {
	raw, _ := c.Get("user_id").(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "identity not resolved")
	}
	return userID, nil
}
