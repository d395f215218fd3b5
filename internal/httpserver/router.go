package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mkravets/dashboard/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	AuthMw      *middleware.Auth
	DB          *gorm.DB
	Redis       *redis.Client
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx := c.Request().Context()
		if d.DB != nil {
			sqlDB, err := d.DB.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		if d.Redis != nil {
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	e.POST("/auth/register", d.AuthHandler.Register)
	e.POST("/auth/login", d.AuthHandler.Login)
	e.POST("/auth/refresh", d.AuthHandler.Refresh)

	private := e.Group("/auth")
	private.Use(d.AuthMw.RequireAuth)

	private.POST("/logout", d.AuthHandler.LogOut)
	private.POST("/change-password", d.AuthHandler.ChangePassword)
	private.GET("/me", d.AuthHandler.Me)
	private.PATCH("/me", d.AuthHandler.UpdateMe)
}
