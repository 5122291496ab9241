// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/direct-message-service/internal/auth"
	"github.com/iliyamo/direct-message-service/internal/config"
	"github.com/iliyamo/direct-message-service/internal/handler"
	"github.com/iliyamo/direct-message-service/internal/middleware"
)

// Register wires every endpoint onto the Echo instance. Login and
// registration are the only mutating endpoints outside the bearer-token
// group, since they are the ones that establish or create identity. The
// Redis-backed limiter guards the credential endpoints and the response
// cache fronts the public profile lookup; both are pass-throughs when rdb
// is nil.
func Register(e *echo.Echo, a *handler.AuthHandler, m *handler.MessageHandler, tokens *auth.TokenIssuer, rdb *redis.Client) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e.POST("/login", a.Login, limiter)
	e.POST("/users/", a.Register, limiter)
	e.GET("/users/:username", a.GetUser, cache)

	g := e.Group("", middleware.BearerAuth(tokens))
	g.GET("/users/me", a.Me)
	g.DELETE("/users/:username", a.DeleteUser)
	g.POST("/users/:username/messages/", m.Send)
	g.GET("/users/:username/messages/", m.List)
	g.DELETE("/users/:username/messages/", m.Delete)
	g.DELETE("/messages/:id", m.DeleteByID)
}
