package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/direct-message-service/internal/auth"
	"github.com/iliyamo/direct-message-service/internal/config"
	"github.com/iliyamo/direct-message-service/internal/middleware"
	"github.com/iliyamo/direct-message-service/internal/repository"
	"github.com/iliyamo/direct-message-service/internal/utils"
)

// AuthHandler bundles dependencies for the credential and account
// endpoints: login, registration, profile lookup and account deletion.
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.UserStore
	Tokens *auth.TokenIssuer
	Policy *auth.Policy
}

func NewAuthHandler(cfg config.Config, users repository.UserStore, tokens *auth.TokenIssuer, policy *auth.Policy) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Policy: policy}
}

// ----- DTOs -----

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login verifies credentials and returns a fresh bearer token. Wrong
// username and wrong password are indistinguishable in the response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid credentials"})
	}

	signed, _, err := h.Tokens.Issue(u.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: signed, TokenType: "bearer"})
}

// Register creates a new account. The password is hashed inside the store;
// the plaintext never leaves this call.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.Create(ctx, req.Username, req.Password, h.Cfg.BcryptCost); err != nil {
		// duplicate usernames surface as 400 with a distinct body, matching
		// the contract kept stable across storage variants
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": fmt.Sprintf("User %s created", req.Username)})
}

// GetUser is the public profile lookup. It exposes nothing beyond the
// username itself.
func (h *AuthHandler) GetUser(c echo.Context) error {
	username := c.Param("username")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.Exists(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"username": username})
}

// Me returns the identity of the caller, straight from the verified token.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"username": middleware.CurrentUsername(c)})
}

// DeleteUser removes an account. Only the account holder or the admin may
// do so; the authorization check runs before the store is touched. The
// user's messages are left in place.
func (h *AuthHandler) DeleteUser(c echo.Context) error {
	requester := middleware.CurrentUsername(c)
	target := c.Param("username")

	if !h.Policy.CanActOn(requester, target) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only delete your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, target); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("User %s deleted", target)})
}
