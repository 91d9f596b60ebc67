package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ivankosh/photoflow/internal/auth"
	"github.com/ivankosh/photoflow/internal/middleware"
	"github.com/ivankosh/photoflow/internal/queue"
	"github.com/ivankosh/photoflow/internal/repository"
	queuepub "github.com/ivankosh/photoflow/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Sessions *auth.SessionManager
	Grants   *auth.GrantManager
}

func NewAuthHandler(s *auth.SessionManager, g *auth.GrantManager) *AuthHandler {
	return &AuthHandler{Sessions: s, Grants: g}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userPart struct {
	Subject       string `json:"subject"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}
type authResp struct {
	User   userPart       `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// Register: create user, enqueue verification mail, return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, pair, err := h.Sessions.Register(ctx, req.Username, req.Password, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too short"})
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
		}
	}

	if u.Email != "" {
		token, err := h.Grants.IssueEmailVerification(ctx, u.SubjectID)
		if err != nil {
			log.Printf("auth: issue verification token failed: %v", err)
		} else if err := queuepub.PublishVerificationEmail(ctx, queue.VerificationEmailEvent{
			To:       u.Email,
			Username: u.Username,
			Token:    token,
		}); err != nil {
			// Recoverable via resend; registration already succeeded.
			log.Printf("auth: enqueue verification mail failed: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, authResp{
		User:   userPart{Subject: u.SubjectID, Username: u.Username, Email: u.Email},
		Tokens: pair,
	})
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, pair, err := h.Sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:   userPart{Subject: u.SubjectID, Username: u.Username, Email: u.Email, EmailVerified: u.EmailVerified},
		Tokens: pair,
	})
}

// Refresh: redeem a refresh token for a new pair, rotating it. An
// expired token answers 401 (re-login will work), a revoked or already
// rotated one answers 403 so clients stop retrying.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, pair, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch auth.CodeOf(err) {
		case auth.CodeExpired:
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired"})
		case auth.CodeInvalid, auth.CodeNotRecognized:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid refresh token"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
		}
	}

	return c.JSON(http.StatusOK, authResp{
		User:   userPart{Subject: u.SubjectID, Username: u.Username, Email: u.Email, EmailVerified: u.EmailVerified},
		Tokens: pair,
	})
}

// Logout: revoke every refresh token for the authenticated subject.
// Outstanding access tokens stay valid until their expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Logout(ctx, p.Subject); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint echoing the resolved principal.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, userPart{
		Subject:       p.Subject,
		Username:      p.Username,
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
	})
}
