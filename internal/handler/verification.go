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
	queuepub "github.com/ivankosh/photoflow/internal/service"
)

// VerifyEmail consumes a single-use verification token arriving from the
// emailed link. On success the user is marked verified and receives a
// fresh session pair so the link doubles as a login. Never-issued and
// already-consumed tokens get the same 404.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Grants.ConsumeEmailVerification(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrGrantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "token not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}

	pair, err := h.Sessions.IssuePair(ctx, u.SubjectID, u.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:   userPart{Subject: u.SubjectID, Username: u.Username, Email: u.Email, EmailVerified: u.EmailVerified},
		Tokens: pair,
	})
}

// ResendVerification mints a replacement verification token for the
// authenticated user and enqueues a new mail. The route sits behind the
// token bucket limiter; the token itself has no expiry and is a
// low-value, single-use credential.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Sessions.UserBySubject(ctx, p.Subject)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if u.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no email on account"})
	}
	if u.EmailVerified {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already verified"})
	}

	token, err := h.Grants.IssueEmailVerification(ctx, u.SubjectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if err := queuepub.PublishVerificationEmail(ctx, queue.VerificationEmailEvent{
		To:       u.Email,
		Username: u.Username,
		Token:    token,
	}); err != nil {
		log.Printf("auth: enqueue verification mail failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enqueue mail failed"})
	}
	return c.NoContent(http.StatusAccepted)
}
