package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ivankosh/photoflow/internal/auth"
	"github.com/ivankosh/photoflow/internal/middleware"
)

// ShareHandler exposes share grant creation and anonymous resolution.
type ShareHandler struct {
	Grants *auth.GrantManager
}

func NewShareHandler(g *auth.GrantManager) *ShareHandler {
	return &ShareHandler{Grants: g}
}

type createShareReq struct {
	ResourceID string `json:"resourceId"`
	Variant    string `json:"variant"`
	TTLHours   int    `json:"ttlHours"`
}

type shareResp struct {
	Token      string    `json:"token"`
	ResourceID string    `json:"resourceId"`
	Variant    string    `json:"variant"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Create binds a fresh share token to one image variant owned by the
// authenticated user.
func (h *ShareHandler) Create(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createShareReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ResourceID = strings.TrimSpace(req.ResourceID)
	if req.ResourceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resourceId required"})
	}
	if req.Variant == "" {
		req.Variant = "original"
	}
	if req.TTLHours < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ttlHours must not be negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	grant, err := h.Grants.CreateShare(ctx, p.Subject, req.ResourceID, req.Variant, req.TTLHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create share failed"})
	}

	return c.JSON(http.StatusCreated, shareResp{
		Token:      grant.Token,
		ResourceID: grant.ResourceID,
		Variant:    grant.Variant,
		ExpiresAt:  grant.ExpiresAt,
	})
}

// Resolve grants anonymous read-only access to exactly the one bound
// image variant. Unknown tokens answer 404; expired ones 410 and are
// evicted. The response carries the binding; the file layer serves the
// actual bytes for it.
func (h *ShareHandler) Resolve(c echo.Context) error {
	token := c.Param("token")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	grant, err := h.Grants.ResolveShare(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrGrantNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "share not found"})
		case errors.Is(err, auth.ErrGrantExpired):
			return c.JSON(http.StatusGone, echo.Map{"error": "share expired"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve share failed"})
		}
	}

	return c.JSON(http.StatusOK, shareResp{
		Token:      grant.Token,
		ResourceID: grant.ResourceID,
		Variant:    grant.Variant,
		ExpiresAt:  grant.ExpiresAt,
	})
}
