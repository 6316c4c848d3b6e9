package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
	"github.com/stagedoor/theatre-ticket-reservation/internal/utils"
)

// AuthHandler issues admin sessions. There are no admin accounts;
// each performance carries one shared secret, and a successful login
// yields a short-lived token scoped to that single performance.
type AuthHandler struct {
	Performances *repository.PerformanceRepo
	JWTSecret    string
	TTLMin       int
}

// NewAuthHandler wires an AuthHandler.
func NewAuthHandler(p *repository.PerformanceRepo, jwtSecret string, ttlMin int) *AuthHandler {
	return &AuthHandler{Performances: p, JWTSecret: jwtSecret, TTLMin: ttlMin}
}

type adminLoginRequest struct {
	PerformanceID string `json:"performance_id"`
	Secret        string `json:"secret"`
}

// Login handles POST /v1/admin/login. An unknown performance and a
// wrong secret return the same response so the endpoint does not leak
// which performance ids exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.PerformanceID == "" || req.Secret == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "performance_id and secret are required"})
	}

	perf, err := h.Performances.GetByID(c.Request().Context(), req.PerformanceID)
	if err == repository.ErrPerformanceNotFound {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return respondErr(c, err)
	}
	if !utils.VerifyAdminSecret(perf.AdminSecretHash, req.Secret) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := utils.NewAdminToken(h.JWTSecret, perf.ID, h.TTLMin)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":      tok.Token,
		"expires_at": tok.Exp.Format(time.RFC3339),
	})
}
