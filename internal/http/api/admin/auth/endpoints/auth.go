package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api/admin/auth/packets"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/middleware"
)

// adminSubject is the single operator account the admin password unlocks.
const adminSubject = "admin"

// AuthPublicModule mounts the public login endpoint (/auth/login)
func AuthPublicModule(jwtSecret, passwordHash string) api.Module {
	ctl := newSessionManager(jwtSecret, passwordHash)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/login", ctl.login)
	})
}

// AuthSessionModule mounts private session endpoints (JWT required)
func AuthSessionModule(jwtSecret, passwordHash string) api.Module {
	ctl := newSessionManager(jwtSecret, passwordHash)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/session", ctl.session)
	})
}

type SessionManager struct {
	jwtSecret    string
	passwordHash string
	tokenTTL     time.Duration
}

func newSessionManager(secret, hash string) *SessionManager {
	return &SessionManager{jwtSecret: secret, passwordHash: hash, tokenTTL: middleware.DefaultTokenTTL}
}

// POST /api/admin/auth/login
func (s *SessionManager) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if !middleware.CheckPassword(s.passwordHash, request.Password) {
		log.Warn().Str("ip", ctx.ClientIP()).Str("request_id", middleware.RequestID(ctx)).Msg("admin login failed")
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(adminSubject, s.jwtSecret, s.tokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("could not generate token")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}

	return packets.TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL).UTC().Format(time.RFC3339),
	}, nil
}

// GET /api/admin/auth/session
func (s *SessionManager) session(ctx *gin.Context, admin *middleware.Admin) (any, *api.APIError) {
	out := packets.SessionResponse{Subject: admin.Subject}
	if !admin.ExpiresAt.IsZero() {
		out.ExpiresAt = admin.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return out, nil
}
