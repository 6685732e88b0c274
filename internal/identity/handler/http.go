package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"airguard/backend/internal/identity/service"
	"airguard/backend/internal/logutil"
	orgdomain "airguard/backend/internal/organization/domain"
	"airguard/backend/internal/server/middleware"
	sessiondomain "airguard/backend/internal/session/domain"
	userdomain "airguard/backend/internal/user/domain"
)

// Cookie names. The refresh cookie is scoped to the auth routes.
const (
	AccessTokenCookie  = middleware.AccessTokenCookie
	RefreshTokenCookie = "refresh_token"
	refreshCookiePath  = "/auth"
)

const maxBodyBytes = 1 << 20

// AuthService is the subset of the auth service used by the HTTP handler.
type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput, client service.ClientInfo) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput, client service.ClientInfo) (*service.AuthResult, error)
	Logout(ctx context.Context, userID, refreshToken string, client service.ClientInfo)
	Refresh(ctx context.Context, refreshToken string, client service.ClientInfo) (*service.AuthResult, error)
	Authenticate(ctx context.Context, accessToken string) (*service.Identity, error)
	Profile(ctx context.Context, userID string) (*service.Profile, error)
	Sessions(ctx context.Context, userID string) ([]*sessiondomain.Session, error)
}

// CookieConfig controls the attributes of the token cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

// Handler serves the /auth routes.
type Handler struct {
	auth    AuthService
	cookies CookieConfig
}

// NewHandler returns a Handler backed by auth.
func NewHandler(auth AuthService, cookies CookieConfig) *Handler {
	return &Handler{auth: auth, cookies: cookies}
}

// RegisterRoutes mounts the auth routes on r. loginLimit wraps the login route; pass nil to disable.
func (h *Handler) RegisterRoutes(r chi.Router, loginLimit func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		if loginLimit != nil {
			r.With(loginLimit).Post("/login", h.Login)
		} else {
			r.Post("/login", h.Login)
		}
		r.Post("/logout", h.Logout)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.auth))
			r.Get("/profile", h.Profile)
			r.Get("/sessions", h.Sessions)
		})
	})
}

type authResponse struct {
	User             userdomain.PublicUser `json:"user"`
	AccessToken      string                `json:"accessToken"`
	RefreshToken     string                `json:"refreshToken"`
	AccessExpiresAt  time.Time             `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time             `json:"refreshExpiresAt"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type profileResponse struct {
	User         userdomain.PublicUser `json:"user"`
	Organization *orgdomain.Org        `json:"organization"`
}

type sessionsResponse struct {
	Sessions []*sessiondomain.Session `json:"sessions"`
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if !decodeBody(w, r, &in) {
		return
	}
	res, err := h.auth.Signup(r.Context(), in, clientInfo(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeAuthResult(w, http.StatusCreated, res)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !decodeBody(w, r, &in) {
		return
	}
	res, err := h.auth.Login(r.Context(), in, clientInfo(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeAuthResult(w, http.StatusOK, res)
}

// Logout handles POST /auth/logout. It always succeeds and clears the token cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var userID string
	if token := middleware.AccessToken(r); token != "" {
		if id, err := h.auth.Authenticate(r.Context(), token); err == nil {
			userID = id.UserID
		}
	}
	h.auth.Logout(r.Context(), userID, refreshToken(r), clientInfo(r))
	h.clearCookies(w)
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Refresh handles POST /auth/refresh. The refresh token comes from the cookie, else the JSON body.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.Refresh(r.Context(), refreshToken(r), clientInfo(r))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			err = service.ErrInvalidToken
		}
		writeServiceError(w, r, err)
		return
	}
	h.writeAuthResult(w, http.StatusOK, res)
}

// Profile handles GET /auth/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	p, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, profileResponse{User: p.User, Organization: p.Organization})
}

// Sessions handles GET /auth/sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	list, err := h.auth.Sessions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*sessiondomain.Session{}
	}
	middleware.WriteJSON(w, http.StatusOK, sessionsResponse{Sessions: list})
}

func (h *Handler) writeAuthResult(w http.ResponseWriter, status int, res *service.AuthResult) {
	http.SetCookie(w, h.cookie(AccessTokenCookie, res.AccessToken, "/", res.AccessExpiresAt))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, res.RefreshToken, refreshCookiePath, res.RefreshExpiresAt))
	middleware.WriteJSON(w, status, authResponse{
		User:             res.User,
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		AccessExpiresAt:  res.AccessExpiresAt,
		RefreshExpiresAt: res.RefreshExpiresAt,
	})
}

func (h *Handler) clearCookies(w http.ResponseWriter) {
	for _, c := range []*http.Cookie{
		h.cookie(AccessTokenCookie, "", "/", time.Time{}),
		h.cookie(RefreshTokenCookie, "", refreshCookiePath, time.Time{}),
	} {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (h *Handler) cookie(name, value, path string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   h.cookies.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		c.MaxAge = int(time.Until(expires).Seconds())
	}
	return c
}

func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{UserAgent: r.UserAgent(), IP: middleware.ClientIP(r)}
}

// refreshToken returns the refresh_token cookie, else the refreshToken field of the JSON body.
func refreshToken(r *http.Request) string {
	if c, err := r.Cookie(RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	var body refreshRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return ""
	}
	return body.RefreshToken
}

// decodeBody decodes the JSON body into v and writes 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps auth service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorBody{Error: service.ErrValidation.Error(), Fields: verr.Fields})
	case errors.Is(err, service.ErrDuplicateEmail):
		middleware.WriteError(w, http.StatusConflict, service.ErrDuplicateEmail.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.WriteError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrInvalidToken):
		middleware.WriteError(w, http.StatusUnauthorized, service.ErrInvalidToken.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		middleware.WriteError(w, http.StatusUnauthorized, service.ErrSessionNotFound.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		middleware.WriteError(w, http.StatusUnauthorized, service.ErrUnauthenticated.Error())
	case errors.Is(err, service.ErrUserNotFound):
		middleware.WriteError(w, http.StatusNotFound, service.ErrUserNotFound.Error())
	case errors.Is(err, service.ErrAccountCreated):
		middleware.WriteError(w, http.StatusServiceUnavailable, service.ErrAccountCreated.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		middleware.WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("auth: unexpected error")
		middleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
