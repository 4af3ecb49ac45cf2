package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"regexp"
	"strings"

	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const refreshCookieName = "refresh_token"

type SignupRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// CookieConfig fixes refresh-cookie attributes per deployment. When disabled
// the refresh token travels in the response body only.
type CookieConfig struct {
	Enabled bool
	Domain  string
	Secure  bool
}

type Handlers struct {
	service *Service
	cookies CookieConfig
}

func NewHandlers(service *Service, cookies CookieConfig) *Handlers {
	return &Handlers{service: service, cookies: cookies}
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) error {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if err := validateSignupRequest(&req); err != nil {
		return err
	}

	user, err := h.service.Signup(r.Context(), req.Fullname, req.Email, req.Password)
	if err != nil {
		return err
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusCreated, user)
	return nil
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return apperrors.BadRequest("email and password are required")
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		return err
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	apperrors.WriteJSON(w, requestID(r), http.StatusOK, pair)
	return nil
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) error {
	token := h.refreshTokenFrom(r)
	if token == "" {
		return apperrors.BadRequest("refresh token is required")
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		return err
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	apperrors.WriteJSON(w, requestID(r), http.StatusOK, pair)
	return nil
}

// Logout always responds 204: revoking a dead, expired or garbage token is
// a no-op, which keeps the call safe to retry.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) error {
	if token := h.refreshTokenFrom(r); token != "" {
		h.service.Logout(r.Context(), token)
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) error {
	userCtx := GetUserFromContext(r.Context())
	if userCtx == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	user, err := h.service.UserByID(r.Context(), userCtx.UserID)
	if err != nil {
		return err
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusOK, user)
	return nil
}

// refreshTokenFrom prefers the body field and falls back to the cookie.
func (h *Handlers) refreshTokenFrom(r *http.Request) string {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}

	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	if !h.cookies.Enabled {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/v1/auth",
		Domain:   h.cookies.Domain,
		MaxAge:   int(h.service.codec.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	if !h.cookies.Enabled {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/v1/auth",
		Domain:   h.cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func validateSignupRequest(req *SignupRequest) error {
	if req.Fullname == "" {
		return apperrors.ValidationError("fullname is required")
	}
	if len(req.Fullname) > 50 {
		return apperrors.ValidationError("fullname must be at most 50 characters")
	}
	if req.Email == "" {
		return apperrors.ValidationError("email is required")
	}
	if !emailRegex.MatchString(req.Email) {
		return apperrors.ValidationError("invalid email format")
	}
	if len(req.Password) < 8 {
		return apperrors.ValidationError("password must be at least 8 characters")
	}
	if len(req.Password) > MaxPasswordBytes {
		return apperrors.ValidationError(ErrPasswordTooLong.Error())
	}
	return nil
}

func requestID(r *http.Request) string {
	return apperrors.GetRequestID(r.Context())
}

// clientIP extracts the caller's address for the rate-limit key.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
