package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/auth"
	"github.com/amara/mothertongue/internal/service"
)

// tokenCookieAge matches the JWT lifetime issued by TokenService.
const tokenCookieAge = 24 * time.Hour

// AuthHandler manages signup, login, the Google OAuth flow, and sessions.
//
//   - HandleSignUp         → email+password account creation (+optional referral code)
//   - HandleLogin          → email+password login
//   - HandleGoogleLogin    → redirect the browser to Google's consent page
//   - HandleGoogleCallback → receive the code, exchange it, issue JWT
//   - HandleLogout         → clear the JWT cookie
//   - HandleMe             → current user + profile
type AuthHandler struct {
	service  *service.AuthService
	profiles *service.ProfileService
	google   *auth.GoogleProvider // nil disables the OAuth routes
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. Pass a nil google provider when
// OAuth credentials are not configured; the routes then return 404.
func NewAuthHandler(
	svc *service.AuthService,
	profiles *service.ProfileService,
	google *auth.GoogleProvider,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{service: svc, profiles: profiles, google: google, logger: logger}
}

type signUpRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"displayName"`
	ReferralCode string `json:"referralCode"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is what signup/login/me return. The token travels only in
// the cookie, never in the body.
type authResponse struct {
	User    any `json:"user"`
	Profile any `json:"profile"`
}

// HandleSignUp creates an email+password account.
//
// HTTP: POST /auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.DisplayName, req.ReferralCode)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, authResponse{User: result.User, Profile: result.Profile})
}

// HandleLogin verifies an email+password pair.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, authResponse{User: result.User, Profile: result.Profile})
}

// HandleGoogleLogin redirects the user to Google's consent page.
//
// HTTP: GET /auth/google/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie; the callback
// verifies the value Google echoes back matches it.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		http.NotFound(w, r)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch or missing")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// State is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.service.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		h.logger.Error("oauth callback: login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /auth/logout
//
// Stateless JWTs have no server-side session to destroy: logout means
// deleting the cookie. The token stays technically valid until expiry,
// but the browser no longer sends it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the logged-in user and their profile.
//
// HTTP: GET /api/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: user, Profile: profile})
}

// setTokenCookie stores the JWT as an HttpOnly cookie. Secure should be
// enabled in production behind HTTPS.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
