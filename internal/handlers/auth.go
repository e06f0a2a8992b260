package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/cupid-code/internal/database"
	logpkg "github.com/benvon/cupid-code/internal/logger"
	"github.com/benvon/cupid-code/internal/middleware"
	"github.com/benvon/cupid-code/internal/models"
	"github.com/benvon/cupid-code/internal/services/identity"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Start destinations returned by GET /start
const (
	StartLoginSignup = "login_signup"
	StartMenu        = "menu"
)

// Credentials exchanges an email/password pair for provider tokens
type Credentials interface {
	SignIn(ctx context.Context, email, password string) (*oauth2.Token, error)
	SignUp(ctx context.Context, email, password string) (*oauth2.Token, error)
}

// AuthHandler handles login, sign-up and the signed-in user's settings
type AuthHandler struct {
	credentials Credentials
	verifier    middleware.TokenVerifier
	users       database.UserRepositoryInterface
	prefs       database.PreferencesRepositoryInterface
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(credentials Credentials, verifier middleware.TokenVerifier, users database.UserRepositoryInterface, prefs database.PreferencesRepositoryInterface, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		verifier:    verifier,
		users:       users,
		prefs:       prefs,
		logger:      logger,
	}
}

// RegisterPublicRoutes registers login and sign-up on a router with the /api/v1/auth prefix
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/signup", h.Signup).Methods("POST")
}

// RegisterRoutes registers routes that require an authenticated user
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/me", h.GetMe).Methods("GET")
	r.HandleFunc("/me/preferences", h.GetPreferences).Methods("GET")
	r.HandleFunc("/me/preferences", h.UpdatePreferences).Methods("PUT")
}

// CredentialsRequest is the body of login and sign-up
type CredentialsRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	KeepLoggedIn bool   `json:"keep_logged_in"`
}

// AuthResponse is returned after a successful login or sign-up
type AuthResponse struct {
	Message      string       `json:"message"`
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *models.User `json:"user"`
	Next         string       `json:"next"`
}

// PreferencesRequest updates the signed-in user's preferences
type PreferencesRequest struct {
	KeepLoggedIn *bool `json:"keep_logged_in" validate:"required"`
}

// StartResponse names the screen a client should open first
type StartResponse struct {
	Start string `json:"start"`
}

// Login signs in with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, "Login", h.credentials.SignIn)
}

// Signup creates an account and signs in
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, "Signup", h.credentials.SignUp)
}

type exchangeFunc func(ctx context.Context, email, password string) (*oauth2.Token, error)

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, action string, exchange exchangeFunc) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondJSONError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		respondJSONError(w, http.StatusBadRequest, errBadRequest, "Fields cannot be empty")
		return
	}

	ctx := r.Context()
	token, err := exchange(ctx, req.Email, req.Password)
	if err != nil {
		status, errorType := authErrorStatus(err)
		h.logger.Info("authentication_failed",
			zap.String("action", action),
			zap.String("email", logpkg.MaskEmail(req.Email)),
			zap.Int("status_code", status),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, status, errorType, action+" failed: "+err.Error())
		return
	}

	claims, err := h.verifier.Verify(ctx, token.AccessToken)
	if err != nil {
		h.logger.Error("issued_token_verification_failed",
			zap.String("action", action),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusBadGateway, errBadGateway, action+" failed: identity provider returned an invalid token")
		return
	}

	user, err := h.users.UpsertFromClaims(ctx, claims)
	if err != nil {
		h.logger.Error("failed_to_upsert_user",
			zap.String("provider_id", logpkg.SanitizeUserID(claims.Sub)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, errInternal, "Failed to load user")
		return
	}

	// the flag is only ever set here; clearing it goes through PUT /me/preferences
	if req.KeepLoggedIn {
		if _, err := h.prefs.SetKeepLoggedIn(ctx, user.ID, true); err != nil {
			h.logger.Warn("failed_to_store_keep_logged_in",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
		}
	}

	resp := AuthResponse{
		Message:     action + " successful!",
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		User:        user,
		Next:        StartMenu,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		resp.ExpiresAt = &expiry
	}
	if req.KeepLoggedIn {
		resp.RefreshToken = token.RefreshToken
	}

	h.logger.Info("user_authenticated",
		zap.String("action", action),
		zap.String("user_id", user.ID.String()),
		zap.Bool("keep_logged_in", req.KeepLoggedIn),
	)
	respondJSON(w, http.StatusOK, resp)
}

func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, errUnauthorized
	case errors.Is(err, identity.ErrAccountExists):
		return http.StatusConflict, errConflict
	case errors.Is(err, identity.ErrSignupUnavailable):
		return http.StatusNotImplemented, "Not Implemented"
	default:
		return http.StatusBadGateway, errBadGateway
	}
}

// GetStart reports which screen to open. It expects OptionalAuth in front of it.
func (h *AuthHandler) GetStart(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSON(w, http.StatusOK, StartResponse{Start: StartLoginSignup})
		return
	}

	prefs, err := h.prefs.Get(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("failed_to_load_preferences",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSON(w, http.StatusOK, StartResponse{Start: StartLoginSignup})
		return
	}
	if !prefs.KeepLoggedIn {
		respondJSON(w, http.StatusOK, StartResponse{Start: StartLoginSignup})
		return
	}
	respondJSON(w, http.StatusOK, StartResponse{Start: StartMenu})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, errUnauthorized, "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// GetPreferences returns the current user's preferences
func (h *AuthHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, errUnauthorized, "User not found in context")
		return
	}

	prefs, err := h.prefs.Get(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed_to_load_preferences",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, errInternal, "Failed to load preferences")
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences changes the current user's preferences
func (h *AuthHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, errUnauthorized, "User not found in context")
		return
	}

	var req PreferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	}

	prefs, err := h.prefs.SetKeepLoggedIn(r.Context(), user.ID, *req.KeepLoggedIn)
	if err != nil {
		h.logger.Error("failed_to_update_preferences",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, errInternal, "Failed to update preferences")
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}
