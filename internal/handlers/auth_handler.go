package handlers

import (
	"net/http"

	"familyledger/internal/models"
	"familyledger/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an unverified account and emails a verification code.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "account created, check your email for the verification code",
		"data":    user,
	})
}

// Verify confirms the emailed code and signs the user in.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	token, user, err := h.authService.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// ResendVerification emails a fresh verification code.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	if err := h.authService.ResendVerification(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "verification code sent")
}

// Login signs in with email or username plus password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// ChangePassword replaces the caller's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "password updated")
}
