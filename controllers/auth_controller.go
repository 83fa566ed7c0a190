package controllers

import (
	"net/http"
	"strings"

	"amplify_server/logger"
	"amplify_server/middleware"
	"amplify_server/services"
)

const defaultFrontendURL = "http://localhost:5173"

// AuthController handles account and session requests.
type AuthController struct {
	AuthService AuthAPI
	FrontendURL string
	Log         logger.Logger
}

func NewAuthController(authService AuthAPI, frontendURL string, log logger.Logger) *AuthController {
	return &AuthController{AuthService: authService, FrontendURL: frontendURL, Log: log}
}

// Register creates an account and signs it in.
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, ac.Log, err, "Registration failed")
		return
	}
	result, err := ac.AuthService.Register(r.Context(), in)
	if err != nil {
		respondError(w, ac.Log, err, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, ac.Log, err, "Login failed")
		return
	}
	result, err := ac.AuthService.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respondError(w, ac.Log, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Me returns the signed-in user.
func (ac *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": middleware.UserFromContext(r.Context())})
}

func (ac *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, ac.Log, err, "Failed to process request")
		return
	}
	if err := ac.AuthService.ForgotPassword(r.Context(), body.Email, ac.resetBaseURL(r)); err != nil {
		respondError(w, ac.Log, err, "Failed to process request")
		return
	}
	writeMessage(w, services.ForgotPasswordMessage)
}

// resetBaseURL is where the reset link points: the requesting frontend when the browser
// sent an Origin, else the configured frontend.
func (ac *AuthController) resetBaseURL(r *http.Request) string {
	if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" {
		return origin
	}
	if ac.FrontendURL != "" {
		return ac.FrontendURL
	}
	return defaultFrontendURL
}

func (ac *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, ac.Log, err, "Failed to reset password")
		return
	}
	if err := ac.AuthService.ResetPassword(r.Context(), body.Token, body.Password); err != nil {
		respondError(w, ac.Log, err, "Failed to reset password")
		return
	}
	writeMessage(w, "Password reset successfully")
}

func (ac *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, ac.Log, err, "Failed to change password")
		return
	}
	user := middleware.UserFromContext(r.Context())
	if err := ac.AuthService.ChangePassword(r.Context(), user, body.CurrentPassword, body.NewPassword); err != nil {
		respondError(w, ac.Log, err, "Failed to change password")
		return
	}
	writeMessage(w, "Password changed successfully")
}

func (ac *AuthController) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, ac.Log, err, "Failed to update email")
		return
	}
	user, err := ac.AuthService.UpdateEmail(r.Context(), middleware.UserFromContext(r.Context()), body.Email, body.Password)
	if err != nil {
		respondError(w, ac.Log, err, "Failed to update email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user, "message": "Email updated successfully"})
}

// DeleteAccount removes the signed-in user and everything they posted.
func (ac *AuthController) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, ac.Log, err, "Failed to delete account")
		return
	}
	if err := ac.AuthService.DeleteAccount(r.Context(), middleware.UserFromContext(r.Context()), body.Password); err != nil {
		respondError(w, ac.Log, err, "Failed to delete account")
		return
	}
	writeMessage(w, "Account deleted successfully")
}
