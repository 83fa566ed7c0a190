package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/models"
	"amplify_server/validation"
)

const (
	minPasswordLength = 6

	// ForgotPasswordMessage is returned whether or not the account exists.
	ForgotPasswordMessage = "If an account exists with that email, a password reset link has been sent."
)

// ContentRemover deletes everything a user has created.
type ContentRemover interface {
	DeleteUserContent(ctx context.Context, userID string) error
}

// AuthService owns credentials: registration, login, password and email changes, and
// account deletion.
type AuthService struct {
	Users      UserStore
	Tokens     *TokenManager
	Resets     ResetTokens
	Mailer     PasswordResetMailer
	Content    ContentRemover
	BcryptCost int
	Log        logger.Logger
}

// AuthResult is a user plus a fresh session token.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type RegisterInput struct {
	Username     string   `json:"username" validate:"min=3,max=30"`
	Email        string   `json:"email" validate:"email"`
	Password     string   `json:"password"`
	AccountType  string   `json:"accountType"`
	FullName     string   `json:"fullName" validate:"max=100"`
	School       string   `json:"school" validate:"max=100"`
	Organization string   `json:"organization" validate:"max=100"`
	Causes       []string `json:"causes" validate:"max=3,dive,cause"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *AuthService) hash(password string) (string, error) {
	cost := as.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func checkPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (as *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := as.Tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Register creates an account. Unknown account types become competitor.
func (as *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("All fields are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("Password must be at least 6 characters")
	}
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, apperrors.NewValidationError(verr.Message())
	}

	existing, err := as.Users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("Email already registered")
	}
	existing, err = as.Users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("Username already taken")
	}

	hash, err := as.hash(in.Password)
	if err != nil {
		return nil, err
	}

	createdAt := timestamp()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		AccountType:  models.NormalizeAccountType(in.AccountType),
		FullName:     in.FullName,
		School:       in.School,
		Organization: in.Organization,
		Causes:       in.Causes,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := as.Users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	as.Log.Info("user registered", map[string]interface{}{"userId": user.ID, "accountType": user.AccountType})
	return as.issue(user)
}

func (as *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required")
	}

	user, err := as.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !checkPassword(user, password) {
		return nil, apperrors.NewInvalidCredentialsError()
	}
	return as.issue(user)
}

// Authenticate resolves a session token to its user.
func (as *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := as.Tokens.ValidateToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Please authenticate")
	}
	user, err := as.Users.GetUser(ctx, claims.UserID)
	if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		return nil, apperrors.NewUnauthorizedError("Please authenticate")
	}
	return user, err
}

// ForgotPassword mails a reset link when the account exists. The caller always answers
// with ForgotPasswordMessage so addresses cannot be probed.
func (as *AuthService) ForgotPassword(ctx context.Context, email, baseURL string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.NewValidationError("Email is required")
	}

	user, err := as.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		as.Log.Info("password reset requested for unknown email", nil)
		return nil
	}

	token, err := as.Resets.Issue(ctx, user.ID)
	if err != nil {
		return apperrors.NewStorageError("Failed to process request", err)
	}
	if err := as.Mailer.SendPasswordResetEmail(ctx, user.Email, token, baseURL); err != nil {
		as.Log.WithError(err).Error("failed to send reset email", map[string]interface{}{"userId": user.ID})
	}
	return nil
}

func (as *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return apperrors.NewValidationError("Token and password are required")
	}
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("Password must be at least 6 characters")
	}

	userID, err := as.Resets.Consume(ctx, token)
	if errors.Is(err, ErrResetTokenInvalid) {
		return apperrors.NewValidationError("Invalid or expired reset token")
	}
	if err != nil {
		return apperrors.NewStorageError("Failed to reset password", err)
	}

	hash, err := as.hash(password)
	if err != nil {
		return err
	}
	_, err = as.Users.UpdateUser(ctx, userID, map[string]interface{}{"passwordHash": hash})
	if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		return apperrors.NewValidationError("Invalid or expired reset token")
	}
	return err
}

func (as *AuthService) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if current == "" || next == "" {
		return apperrors.NewValidationError("Current and new password are required")
	}
	if len(next) < minPasswordLength {
		return apperrors.NewValidationError("New password must be at least 6 characters")
	}
	if !checkPassword(user, current) {
		return apperrors.NewValidationError("Current password is incorrect")
	}

	hash, err := as.hash(next)
	if err != nil {
		return err
	}
	_, err = as.Users.UpdateUser(ctx, user.ID, map[string]interface{}{"passwordHash": hash})
	return err
}

func (as *AuthService) UpdateEmail(ctx context.Context, user *models.User, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required")
	}
	if !checkPassword(user, password) {
		return nil, apperrors.NewValidationError("Password is incorrect")
	}
	if verr := validation.ValidateVar(email, "email"); verr != nil {
		return nil, apperrors.NewValidationError("Please enter a valid email address")
	}

	existing, err := as.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != user.ID {
		return nil, apperrors.NewConflictError("Email is already in use")
	}
	return as.Users.UpdateUser(ctx, user.ID, map[string]interface{}{"email": email})
}

// DeleteAccount removes the user's comments, likes and videos, then the account.
func (as *AuthService) DeleteAccount(ctx context.Context, user *models.User, password string) error {
	if password == "" {
		return apperrors.NewValidationError("Password is required to delete account")
	}
	if !checkPassword(user, password) {
		return apperrors.NewValidationError("Password is incorrect")
	}
	if err := as.Content.DeleteUserContent(ctx, user.ID); err != nil {
		return err
	}
	if err := as.Users.DeleteUser(ctx, user.ID); err != nil {
		return err
	}
	as.Log.Info("account deleted", map[string]interface{}{"userId": user.ID})
	return nil
}
