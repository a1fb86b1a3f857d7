package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"familyledger/internal/apperrors"
	"familyledger/internal/models"
	"familyledger/internal/repository"
	"familyledger/internal/security"
	"familyledger/internal/validation"
)

// AuthService handles registration, verification, and login. New accounts
// start unverified and hold a six digit code until the owner confirms the
// email address; only verified accounts can sign in with a password.
type AuthService struct {
	userRepo *repository.UserRepository
	email    *EmailService
	tokens   *security.TokenManager
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo *repository.UserRepository, email *EmailService, tokens *security.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		email:    email,
		tokens:   tokens,
	}
}

// Register creates an unverified account and emails its verification code.
// Registering again with the email of an unverified account replaces that
// account's details and issues a fresh code.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validation.ValidateUsername(username); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, err := security.GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsVerified {
			return nil, apperrors.BadRequest("email already registered")
		}
		// Unfinished registration: overwrite it and send a new code.
		if err := s.userRepo.UpdateUnverified(ctx, email, username, hash, code); err != nil {
			return nil, err
		}
		s.sendVerificationCode(ctx, email, username, code)
		return s.userRepo.GetUserByEmail(ctx, email)
	}

	byName, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if byName != nil {
		return nil, apperrors.BadRequest("username already taken")
	}

	user, err := s.userRepo.CreateUser(ctx, username, email, hash, code)
	if err != nil {
		return nil, err
	}
	s.sendVerificationCode(ctx, email, username, code)
	return user, nil
}

// Verify checks the emailed code, marks the account verified, and signs the
// user in.
func (s *AuthService) Verify(ctx context.Context, email, code string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return "", nil, apperrors.BadRequest("email and verification code are required")
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apperrors.NotFound("user not found")
	}
	if user.IsVerified {
		return "", nil, apperrors.BadRequest("account already verified")
	}
	if user.VerificationCode == "" || user.VerificationCode != code {
		return "", nil, apperrors.BadRequest("invalid verification code")
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return "", nil, err
	}
	user.IsVerified = true
	user.VerificationCode = ""

	if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Username); err != nil {
		log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}

// ResendVerification issues a fresh code to an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.BadRequest("email is required")
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("user not found")
	}
	if user.IsVerified {
		return apperrors.BadRequest("account already verified")
	}

	code, err := security.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.userRepo.SetVerificationCode(ctx, user.ID, code); err != nil {
		return err
	}
	s.sendVerificationCode(ctx, user.Email, user.Username, code)
	return nil
}

// Login signs in with either email or username plus password.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, *models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", nil, apperrors.BadRequest("identifier and password are required")
	}

	user, err := s.userRepo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return "", nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return "", nil, apperrors.Unauthorized("invalid credentials")
	}
	if !security.CheckPassword(password, user.PasswordHash) {
		return "", nil, apperrors.Unauthorized("invalid credentials")
	}
	if !user.IsVerified {
		return "", nil, apperrors.Forbidden("account not verified")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("user not found")
	}
	if user.PasswordHash == "" {
		return apperrors.BadRequest("account has no password; it was created through a sign-in provider")
	}
	if !security.CheckPassword(oldPassword, user.PasswordHash) {
		return apperrors.Unauthorized("old password is incorrect")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperrors.BadRequest(err.Error())
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hash)
}

// OAuthLogin signs in a user authenticated by an external provider. It
// matches on provider subject first, then links by email, and otherwise
// creates a verified account with a username derived from the email.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (string, *models.User, error) {
	if provider == "" || subject == "" || email == "" {
		return "", nil, apperrors.BadRequest("provider did not return a usable identity")
	}
	email = strings.ToLower(email)

	user, err := s.userRepo.GetUserByOAuth(ctx, provider, subject)
	if err != nil {
		return "", nil, err
	}

	if user == nil {
		user, err = s.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return "", nil, err
		}
		if user != nil {
			if err := s.userRepo.LinkOAuthProvider(ctx, user.ID, provider, subject); err != nil {
				return "", nil, err
			}
		}
	}

	if user == nil {
		username, err := s.availableUsername(ctx, email, name)
		if err != nil {
			return "", nil, err
		}
		user, err = s.userRepo.CreateVerifiedUser(ctx, username, email, provider, subject)
		if err != nil {
			return "", nil, err
		}
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Username); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) availableUsername(ctx context.Context, email, name string) (string, error) {
	base := strings.TrimSpace(name)
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
	}
	base = strings.ReplaceAll(base, " ", "")
	if len(base) < 2 {
		base = "member" + base
	}

	existing, err := s.userRepo.GetUserByUsername(ctx, base)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return base, nil
	}

	suffix, err := security.GenerateVerificationCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate username suffix: %w", err)
	}
	return base + suffix, nil
}

func (s *AuthService) sendVerificationCode(ctx context.Context, email, username, code string) {
	if err := s.email.SendVerificationEmail(ctx, email, username, code); err != nil {
		log.Printf("Failed to send verification email to %s: %v", email, err)
	}
}
