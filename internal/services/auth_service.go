package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"
	"fitness_portal_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotVerified    = errors.New("email address not verified")
	ErrAuthValidation      = errors.New("authentication data validation error")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidSetupToken   = errors.New("invalid admin setup token")
	ErrSetupTokenUnset     = errors.New("admin setup token not configured")
	ErrAccountBlocked      = errors.New("account is blocked")
)

const minPasswordLength = 8

type RegisterRequest struct {
	Email             string `json:"email" binding:"required"`
	Password          string `json:"password" binding:"required"`
	FirstName         string `json:"first_name" binding:"required"`
	LastName          string `json:"last_name" binding:"required"`
	WantsGoogleWallet bool   `json:"wants_google_wallet"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token string       `json:"token,omitempty"`
	User  *models.User `json:"user"`
}

// AuthService handles registration, login, email verification and the
// one-time admin promotion flow.
type AuthService interface {
	Register(req RegisterRequest) (*AuthResponse, error)
	Login(req LoginRequest) (*AuthResponse, error)
	VerifyEmail(token string) (*models.User, error)
	PromoteToAdmin(email, setupToken string) (*models.User, error)
	GetProfile(userID int64) (*models.User, error)
}

// AuthConfig carries environment-derived settings for the auth flows.
type AuthConfig struct {
	FrontendURL     string
	BackendBaseURL  string
	AdminSetupToken string
}

type authService struct {
	userRepo   repositories.UserRepository
	memberRepo repositories.MemberRepository
	emails     EmailService
	db         *sql.DB
	cfg        AuthConfig
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repositories.UserRepository, memberRepo repositories.MemberRepository, emails EmailService, db *sql.DB, cfg AuthConfig) AuthService {
	return &authService{
		userRepo:   userRepo,
		memberRepo: memberRepo,
		emails:     emails,
		db:         db,
		cfg:        cfg,
	}
}

func (s *authService) validateRegistration(req *RegisterRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if !utils.IsValidEmail(req.Email) {
		return fmt.Errorf("%w: email format is invalid", ErrAuthValidation)
	}
	if !utils.IsValidPasswordLength(req.Password, minPasswordLength) {
		return fmt.Errorf("%w: password must be at least %d characters", ErrAuthValidation, minPasswordLength)
	}
	if utils.IsEmpty(req.FirstName) || utils.IsEmpty(req.LastName) {
		return fmt.Errorf("%w: first and last name are required", ErrAuthValidation)
	}
	return nil
}

// Register creates the user and its member profile in one transaction and
// dispatches the verification email. The member starts as PENDING.
func (s *authService) Register(req RegisterRequest) (*AuthResponse, error) {
	if err := s.validateRegistration(&req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user := &models.User{
		Email:             req.Email,
		Role:              models.RoleMember,
		WantsGoogleWallet: req.WantsGoogleWallet,
	}
	if _, err := s.userRepo.CreateUser(tx, user, string(hashedPassword)); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	member := &models.Member{
		UserID:       user.ID,
		MembershipID: utils.NewMembershipID(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Status:       models.MemberStatusPending,
	}
	if _, err := s.memberRepo.CreateMember(tx, member); err != nil {
		return nil, fmt.Errorf("failed to create member profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration transaction: %w", err)
	}
	user.Member = member

	verifyToken, err := utils.GenerateVerificationToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	verifyURL := fmt.Sprintf("%s/api/v1/auth/verify?token=%s", s.cfg.BackendBaseURL, verifyToken)
	if err := s.emails.SendVerificationEmail(user.Email, member.FirstName, verifyURL); err != nil {
		utils.LogError(err, "Failed to send verification email")
	}

	return &AuthResponse{User: user}, nil
}

// Login verifies credentials and issues an access token. Unverified accounts
// and blocked members are rejected.
func (s *authService) Login(req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.FindUserByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	if user.Role == models.RoleMember {
		member, err := s.memberRepo.GetMemberByUserID(user.ID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load member profile: %w", err)
		}
		if member != nil {
			if member.Status == models.MemberStatusBlocked {
				return nil, ErrAccountBlocked
			}
			user.Member = member
		}
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	user.PasswordHash = ""

	return &AuthResponse{Token: token, User: user}, nil
}

// VerifyEmail consumes a verification token: the user is flagged verified and
// the member profile switches PENDING -> ACTIVE in the same transaction.
func (s *authService) VerifyEmail(token string) (*models.User, error) {
	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.Email != claims.Email {
		return nil, ErrInvalidToken
	}
	if user.IsEmailVerified {
		return user, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.SetEmailVerified(tx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}

	member, err := s.memberRepo.GetMemberByUserID(user.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load member profile: %w", err)
	}
	if member != nil && member.Status == models.MemberStatusPending {
		if member, err = s.memberRepo.UpdateStatus(tx, member.ID, models.MemberStatusActive); err != nil {
			return nil, fmt.Errorf("failed to activate member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit verification transaction: %w", err)
	}
	user.IsEmailVerified = true
	user.Member = member

	if member != nil {
		if err := s.emails.SendWelcomeEmail(user.Email, member.FirstName, member.MembershipID); err != nil {
			utils.LogError(err, "Failed to send welcome email")
		}
	}
	return user, nil
}

// PromoteToAdmin upgrades an existing account to the ADMIN role. It requires
// the shared setup token and refuses to run when that token is not configured.
func (s *authService) PromoteToAdmin(email, setupToken string) (*models.User, error) {
	if s.cfg.AdminSetupToken == "" {
		return nil, ErrSetupTokenUnset
	}
	if setupToken != s.cfg.AdminSetupToken {
		return nil, ErrInvalidSetupToken
	}

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.UpdateRoleByEmail(s.db, email, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}
	utils.LogInfo("User promoted to admin", map[string]interface{}{"email": email})
	return user, nil
}

// GetProfile loads the authenticated user with its member profile.
func (s *authService) GetProfile(userID int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.PasswordHash = ""

	member, err := s.memberRepo.GetMemberByUserID(userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load member profile: %w", err)
	}
	user.Member = member
	return user, nil
}
