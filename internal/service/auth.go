package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is the lifetime of a session JWT.
const DefaultSessionTTL = 7 * 24 * time.Hour

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles authentication, JWT, and user management.
type AuthService struct {
	jwtSecret     []byte
	sessionTTL    time.Duration
	adminEmail    string
	adminPassword string
	userRepo      UserRepository
	log           logger.Logger
	now           func() time.Time
}

// AuthOptions configures an AuthService.
type AuthOptions struct {
	JWTSecret     string
	SessionTTL    time.Duration
	AdminEmail    string
	AdminPassword string
}

// NewAuthService creates a new AuthService.
func NewAuthService(opts AuthOptions, userRepo UserRepository, log logger.Logger) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		jwtSecret:     []byte(opts.JWTSecret),
		sessionTTL:    ttl,
		adminEmail:    opts.AdminEmail,
		adminPassword: opts.AdminPassword,
		userRepo:      userRepo,
		log:           log,
		now:           time.Now,
	}
}

// SeedAdmin creates the configured admin user if it doesn't exist.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	if s.adminEmail == "" || s.adminPassword == "" {
		s.log.Info("admin seeding skipped, no credentials configured", nil)
		return nil
	}

	exists, err := s.userRepo.Exists(ctx, s.adminEmail)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		s.log.Debug("admin user already exists", map[string]interface{}{"email": s.adminEmail})
		return nil
	}

	if _, err := s.createUser(ctx, s.adminEmail, s.adminPassword, "Admin", domain.RoleAdmin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	s.log.Info("admin user created", map[string]interface{}{"email": s.adminEmail})
	return nil
}

// Register creates a fan or artist account and logs it in.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user", err)
	}
	if exists {
		return nil, domain.ErrConflict("email already registered")
	}

	role := req.Role
	if role == "" {
		role = domain.RoleFan
	}

	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, role)
	if err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}

	s.log.Info("user registered", map[string]interface{}{"userId": user.ID, "role": user.Role})
	return s.issueSession(user)
}

// Login validates credentials against the database and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	return s.issueSession(user)
}

func (s *AuthService) issueSession(user *domain.User) (*domain.LoginResponse, error) {
	now := s.now()
	claims := sessionClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, domain.ErrInternal("failed to sign token", err)
	}

	return &domain.LoginResponse{
		Token: signed,
		User: domain.LoginUser{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// VerifyToken validates a session JWT and returns its claims.
func (s *AuthService) VerifyToken(tokenStr string) (*domain.JWTClaims, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized("invalid token claims")
	}

	return &domain.JWTClaims{
		Sub:   claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// ListUsers returns all users (admin only).
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.UserResponse, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list users", err)
	}

	responses := make([]*domain.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return responses, nil
}

// CreateUser creates a new user with bcrypt password (admin only).
func (s *AuthService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user", err)
	}
	if exists {
		return nil, domain.ErrConflict("email already registered")
	}

	role := req.Role
	if role == "" {
		role = domain.RoleFan
	}

	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, role)
	if err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}
	return user.ToResponse(), nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, displayName, role string) (*domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:          domain.NewUserID(),
		Email:       email,
		DisplayName: displayName,
		Password:    string(hashedPassword),
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user by ID (admin only).
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return domain.ErrNotFound("user not found")
	}
	if user.Role == domain.RoleAdmin {
		return domain.ErrBadRequest("cannot delete admin user")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return domain.ErrInternal("failed to delete user", err)
	}
	return nil
}

// GetUserByID returns a user profile by ID (for /api/auth/me).
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	return user.ToResponse(), nil
}
