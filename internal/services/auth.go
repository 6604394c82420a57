package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mailbox-server/internal/auth"
	"mailbox-server/internal/logging"
	"mailbox-server/internal/models"
	"mailbox-server/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

// SignupConfirmation is returned by a successful Signup.
const SignupConfirmation = "User registered successfully!"

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// LoginResult is what a client receives after authenticating.
type LoginResult struct {
	Token    string   `json:"token"`
	Type     string   `json:"type"`
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// AuthService creates accounts and authenticates users.
type AuthService struct {
	users  store.Users
	tokens *auth.TokenManager
	log    logging.Logger
	tel    *telemetry
	now    func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(users store.Users, tokens *auth.TokenManager, log logging.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log.With("component", "auth"),
		tel:    newTelemetry(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies the credentials, stamps the last-login time and issues a
// session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (result *LoginResult, err error) {
	ctx, done := s.tel.start(ctx, "login")
	defer func() { done(err) }()

	// usernames are stored trimmed by Signup
	username = strings.TrimSpace(username)
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Info(ctx, "login rejected", "username", username, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !user.CheckPassword(password) {
		s.log.Info(ctx, "login rejected", "username", username, "reason", "bad password")
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, fmt.Errorf("record last login: %w", err)
	}

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	token, err := s.tokens.Generate(auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    roles,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{
		Token:    token,
		Type:     "Bearer",
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    roles,
	}, nil
}

// Signup creates an account with a hashed password and the default role. It
// does not log the user in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (msg string, err error) {
	ctx, done := s.tel.start(ctx, "signup", attribute.String("username", in.Username))
	defer func() { done(err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return "", fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}

	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("%w: username is already taken", ErrConflict)
	}

	taken, err = s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("%w: email is already in use", ErrConflict)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Roles:     []string{models.DefaultRole},
	}
	if err := user.SetPassword(in.Password); err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same username or email
		if errors.Is(err, store.ErrDuplicate) {
			return "", fmt.Errorf("%w: username or email already exists", ErrConflict)
		}
		return "", err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return SignupConfirmation, nil
}
