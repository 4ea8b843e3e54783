package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/problem-tracker/internal/auth"
	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/events"
	"github.com/spec-kit/problem-tracker/internal/observability"
	"github.com/spec-kit/problem-tracker/internal/repository"
	"github.com/spec-kit/problem-tracker/internal/validation"
)

// SignupSuccessMessage is returned with every created account.
const SignupSuccessMessage = "User registered successfully"

// decoyPassword is hashed once to give unknown usernames the same verification cost as known ones.
const decoyPassword = "decoy-password-for-unknown-users"

// Auth metric outcomes.
const (
	outcomeSuccess   = "success"
	outcomeFailure   = "failure"
	outcomeDuplicate = "duplicate"
	outcomeInvalid   = "invalid"
)

// TokenIssuer mints session tokens for stored users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	tokens     TokenIssuer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     auth.PasswordHasher
	Tokens     TokenIssuer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// SignupInput describes a registration request. Role is the raw client value and goes
// through domain.ParseRole.
type SignupInput struct {
	Username string `json:"username" validate:"required,nonul,max=64"`
	Email    string `json:"email" validate:"required,nonul,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role"`
}

// SignupResult is the outcome of a registration. It never carries a token.
type SignupResult struct {
	Message string
	User    *domain.User
}

// LoginResult carries a freshly minted session token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Signup registers a new principal. Duplicate usernames and emails fail with errors matching
// domain.ErrDuplicateIdentity; the store's uniqueness check is authoritative, the pre-check
// only avoids hashing for obvious collisions.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := validation.Struct(input); err != nil {
		s.metrics.RecordAuth(observability.AuthEventSignup, outcomeInvalid)
		return nil, err
	}

	if exists, err := s.users.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if exists {
		s.metrics.RecordAuth(observability.AuthEventSignup, outcomeDuplicate)
		return nil, domain.ErrDuplicateUsername
	}
	if exists, err := s.users.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if exists {
		s.metrics.RecordAuth(observability.AuthEventSignup, outcomeDuplicate)
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.metrics.RecordAuth(observability.AuthEventSignup, outcomeInvalid)
		}
		return nil, err
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.ParseRole(input.Role),
		Enabled:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			s.metrics.RecordAuth(observability.AuthEventSignup, outcomeDuplicate)
		}
		return nil, err
	}

	s.metrics.RecordAuth(observability.AuthEventSignup, outcomeSuccess)
	s.publish(ctx, events.EventUserSignedUp, events.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}, nil)

	return &SignupResult{Message: SignupSuccessMessage, User: user}, nil
}

// Login authenticates a principal. Unknown usernames, disabled accounts and wrong passwords
// all yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// A username the store cannot even encode names no account.
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		s.hasher.Verify(password, s.decoy())
		return nil, s.loginFailed(ctx, username, "unknown_user")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, username, "bad_password")
	}
	if !user.Enabled {
		return nil, s.loginFailed(ctx, username, "disabled")
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAuth(observability.AuthEventLogin, outcomeSuccess)
	s.publish(ctx, events.EventUserLoggedIn, events.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}, nil)

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, username, reason string) error {
	s.metrics.RecordAuth(observability.AuthEventLogin, outcomeFailure)
	s.publish(ctx, events.EventLoginFailed, events.Actor{Username: username}, events.LoginFailedPayload{Reason: reason})
	return domain.ErrInvalidCredentials
}

func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(decoyPassword)
		if err != nil {
			s.logger.Warn("decoy hash unavailable", zap.Error(err))
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, payload any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, actor, s.now(), payload)); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
