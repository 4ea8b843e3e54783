package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/problem-tracker/internal/auth"
	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/events"
	"github.com/spec-kit/problem-tracker/internal/repository/memory"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// plainHasher keeps tests fast; bcrypt itself is covered in the auth package.
type plainHasher struct {
	mu       sync.Mutex
	verifies int
}

func (h *plainHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", auth.ErrEmptyPassword
	}
	return "hashed:" + plaintext, nil
}

func (h *plainHasher) Verify(plaintext, digest string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return digest == "hashed:"+plaintext
}

func (h *plainHasher) verifyCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

// countingCache is an in-memory StatsCache with the same generation rule as the Redis one.
type countingCache struct {
	mu          sync.Mutex
	stats       *domain.DashboardStats
	generation  int64
	gets        int
	invalidated int
}

func (c *countingCache) Get(context.Context) (*domain.DashboardStats, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.stats == nil {
		return nil, c.generation, nil
	}
	out := *c.stats
	return &out, c.generation, nil
}

func (c *countingCache) Set(_ context.Context, generation int64, stats domain.DashboardStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation == c.generation {
		c.stats = &stats
	}
	return nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	c.generation++
	c.invalidated++
	return nil
}

type fixture struct {
	users      *memory.UserStore
	problems   *memory.ProblemStore
	hasher     *plainHasher
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	cache      *countingCache
	auth       *AuthService
	problemSvc *ProblemService
	admin      *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	f := &fixture{
		users:      memory.NewUserStore(),
		problems:   memory.NewProblemStore(),
		hasher:     &plainHasher{},
		tokens:     tokens,
		dispatcher: events.NewInMemoryDispatcher(),
		cache:      &countingCache{},
	}
	f.auth = NewAuthService(AuthDependencies{
		UserRepo:   f.users,
		Hasher:     f.hasher,
		Tokens:     tokens,
		Dispatcher: f.dispatcher,
	})
	f.problemSvc = NewProblemService(ProblemDependencies{
		ProblemRepo: f.problems,
		Dispatcher:  f.dispatcher,
	})
	f.problemSvc.now = func() time.Time { return testNow }
	f.admin = NewAdminService(AdminDependencies{
		UserRepo:    f.users,
		ProblemRepo: f.problems,
		StatsCache:  f.cache,
	})
	NewActivityService(f.dispatcher, f.cache, nil).RegisterHandlers()
	return f
}

// signup registers a user and returns its principal.
func (f *fixture) signup(t *testing.T, username, role string) domain.Principal {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), SignupInput{
		Username: username,
		Email:    username + "@x.io",
		Password: "pw-" + username,
		Role:     role,
	})
	require.NoError(t, err)
	return domain.Principal{UserID: res.User.ID, Username: res.User.Username, Role: res.User.Role}
}
