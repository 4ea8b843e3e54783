package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/problem-tracker/internal/auth"
	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/events"
	"github.com/spec-kit/problem-tracker/internal/repository"
)

func TestSignup_StoresHashedUser(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Signup(context.Background(), SignupInput{
		Username: "  ada ",
		Email:    "ada@x.io",
		Password: "pw1",
	})
	require.NoError(t, err)

	assert.Equal(t, SignupSuccessMessage, res.Message)
	assert.Equal(t, "ada", res.User.Username)
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.User.ID)

	stored, err := f.users.GetByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.True(t, stored.Enabled)

	body, err := json.Marshal(res.User)
	require.NoError(t, err)
	assert.NotContains(t, string(body), stored.PasswordHash)
	assert.NotContains(t, string(body), "password")
}

func TestSignup_RoleParsing(t *testing.T) {
	tests := []struct {
		role string
		want domain.Role
	}{
		{role: "", want: domain.RoleUser},
		{role: "admin", want: domain.RoleAdmin},
		{role: "USER", want: domain.RoleUser},
		{role: "superuser", want: domain.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			f := newFixture(t)
			principal := f.signup(t, "ada", tt.role)
			assert.Equal(t, tt.want, principal.Role)
		})
	}
}

func TestSignup_Duplicates(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ada", "")

	_, err := f.auth.Signup(context.Background(), SignupInput{Username: "ada", Email: "other@x.io", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	_, err = f.auth.Signup(context.Background(), SignupInput{Username: "other", Email: "ada@x.io", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
}

func TestSignup_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input SignupInput
	}{
		{name: "empty username", input: SignupInput{Username: "  ", Email: "ada@x.io", Password: "pw"}},
		{name: "empty email", input: SignupInput{Username: "ada", Password: "pw"}},
		{name: "bad email", input: SignupInput{Username: "ada", Email: "ada", Password: "pw"}},
		{name: "empty password", input: SignupInput{Username: "ada", Email: "ada@x.io"}},
		{name: "nul in username", input: SignupInput{Username: "ada\x00", Email: "ada@x.io", Password: "pw"}},
		{name: "nul in email", input: SignupInput{Username: "ada", Email: "ada\x00@x.io", Password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.auth.Signup(context.Background(), tt.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			exists, err := f.users.ExistsByEmail(context.Background(), "ada@x.io")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestSignup_PasswordOverBcryptByteLimit(t *testing.T) {
	f := newFixture(t)
	f.auth = NewAuthService(AuthDependencies{
		UserRepo:   f.users,
		Hasher:     auth.NewBcryptHasher(),
		Tokens:     f.tokens,
		Dispatcher: f.dispatcher,
	})

	// 40 runes pass the length rule but encode to 80 bytes.
	_, err := f.auth.Signup(context.Background(), SignupInput{
		Username: "ada",
		Email:    "ada@x.io",
		Password: strings.Repeat("é", 40),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	exists, err := f.users.ExistsByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSignup_ConcurrentDuplicatesPersistOnce(t *testing.T) {
	f := newFixture(t)

	const attempts = 12
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Signup(context.Background(), SignupInput{Username: "ada", Email: "ada@x.io", Password: "pw"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case assert.ErrorIs(t, err, domain.ErrDuplicateIdentity):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	assert.Equal(t, attempts-1, dups)
	users, err := f.users.ListByRole(context.Background(), domain.RoleUser)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLogin_RoundTrip(t *testing.T) {
	f := newFixture(t)
	principal := f.signup(t, "ada", "admin")

	res, err := f.auth.Login(context.Background(), "ada", "pw-ada")
	require.NoError(t, err)
	assert.Equal(t, principal.UserID, res.User.ID)
	assert.True(t, res.ExpiresAt.After(testNow))

	verified, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, principal, *verified)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ada", "")

	before := f.hasher.verifyCalls()
	_, wrongPassword := f.auth.Login(context.Background(), "ada", "nope")
	_, unknownUser := f.auth.Login(context.Background(), "nobody", "nope")

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	assert.Equal(t, 2, f.hasher.verifyCalls()-before, "unknown usernames still pay for a hash comparison")
}

// unencodableUsers rejects every username lookup the way Postgres rejects NUL bytes.
type unencodableUsers struct {
	repository.UserRepository
}

func (unencodableUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, fmt.Errorf("%w: invalid byte sequence", domain.ErrInvalidInput)
}

func TestLogin_UnencodableUsernameIsFailedLogin(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Login(context.Background(), "ada\x00", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	f.auth = NewAuthService(AuthDependencies{
		UserRepo:   unencodableUsers{UserRepository: f.users},
		Hasher:     f.hasher,
		Tokens:     f.tokens,
		Dispatcher: f.dispatcher,
	})
	before := f.hasher.verifyCalls()
	_, err = f.auth.Login(context.Background(), "ada\x00", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, f.hasher.verifyCalls()-before)
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Create(context.Background(), &domain.User{
		Username:     "ada",
		Email:        "ada@x.io",
		PasswordHash: "hashed:pw",
		Role:         domain.RoleUser,
		Enabled:      false,
	}))

	_, err := f.auth.Login(context.Background(), "ada", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuth_PublishesEvents(t *testing.T) {
	f := newFixture(t)

	var (
		mu   sync.Mutex
		seen []events.EventType
	)
	record := func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
		return nil
	}
	f.dispatcher.Subscribe(events.EventUserSignedUp, record)
	f.dispatcher.Subscribe(events.EventUserLoggedIn, record)
	f.dispatcher.Subscribe(events.EventLoginFailed, record)

	f.signup(t, "ada", "")
	_, _ = f.auth.Login(context.Background(), "ada", "wrong")
	_, err := f.auth.Login(context.Background(), "ada", "pw-ada")
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.EventUserSignedUp, events.EventLoginFailed, events.EventUserLoggedIn}, seen)
}
