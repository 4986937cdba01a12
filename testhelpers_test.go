package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    user_role TEXT NOT NULL,
    username TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone_number TEXT,
    password_hash TEXT,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);`

	sqliteCreateAdmins = `CREATE TABLE admins (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL UNIQUE,
    is_super_admin BOOLEAN NOT NULL DEFAULT FALSE,
    can_manage_users BOOLEAN NOT NULL DEFAULT FALSE,
    can_manage_content BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users (id)
);`

	sqliteCreateOtpCodes = `CREATE TABLE otp_codes (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    value TEXT NOT NULL,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    expiration_time TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users (id)
);`
)

func setupRepoManager(t *testing.T) auth.RepositoryManager {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, ddl := range []string{sqliteCreateUsers, sqliteCreateAdmins, sqliteCreateOtpCodes} {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return auth.NewRepositoryManager(bunDB)
}

func createTestUser(t *testing.T, repo auth.RepositoryManager, email, password string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &auth.User{
		Email:        email,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return user
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// renderLogger formats every call the way defLogger would, so tests can
// assert the printf formats match their arguments.
type renderLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *renderLogger) log(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *renderLogger) Debug(format string, args ...any) { l.log(format, args...) }

func (l *renderLogger) Info(format string, args ...any) { l.log(format, args...) }

func (l *renderLogger) Warn(format string, args ...any) { l.log(format, args...) }

func (l *renderLogger) Error(format string, args ...any) { l.log(format, args...) }

func (l *renderLogger) rendered() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, evt auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) byType(eventType auth.ActivityEventType) []auth.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []auth.ActivityEvent
	for _, evt := range c.events {
		if evt.EventType == eventType {
			out = append(out, evt)
		}
	}
	return out
}

type capturingNotifier struct {
	mu            sync.Mutex
	notifications []auth.Notification
}

func (c *capturingNotifier) Notify(_ context.Context, n auth.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, n)
	return nil
}

func (c *capturingNotifier) last(t *testing.T) auth.Notification {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	require.NotEmpty(t, c.notifications)
	return c.notifications[len(c.notifications)-1]
}

type testConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey:      "test-signing-key",
		tokenExpiration: 24,
		issuer:          "test-issuer",
		audience:        []string{"test-audience"},
	}
}

func (c testConfig) GetSigningKey() string { return c.signingKey }

func (c testConfig) GetTokenExpiration() int { return c.tokenExpiration }

func (c testConfig) GetIssuer() string { return c.issuer }

func (c testConfig) GetAudience() []string { return c.audience }
