package auth_test

import (
	"context"

	"github.com/goliatone/go-todos/auth"
	"github.com/stretchr/testify/mock"
)

// MockUserFinder implements auth.UserFinder
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserFinder) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type testConfig struct {
	key     string
	alg     string
	minutes int
	cost    int
}

func (c testConfig) GetSigningKey() string    { return c.key }
func (c testConfig) GetSigningMethod() string { return c.alg }
func (c testConfig) GetTokenExpiration() int  { return c.minutes }
func (c testConfig) GetPasswordHashCost() int { return c.cost }

func defaultTestConfig() testConfig {
	return testConfig{key: "test-signing-key", alg: "HS256", minutes: 30, cost: 4}
}

type recordingSink struct {
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []auth.ActivityEventType {
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
