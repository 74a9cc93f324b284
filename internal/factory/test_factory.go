package factory

import (
	"time"

	"github.com/mcoot/pongserver/internal/config"
	"github.com/mcoot/pongserver/internal/dependencies/mocks"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/storage/memory"
	"github.com/mcoot/pongserver/internal/testutil"
)

// TestSecret signs tokens in test apps
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(TestConfig())
}

// TestConfig returns the default configuration with a test signing secret
func TestConfig() config.Config {
	cfg := config.Default()
	cfg.Auth.Secret = TestSecret
	return cfg
}

// NewTestAppWithConfig is NewTestApp with a custom configuration
func NewTestAppWithConfig(cfg config.Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app, err := newWithDependencies(cfg, store, mockClock, mockRandom, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}

// MustToken issues a token for player or panics
func (t *TestApp) MustToken(player string) string {
	token, err := t.Tokens.Issue(model.PlayerID(player))
	if err != nil {
		panic(err)
	}
	return token
}
