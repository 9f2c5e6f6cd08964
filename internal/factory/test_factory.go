package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/seabattle/internal/dependencies/mocks"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/storage/memory"
	"github.com/mcoot/seabattle/internal/testutil"
	"github.com/mcoot/seabattle/internal/ws"
)

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
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom,
		auth.Config{BcryptCost: bcrypt.MinCost}, ws.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
