package factory

import (
	"time"

	"github.com/mcoot/diceduel/internal/dependencies/mocks"
	"github.com/mcoot/diceduel/internal/notify"
	"github.com/mcoot/diceduel/internal/services/auth"
	"github.com/mcoot/diceduel/internal/storage/memory"
	"github.com/mcoot/diceduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockIDs    *mocks.MockIDs
	MockRoller *mocks.MockRoller
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Auth runs open unless an auth config with key hashes is given.
func NewTestApp(authConfig ...auth.Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()
	mockRoller := mocks.NewMockRoller()

	cfg := auth.DefaultConfig()
	if len(authConfig) > 0 {
		cfg = authConfig[0]
	}

	logger := testutil.NopLogger()
	app, err := newWithDependencies(dependencies{
		store:      store,
		clock:      mockClock,
		ids:        mockIDs,
		roller:     mockRoller,
		authConfig: cfg,
		notifiers:  []notify.Notifier{notify.NewLogNotifier(logger)},
		logger:     logger,
	})
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockIDs:    mockIDs,
		MockRoller: mockRoller,
		Memory:     store,
	}
}
