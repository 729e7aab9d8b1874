package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/mocks"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/memory"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/testutil"
)

// TestSecret signs tokens issued by a TestApp
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App on in-memory storage with a mocked clock and
// the cheapest bcrypt cost
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app, err := newWithDependencies(store, mockClock, auth.Config{
		Secret:     TestSecret,
		TokenTTL:   24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
