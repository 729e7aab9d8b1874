package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/leaderboard"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/registration"
	redisstorage "github.com/John-Michael-Goco/CampusGoWeb/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) importStudents(records ...model.NewStudentRecord) []*model.StudentRecord {
	created, err := s.app.Registry.Import(s.ctx, records)
	s.Require().NoError(err)
	return created
}

func (s *IntegrationSuite) register(studentID, first, last, birthday, handle string) *registration.Result {
	res, err := s.app.Registration.Register(s.ctx, registration.Request{
		Email:                handle + "@campus.edu",
		Handle:               handle,
		Password:             "password123",
		PasswordConfirmation: "password123",
		StudentID:            studentID,
		FirstName:            first,
		LastName:             last,
		Birthday:             birthday,
	})
	s.Require().NoError(err)
	return res
}

// Test: import, register, earn progress, rank, delete
func (s *IntegrationSuite) TestCompleteLifecycle() {
	// Step 1: Administration imports the roster
	recs := s.importStudents(
		model.NewStudentRecord{StudentID: "2024-0001", FirstName: "Jane", LastName: "Doe", Birthday: model.NewDate(2004, time.March, 15)},
		model.NewStudentRecord{StudentID: "2024-0002", FirstName: "John", LastName: "Roe", Birthday: model.NewDate(2003, time.July, 4)},
		model.NewStudentRecord{StudentID: "2024-0003", FirstName: "Ann", LastName: "Lee", Birthday: model.NewDate(2005, time.January, 9)},
	)

	// Step 2: Two students register; the third never does
	jane := s.register("2024-0001", "jane", "DOE", "2004-03-15", "JaneD")
	john := s.register("2024-0002", "John", "Roe", "2003-07-04", "johnr")
	s.Equal("Jane Doe", jane.Account.DisplayName)
	s.Equal("janed", jane.Account.Handle)

	// Step 3: Gameplay awards progress
	_, err := s.app.Accounts.SetProgress(s.ctx, jane.Account.ID, 2, 100)
	s.Require().NoError(err)
	_, err = s.app.Accounts.SetProgress(s.ctx, john.Account.ID, 3, 100)
	s.Require().NoError(err)

	// Step 4: Leaderboard ties on xp break by level
	page, err := s.app.Leaderboard.Rank(s.ctx, leaderboard.Query{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Require().Len(page.Rows, 2)
	s.Equal("2024-0002", page.Rows[0].StudentID)
	s.Equal(1, page.Rows[0].Rank)
	s.Equal("2024-0001", page.Rows[1].StudentID)
	s.Equal(2, page.Rows[1].Rank)

	// Step 5: Deleting Jane's record removes her account and invalidates her token
	accountDeleted, err := s.app.Registry.Delete(s.ctx, recs[0].ID)
	s.Require().NoError(err)
	s.True(accountDeleted)

	_, err = s.app.AuthService.Authenticate(s.ctx, jane.Token.Value)
	s.ErrorIs(err, model.ErrInvalidToken)

	page, err = s.app.Leaderboard.Rank(s.ctx, leaderboard.Query{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Equal(1, page.Total)

	// Step 6: The unregistered record deletes without touching accounts
	accountDeleted, err = s.app.Registry.Delete(s.ctx, recs[2].ID)
	s.Require().NoError(err)
	s.False(accountDeleted)

	_, err = s.app.AuthService.Authenticate(s.ctx, john.Token.Value)
	s.NoError(err)
}

// Test: tokens expire on the mocked clock
func (s *IntegrationSuite) TestTokenExpiresWithClock() {
	s.importStudents(model.NewStudentRecord{StudentID: "S1", FirstName: "Jane", LastName: "Doe", Birthday: model.NewDate(2004, time.March, 15)})
	res := s.register("S1", "Jane", "Doe", "2004-03-15", "jane")

	s.app.MockClock.Advance(23 * time.Hour)
	_, err := s.app.AuthService.Authenticate(s.ctx, res.Token.Value)
	s.Require().NoError(err)

	s.app.MockClock.Advance(2 * time.Hour)
	_, err = s.app.AuthService.Authenticate(s.ctx, res.Token.Value)
	s.ErrorIs(err, model.ErrInvalidToken)
}

// Test: a deleted record can be re-imported and claimed again
func (s *IntegrationSuite) TestReimportAfterDelete() {
	rec := model.NewStudentRecord{StudentID: "S1", FirstName: "Jane", LastName: "Doe", Birthday: model.NewDate(2004, time.March, 15)}
	created := s.importStudents(rec)
	s.register("S1", "Jane", "Doe", "2004-03-15", "jane")

	_, err := s.app.Registry.Delete(s.ctx, created[0].ID)
	s.Require().NoError(err)

	s.importStudents(rec)
	res := s.register("S1", "Jane", "Doe", "2004-03-15", "jane")
	s.Equal("jane", res.Account.Handle)
}

func testAuthConfig() auth.Config {
	return auth.Config{Secret: TestSecret, BcryptCost: bcrypt.MinCost}
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(context.Background(), Config{StorageType: "mongo", AuthConfig: testAuthConfig()})
	require.Error(t, err)
}

func TestNewRequiresTokenSecret(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestNewWiresEachBackend(t *testing.T) {
	mini := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()

	configs := map[string]Config{
		"memory": {StorageType: StorageTypeMemory},
		"sqlite": {StorageType: StorageTypeSQLite, SQLitePath: filepath.Join(t.TempDir(), "campus.db")},
		"redis":  {StorageType: StorageTypeRedis, RedisConfig: &redisCfg},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			cfg.AuthConfig = testAuthConfig()
			app, err := New(context.Background(), cfg)
			require.NoError(t, err)
			defer func() { _ = app.Storage.Close() }()

			require.NoError(t, app.Storage.Ping(context.Background()))
			_, err = app.Registry.Import(context.Background(), []model.NewStudentRecord{
				{StudentID: "S1", FirstName: "Jane", LastName: "Doe", Birthday: model.NewDate(2004, time.March, 15)},
			})
			require.NoError(t, err)
		})
	}
}

func TestNewRequiresBackendSettings(t *testing.T) {
	for _, storageType := range []string{StorageTypeSQLite, StorageTypePostgres, StorageTypeRedis} {
		_, err := New(context.Background(), Config{StorageType: storageType, AuthConfig: testAuthConfig()})
		require.Error(t, err, storageType)
	}
}
