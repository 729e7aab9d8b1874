package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/storagetest"
)

const testURLEnv = "CAMPUS_TEST_POSTGRES_URL"

// openTestStore connects to the database named by CAMPUS_TEST_POSTGRES_URL
// and empties it. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv(testURLEnv)
	if url == "" {
		t.Skipf("%s not set", testURLEnv)
	}

	ctx := context.Background()
	store, err := Open(ctx, url)
	require.NoError(t, err)
	_, err = store.pool.Exec(ctx, `TRUNCATE students, accounts RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return store
}

func TestStoreSuite(t *testing.T) {
	if os.Getenv(testURLEnv) == "" {
		t.Skipf("%s not set", testURLEnv)
	}
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage { return openTestStore(t) },
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.migrate(context.Background()))

	var applied int
	require.NoError(t, store.pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	require.Equal(t, len(migrations), applied)
}

func TestOrderByUsesBytewiseStudentIDCollation(t *testing.T) {
	require.Equal(t, `s.student_id COLLATE "C" DESC, a.id ASC`, orderBy(model.SortByStudentID, model.SortDesc))
	require.Equal(t, "a.experience_points ASC, a.level ASC, a.id ASC", orderBy(model.SortByExperiencePoints, model.SortAsc))
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `50\%\_off`, escapeLike(`50%_off`))
}
