// Package storagetest holds the behavioural test suite every storage backend
// must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// Suite exercises a storage.Storage implementation.
// NewStorage must return an empty store for every test.
type Suite struct {
	suite.Suite
	NewStorage func(t *testing.T) storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

var testTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.Store = s.NewStorage(s.T())
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func (s *Suite) createStudent(studentID string) *model.StudentRecord {
	rec := &model.StudentRecord{
		StudentID: studentID,
		FirstName: "Jane",
		LastName:  "Doe",
		Birthday:  model.NewDate(2003, time.May, 14),
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
	s.Require().NoError(s.Store.CreateStudent(s.Ctx, rec))
	s.Require().NotZero(rec.ID)
	return rec
}

func newAccount(handle string) *model.Account {
	return &model.Account{
		DisplayName:      "Jane Doe",
		Email:            handle + "@campus.edu",
		Handle:           handle,
		CredentialSecret: "hash",
		Level:            model.InitialLevel,
		ExperiencePoints: model.InitialExperiencePoints,
		CreatedAt:        testTime,
		UpdatedAt:        testTime,
	}
}

// linkStudent creates a linked student with the given progress
func (s *Suite) linkStudent(studentID string, level, xp int) (*model.StudentRecord, *model.Account) {
	rec := s.createStudent(studentID)
	acct := newAccount("h" + studentID)
	s.Require().NoError(s.Store.CreateLinkedAccount(s.Ctx, rec.ID, acct))
	_, err := s.Store.UpdateAccountProgress(s.Ctx, acct.ID, level, xp)
	s.Require().NoError(err)
	return rec, acct
}

// Student record tests

func (s *Suite) TestCreateAndGetStudent() {
	rec := s.createStudent("2021-0001")

	got, err := s.Store.GetStudent(s.Ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("2021-0001", got.StudentID)
	s.Equal("Jane", got.FirstName)
	s.Equal("Doe", got.LastName)
	s.Equal(model.NewDate(2003, time.May, 14), got.Birthday)
	s.Nil(got.LinkedAccountID)

	byStudentID, err := s.Store.GetStudentByStudentID(s.Ctx, "2021-0001")
	s.Require().NoError(err)
	s.Equal(rec.ID, byStudentID.ID)
}

func (s *Suite) TestStudentIDLookupIsCaseSensitive() {
	s.createStudent("ab-100")
	_, err := s.Store.GetStudentByStudentID(s.Ctx, "AB-100")
	s.ErrorIs(err, model.ErrStudentNotFound)
}

func (s *Suite) TestCreateStudentDuplicateStudentID() {
	s.createStudent("2021-0001")
	err := s.Store.CreateStudent(s.Ctx, &model.StudentRecord{StudentID: "2021-0001", Birthday: model.NewDate(2000, 1, 1)})
	s.ErrorIs(err, model.ErrStudentIDTaken)
	s.ErrorIs(err, model.ErrConflict)
}

func (s *Suite) TestGetStudentNotFound() {
	_, err := s.Store.GetStudent(s.Ctx, 9999)
	s.ErrorIs(err, model.ErrStudentNotFound)

	_, err = s.Store.GetStudentByStudentID(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrStudentNotFound)
}

// Account tests

func (s *Suite) TestCreateAccountStoresLowerCaseHandle() {
	acct := newAccount("JaneD")
	s.Require().NoError(s.Store.CreateAccount(s.Ctx, acct))
	s.NotZero(acct.ID)

	got, err := s.Store.GetAccountByHandle(s.Ctx, "JANED")
	s.Require().NoError(err)
	s.Equal("janed", got.Handle)
	s.Equal(acct.ID, got.ID)

	exists, err := s.Store.HandleExists(s.Ctx, "janed")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestCreateAccountUniqueness() {
	s.Require().NoError(s.Store.CreateAccount(s.Ctx, newAccount("jane")))

	dupEmail := newAccount("other")
	dupEmail.Email = "JANE@campus.edu"
	s.ErrorIs(s.Store.CreateAccount(s.Ctx, dupEmail), model.ErrEmailTaken)

	dupHandle := newAccount("Jane")
	dupHandle.Email = "different@campus.edu"
	s.ErrorIs(s.Store.CreateAccount(s.Ctx, dupHandle), model.ErrHandleTaken)

	exists, err := s.Store.EmailExists(s.Ctx, "Jane@Campus.edu")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestGetAccountNotFound() {
	_, err := s.Store.GetAccount(s.Ctx, 12345)
	s.ErrorIs(err, model.ErrAccountNotFound)
	_, err = s.Store.GetAccountByHandle(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *Suite) TestUpdateAccountProgress() {
	acct := newAccount("jane")
	s.Require().NoError(s.Store.CreateAccount(s.Ctx, acct))

	updated, err := s.Store.UpdateAccountProgress(s.Ctx, acct.ID, 4, 1200)
	s.Require().NoError(err)
	s.Equal(4, updated.Level)
	s.Equal(1200, updated.ExperiencePoints)

	_, err = s.Store.UpdateAccountProgress(s.Ctx, 9999, 1, 0)
	s.ErrorIs(err, model.ErrAccountNotFound)
}

// Linking tests

func (s *Suite) TestCreateLinkedAccount() {
	rec := s.createStudent("2021-0001")
	acct := newAccount("jane")

	s.Require().NoError(s.Store.CreateLinkedAccount(s.Ctx, rec.ID, acct))
	s.NotZero(acct.ID)

	got, err := s.Store.GetStudent(s.Ctx, rec.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LinkedAccountID)
	s.Equal(acct.ID, *got.LinkedAccountID)

	stored, err := s.Store.GetAccount(s.Ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("jane", stored.Handle)
	s.Equal(1, stored.Level)
	s.Equal(0, stored.ExperiencePoints)
	s.False(stored.IsPrivileged)
}

func (s *Suite) TestCreateLinkedAccountAlreadyLinkedPersistsNothing() {
	rec := s.createStudent("2021-0001")
	s.Require().NoError(s.Store.CreateLinkedAccount(s.Ctx, rec.ID, newAccount("first")))

	err := s.Store.CreateLinkedAccount(s.Ctx, rec.ID, newAccount("second"))
	s.ErrorIs(err, model.ErrAlreadyLinked)

	exists, err := s.Store.HandleExists(s.Ctx, "second")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestCreateLinkedAccountConflictLeavesRecordUnclaimed() {
	s.Require().NoError(s.Store.CreateAccount(s.Ctx, newAccount("taken")))
	rec := s.createStudent("2021-0001")

	acct := newAccount("fresh")
	acct.Email = "taken@campus.edu"
	err := s.Store.CreateLinkedAccount(s.Ctx, rec.ID, acct)
	s.ErrorIs(err, model.ErrEmailTaken)

	acct = newAccount("TAKEN")
	acct.Email = "fresh2@campus.edu"
	err = s.Store.CreateLinkedAccount(s.Ctx, rec.ID, acct)
	s.ErrorIs(err, model.ErrHandleTaken)

	got, err := s.Store.GetStudent(s.Ctx, rec.ID)
	s.Require().NoError(err)
	s.Nil(got.LinkedAccountID)

	exists, err := s.Store.HandleExists(s.Ctx, "fresh")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestCreateLinkedAccountUnknownStudent() {
	err := s.Store.CreateLinkedAccount(s.Ctx, 4242, newAccount("jane"))
	s.ErrorIs(err, model.ErrStudentNotFound)
}

func (s *Suite) TestConcurrentLinkExactlyOneWins() {
	rec := s.createStudent("2021-0001")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Store.CreateLinkedAccount(context.Background(), rec.ID, newAccount(fmt.Sprintf("racer%d", i)))
		}(i)
	}
	wg.Wait()

	successes := 0
	winner := -1
	for i, err := range errs {
		if err == nil {
			successes++
			winner = i
			continue
		}
		s.ErrorIs(err, model.ErrAlreadyLinked)
	}
	s.Require().Equal(1, successes)

	for i := range attempts {
		exists, err := s.Store.HandleExists(s.Ctx, fmt.Sprintf("racer%d", i))
		s.Require().NoError(err)
		s.Equal(i == winner, exists, "racer%d", i)
	}

	got, err := s.Store.GetStudent(s.Ctx, rec.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LinkedAccountID)
	winnerAcct, err := s.Store.GetAccountByHandle(s.Ctx, fmt.Sprintf("racer%d", winner))
	s.Require().NoError(err)
	s.Equal(winnerAcct.ID, *got.LinkedAccountID)
}

// Deletion tests

func (s *Suite) TestDeleteLinkedStudentCascades() {
	rec, acct := s.linkStudent("2021-0001", 1, 0)

	deleted, err := s.Store.DeleteStudent(s.Ctx, rec.ID)
	s.Require().NoError(err)
	s.Require().NotNil(deleted)
	s.Equal(acct.ID, *deleted)

	_, err = s.Store.GetStudent(s.Ctx, rec.ID)
	s.ErrorIs(err, model.ErrStudentNotFound)
	_, err = s.Store.GetAccount(s.Ctx, acct.ID)
	s.ErrorIs(err, model.ErrAccountNotFound)

	// identifiers are free again
	exists, err := s.Store.HandleExists(s.Ctx, acct.Handle)
	s.Require().NoError(err)
	s.False(exists)
	s.createStudent("2021-0001")
}

func (s *Suite) TestDeleteUnlinkedStudent() {
	other := newAccount("bystander")
	s.Require().NoError(s.Store.CreateAccount(s.Ctx, other))
	rec := s.createStudent("2021-0001")

	deleted, err := s.Store.DeleteStudent(s.Ctx, rec.ID)
	s.Require().NoError(err)
	s.Nil(deleted)

	_, err = s.Store.GetAccount(s.Ctx, other.ID)
	s.NoError(err)
}

func (s *Suite) TestDeleteStudentNotFound() {
	_, err := s.Store.DeleteStudent(s.Ctx, 777)
	s.ErrorIs(err, model.ErrStudentNotFound)
}

// Leaderboard tests

func (s *Suite) TestLeaderboardOnlyIncludesLinkedAccounts() {
	s.linkStudent("S-001", 2, 300)
	s.createStudent("S-002")
	s.Require().NoError(s.Store.CreateAccount(s.Ctx, newAccount("admin")))

	entries, total, err := s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Sort: model.SortByExperiencePoints, Dir: model.SortDesc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(entries, 1)
	s.Equal("S-001", entries[0].StudentID)
	s.Equal("Jane", entries[0].FirstName)
	s.Equal(2, entries[0].Level)
	s.Equal(300, entries[0].ExperiencePoints)
}

func (s *Suite) TestLeaderboardOrderingAndTieBreaks() {
	_, a := s.linkStudent("S-001", 2, 100)
	_, b := s.linkStudent("S-002", 3, 100)
	_, c := s.linkStudent("S-003", 1, 500)
	_, d := s.linkStudent("S-004", 3, 100)

	entries, total, err := s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Sort: model.SortByExperiencePoints, Dir: model.SortDesc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal(4, total)
	s.Equal([]int64{c.ID, b.ID, d.ID, a.ID}, accountIDs(entries))

	entries, _, err = s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Sort: model.SortByExperiencePoints, Dir: model.SortAsc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal([]int64{a.ID, b.ID, d.ID, c.ID}, accountIDs(entries))

	entries, _, err = s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Sort: model.SortByLevel, Dir: model.SortDesc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal([]int64{b.ID, d.ID, a.ID, c.ID}, accountIDs(entries))

	entries, _, err = s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Sort: model.SortByStudentID, Dir: model.SortDesc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal([]int64{d.ID, c.ID, b.ID, a.ID}, accountIDs(entries))
}

func (s *Suite) TestLeaderboardSearchAndWindow() {
	s.linkStudent("CS-2021-01", 1, 10)
	s.linkStudent("CS-2021-02", 1, 20)
	s.linkStudent("EE-2021-03", 1, 30)
	s.linkStudent("cs-2022-04", 1, 40)

	entries, total, err := s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Search: "cs-", Sort: model.SortByExperiencePoints, Dir: model.SortDesc, Limit: 2, Offset: 1,
	})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(entries, 2)
	s.Equal("CS-2021-02", entries[0].StudentID)
	s.Equal("CS-2021-01", entries[1].StudentID)

	entries, total, err = s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Search: "2021", Sort: model.SortByExperiencePoints, Dir: model.SortDesc, Limit: 10, Offset: 50,
	})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Empty(entries)
}

func (s *Suite) TestLeaderboardSearchFoldsNonASCII() {
	s.linkStudent("ÜB-2021-01", 1, 10)
	s.linkStudent("üb-2021-02", 1, 20)
	s.linkStudent("UB-2021-03", 1, 30)

	entries, total, err := s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Search: "üB", Sort: model.SortByExperiencePoints, Dir: model.SortAsc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(entries, 2)
	s.Equal("ÜB-2021-01", entries[0].StudentID)
	s.Equal("üb-2021-02", entries[1].StudentID)
}

func (s *Suite) TestLeaderboardSearchTreatsWildcardsLiterally() {
	s.linkStudent("A_1", 1, 10)
	s.linkStudent("AB1", 1, 20)
	s.linkStudent("A%2", 1, 30)

	entries, total, err := s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Search: "_", Sort: model.SortByStudentID, Dir: model.SortAsc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(entries, 1)
	s.Equal("A_1", entries[0].StudentID)

	_, total, err = s.Store.ListLeaderboard(s.Ctx, model.LeaderboardFilter{
		Search: "%", Sort: model.SortByStudentID, Dir: model.SortAsc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
}

func (s *Suite) TestPing() {
	s.NoError(s.Store.Ping(s.Ctx))
}

func accountIDs(entries []model.LeaderboardEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.AccountID
	}
	return out
}
