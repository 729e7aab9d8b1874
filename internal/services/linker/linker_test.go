package linker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/mocks"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/memory"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/testutil"
)

type LinkerSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	linker  *Linker
	ctx     context.Context
	jane    *model.StudentRecord
}

func TestLinkerSuite(t *testing.T) {
	suite.Run(t, new(LinkerSuite))
}

func (s *LinkerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.linker = New(s.storage, s.clock, Config{BcryptCost: bcrypt.MinCost}, testutil.NopLogger())
	s.ctx = context.Background()

	s.jane = s.createStudent("2024-0001", " Jane ", "Doe  ")
}

func (s *LinkerSuite) createStudent(studentID, first, last string) *model.StudentRecord {
	rec := &model.StudentRecord{
		StudentID: studentID,
		FirstName: first,
		LastName:  last,
		Birthday:  model.NewDate(2004, time.March, 15),
	}
	s.Require().NoError(s.storage.CreateStudent(s.ctx, rec))
	return rec
}

func request(email, handle string) AccountCreateRequest {
	return AccountCreateRequest{Email: email, Handle: handle, Password: "secret123"}
}

func (s *LinkerSuite) TestLinkCreatesAccountFromRegistryData() {
	acct, err := s.linker.Link(s.ctx, s.jane, request("jane@campus.edu", "JaneD"))
	s.Require().NoError(err)

	s.NotZero(acct.ID)
	s.Equal("Jane Doe", acct.DisplayName)
	s.Equal("janed", acct.Handle)
	s.Equal(model.InitialLevel, acct.Level)
	s.Equal(model.InitialExperiencePoints, acct.ExperiencePoints)
	s.False(acct.IsPrivileged)
	s.Equal(s.clock.Now(), acct.CreatedAt)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(acct.CredentialSecret), []byte("secret123")))
}

func (s *LinkerSuite) TestLinkClaimsRecord() {
	acct, err := s.linker.Link(s.ctx, s.jane, request("jane@campus.edu", "janed"))
	s.Require().NoError(err)

	rec, err := s.storage.GetStudent(s.ctx, s.jane.ID)
	s.Require().NoError(err)
	s.Require().NotNil(rec.LinkedAccountID)
	s.Equal(acct.ID, *rec.LinkedAccountID)
}

func (s *LinkerSuite) TestLinkRejectsTakenEmail() {
	_, err := s.linker.Link(s.ctx, s.jane, request("jane@campus.edu", "janed"))
	s.Require().NoError(err)

	other := s.createStudent("2024-0002", "John", "Roe")
	_, err = s.linker.Link(s.ctx, other, request("JANE@campus.edu", "johnr"))
	s.ErrorIs(err, model.ErrConflict)
	s.Equal(model.ErrEmailTaken, err)

	rec, _ := s.storage.GetStudent(s.ctx, other.ID)
	s.False(rec.IsLinked())
}

func (s *LinkerSuite) TestLinkRejectsTakenHandleCaseInsensitively() {
	_, err := s.linker.Link(s.ctx, s.jane, request("jane@campus.edu", "janed"))
	s.Require().NoError(err)

	other := s.createStudent("2024-0002", "John", "Roe")
	_, err = s.linker.Link(s.ctx, other, request("john@campus.edu", "JANED"))
	s.Equal(model.ErrHandleTaken, err)
}

func (s *LinkerSuite) TestLinkAlreadyClaimedRecord() {
	_, err := s.linker.Link(s.ctx, s.jane, request("jane@campus.edu", "janed"))
	s.Require().NoError(err)

	_, err = s.linker.Link(s.ctx, s.jane, request("jane2@campus.edu", "jane2"))
	s.ErrorIs(err, model.ErrAlreadyLinked)

	exists, err := s.storage.HandleExists(s.ctx, "jane2")
	s.Require().NoError(err)
	s.False(exists, "losing attempt must not persist an account")
}

func (s *LinkerSuite) TestConcurrentLinksExactlyOneSucceeds() {
	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		errs      []error
	)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handle := "jane" + string(rune('a'+i))
			_, err := s.linker.Link(s.ctx, s.jane, request(handle+"@campus.edu", handle))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			errs = append(errs, err)
		}(i)
	}
	wg.Wait()

	s.Equal(1, successes)
	for _, err := range errs {
		s.ErrorIs(err, model.ErrAlreadyLinked)
	}
}
