package leaderboard

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage)
	s.ctx = context.Background()
}

// link creates a linked account with the given progress and returns its id
func (s *ServiceSuite) link(studentID string, level, xp int) int64 {
	rec := &model.StudentRecord{
		StudentID: studentID,
		FirstName: "First " + studentID,
		LastName:  "Last",
		Birthday:  model.NewDate(2004, time.January, 1),
	}
	s.Require().NoError(s.storage.CreateStudent(s.ctx, rec))

	acct := &model.Account{
		DisplayName: rec.FirstName + " Last",
		Email:       studentID + "@campus.edu",
		Handle:      "h" + studentID,
		Level:       model.InitialLevel,
	}
	s.Require().NoError(s.storage.CreateLinkedAccount(s.ctx, rec.ID, acct))
	_, err := s.storage.UpdateAccountProgress(s.ctx, acct.ID, level, xp)
	s.Require().NoError(err)
	return acct.ID
}

func studentIDs(rows []model.LeaderboardEntry) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.StudentID
	}
	return ids
}

func (s *ServiceSuite) TestExperienceTiesBreakByLevelInSameDirection() {
	s.link("A", 2, 100)
	s.link("B", 3, 100)
	s.link("C", 1, 50)

	page, err := s.service.Rank(s.ctx, Query{Page: 1, PageSize: 10, Sort: model.SortByExperiencePoints, Dir: model.SortDesc})
	s.Require().NoError(err)
	s.Equal([]string{"B", "A", "C"}, studentIDs(page.Rows))
	s.Equal([]int{1, 2, 3}, []int{page.Rows[0].Rank, page.Rows[1].Rank, page.Rows[2].Rank})

	page, err = s.service.Rank(s.ctx, Query{Page: 1, PageSize: 10, Sort: model.SortByExperiencePoints, Dir: model.SortAsc})
	s.Require().NoError(err)
	s.Equal([]string{"C", "A", "B"}, studentIDs(page.Rows))
}

func (s *ServiceSuite) TestFullTiesBreakByAccountID() {
	first := s.link("X", 1, 10)
	second := s.link("Y", 1, 10)

	page, err := s.service.Rank(s.ctx, Query{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Require().Len(page.Rows, 2)
	s.Equal(first, page.Rows[0].AccountID)
	s.Equal(second, page.Rows[1].AccountID)
}

func (s *ServiceSuite) TestRanksContinueAcrossPages() {
	for i := range 12 {
		s.link(fmt.Sprintf("S%02d", i), 1, i*10)
	}

	page, err := s.service.Rank(s.ctx, Query{Page: 2, PageSize: 5})
	s.Require().NoError(err)
	s.Require().Len(page.Rows, 5)
	for i, row := range page.Rows {
		s.Equal(6+i, row.Rank)
	}
	s.Equal(12, page.Total)
	s.Equal(3, page.LastPage)
	s.Equal(6, *page.From)
	s.Equal(10, *page.To)
	s.Equal("S06", page.Rows[0].StudentID)
}

func (s *ServiceSuite) TestOutOfRangePageIsEmpty() {
	s.link("A", 1, 10)

	page, err := s.service.Rank(s.ctx, Query{Page: 5, PageSize: 10})
	s.Require().NoError(err)
	s.Empty(page.Rows)
	s.Nil(page.From)
	s.Nil(page.To)
	s.Equal(1, page.Total)
	s.Equal(1, page.LastPage)
}

func (s *ServiceSuite) TestHugePageDoesNotOverflow() {
	s.link("A", 1, 10)

	for _, size := range []int{10, 100} {
		page, err := s.service.Rank(s.ctx, Query{Page: math.MaxInt, PageSize: size})
		s.Require().NoError(err)
		s.Empty(page.Rows)
		s.NotNil(page.Rows)
		s.Nil(page.From)
		s.Equal(1, page.Total)
		s.Equal(1, page.LastPage)
		s.Equal(math.MaxInt, page.CurrentPage)
	}
}

func (s *ServiceSuite) TestInvalidPagination() {
	_, err := s.service.Rank(s.ctx, Query{Page: 0, PageSize: 10})
	s.ErrorIs(err, model.ErrInvalidInput)

	_, err = s.service.Rank(s.ctx, Query{Page: 1, PageSize: 0})
	s.ErrorIs(err, model.ErrInvalidInput)
}

func (s *ServiceSuite) TestSearchFiltersAndRanksWithinResult() {
	s.link("2024-0001", 1, 500)
	s.link("2023-0002", 1, 300)
	s.link("2024-0003", 1, 100)

	page, err := s.service.Rank(s.ctx, Query{Page: 1, PageSize: 10, Search: " 2024 "})
	s.Require().NoError(err)
	s.Equal([]string{"2024-0001", "2024-0003"}, studentIDs(page.Rows))
	s.Equal(2, page.Rows[1].Rank)
	s.Equal("2024", page.Search)
}

func (s *ServiceSuite) TestDefaultsSortAndDirection() {
	page, err := s.service.Rank(s.ctx, Query{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Equal(model.SortByExperiencePoints, page.Sort)
	s.Equal(model.SortDesc, page.Dir)
	s.Empty(page.Rows)
	s.Equal(1, page.LastPage)
}

func (s *ServiceSuite) TestSortByStudentID() {
	s.link("B", 1, 0)
	s.link("A", 1, 0)
	s.link("C", 1, 0)

	page, err := s.service.Rank(s.ctx, Query{Page: 1, PageSize: 10, Sort: model.SortByStudentID, Dir: model.SortAsc})
	s.Require().NoError(err)
	s.Equal([]string{"A", "B", "C"}, studentIDs(page.Rows))
}

func (s *ServiceSuite) TestUnlinkedRecordsDoNotAppear() {
	s.link("A", 1, 10)
	s.Require().NoError(s.storage.CreateStudent(s.ctx, &model.StudentRecord{
		StudentID: "lonely",
		FirstName: "No",
		LastName:  "Account",
		Birthday:  model.NewDate(2004, time.January, 1),
	}))

	page, err := s.service.Rank(s.ctx, Query{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Equal([]string{"A"}, studentIDs(page.Rows))
}
