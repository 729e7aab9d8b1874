package model

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type LeaderboardSuite struct {
	suite.Suite
	entries []LeaderboardEntry
}

func TestLeaderboardSuite(t *testing.T) {
	suite.Run(t, new(LeaderboardSuite))
}

func (s *LeaderboardSuite) SetupTest() {
	s.entries = []LeaderboardEntry{
		{AccountID: 1, StudentID: "S-003", Level: 2, ExperiencePoints: 100},
		{AccountID: 2, StudentID: "S-001", Level: 3, ExperiencePoints: 100},
		{AccountID: 3, StudentID: "X-002", Level: 1, ExperiencePoints: 250},
		{AccountID: 4, StudentID: "S-004", Level: 3, ExperiencePoints: 100},
	}
}

func ids(entries []LeaderboardEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.AccountID
	}
	return out
}

func (s *LeaderboardSuite) TestParseSortKey() {
	for in, want := range map[string]SortKey{
		"xp":         SortByExperiencePoints,
		"rank":       SortByExperiencePoints,
		"RANK":       SortByExperiencePoints,
		"level":      SortByLevel,
		"student_id": SortByStudentID,
	} {
		got, ok := ParseSortKey(in)
		s.True(ok, in)
		s.Equal(want, got, in)
	}
	_, ok := ParseSortKey("first_name")
	s.False(ok)
}

func (s *LeaderboardSuite) TestParseSortDirection() {
	d, ok := ParseSortDirection("ASC")
	s.True(ok)
	s.Equal(SortAsc, d)
	_, ok = ParseSortDirection("sideways")
	s.False(ok)
}

func (s *LeaderboardSuite) TestExperienceTiesBreakByLevelInDirection() {
	page, total := ApplyLeaderboardFilter(s.entries, LeaderboardFilter{Sort: SortByExperiencePoints, Dir: SortDesc})
	s.Equal(4, total)
	// 250 first, then the 100s by level desc, equal level by account id
	s.Equal([]int64{3, 2, 4, 1}, ids(page))

	page, _ = ApplyLeaderboardFilter(s.entries, LeaderboardFilter{Sort: SortByExperiencePoints, Dir: SortAsc})
	s.Equal([]int64{1, 2, 4, 3}, ids(page))
}

func (s *LeaderboardSuite) TestSortByStudentID() {
	page, _ := ApplyLeaderboardFilter(s.entries, LeaderboardFilter{Sort: SortByStudentID, Dir: SortAsc})
	s.Equal([]int64{2, 1, 4, 3}, ids(page))
}

func (s *LeaderboardSuite) TestSortByLevelFinalTieBreakIsAccountID() {
	page, _ := ApplyLeaderboardFilter(s.entries, LeaderboardFilter{Sort: SortByLevel, Dir: SortDesc})
	s.Equal([]int64{2, 4, 1, 3}, ids(page))
}

func (s *LeaderboardSuite) TestSearchIsCaseInsensitiveSubstring() {
	page, total := ApplyLeaderboardFilter(s.entries, LeaderboardFilter{Search: "s-00", Sort: SortByStudentID, Dir: SortAsc})
	s.Equal(3, total)
	s.Equal([]int64{2, 1, 4}, ids(page))
}

func (s *LeaderboardSuite) TestWindow() {
	page, total := ApplyLeaderboardFilter(s.entries, LeaderboardFilter{Sort: SortByStudentID, Dir: SortAsc, Limit: 2, Offset: 2})
	s.Equal(4, total)
	s.Equal([]int64{4, 3}, ids(page))

	page, total = ApplyLeaderboardFilter(s.entries, LeaderboardFilter{Sort: SortByStudentID, Dir: SortAsc, Limit: 2, Offset: 10})
	s.Equal(4, total)
	s.Empty(page)

	page, total = ApplyLeaderboardFilter(s.entries, LeaderboardFilter{Sort: SortByStudentID, Dir: SortAsc, Limit: 10, Offset: -20})
	s.Equal(4, total)
	s.Empty(page)
}
