package model

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey selects the primary ordering of the leaderboard
type SortKey string

const (
	SortByStudentID        SortKey = "student_id"
	SortByLevel            SortKey = "level"
	SortByExperiencePoints SortKey = "xp"
)

// ParseSortKey maps a query value to a SortKey. "rank" is an alias for
// experience points since rank is derived from that ordering.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xp", "rank", "experience_points":
		return SortByExperiencePoints, true
	case "level":
		return SortByLevel, true
	case "student_id":
		return SortByStudentID, true
	default:
		return "", false
	}
}

// SortDirection is ascending or descending
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection maps a query value to a SortDirection
func ParseSortDirection(s string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return SortAsc, true
	case "desc":
		return SortDesc, true
	default:
		return "", false
	}
}

// LeaderboardFilter is the storage-level leaderboard query.
// Limit and Offset select a window of the fully ordered result.
type LeaderboardFilter struct {
	Search string
	Sort   SortKey
	Dir    SortDirection
	Limit  int
	Offset int
}

// LeaderboardEntry is one linked account joined with its student record.
// Rank is zero until assigned by the ranker.
type LeaderboardEntry struct {
	StudentRecordID  int64
	AccountID        int64
	StudentID        string
	FirstName        string
	LastName         string
	Level            int
	ExperiencePoints int
	Rank             int
}

// MatchesSearch reports whether studentID contains search, ignoring case.
// An empty search matches everything.
func MatchesSearch(studentID, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(studentID), strings.ToLower(search))
}

// CompareEntries orders two entries under key and dir.
// Experience ties fall back to level in the same direction; any remaining
// tie is broken by account id ascending so the order is total.
func CompareEntries(a, b LeaderboardEntry, key SortKey, dir SortDirection) int {
	var c int
	switch key {
	case SortByStudentID:
		c = cmp.Compare(a.StudentID, b.StudentID)
	case SortByLevel:
		c = cmp.Compare(a.Level, b.Level)
	default:
		c = cmp.Compare(a.ExperiencePoints, b.ExperiencePoints)
		if c == 0 {
			c = cmp.Compare(a.Level, b.Level)
		}
	}
	if dir == SortDesc {
		c = -c
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(a.AccountID, b.AccountID)
}

// ApplyLeaderboardFilter filters, orders and windows entries in memory.
// It returns the window and the number of entries matching the search.
func ApplyLeaderboardFilter(entries []LeaderboardEntry, f LeaderboardFilter) ([]LeaderboardEntry, int) {
	matched := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if MatchesSearch(e.StudentID, f.Search) {
			matched = append(matched, e)
		}
	}
	slices.SortFunc(matched, func(a, b LeaderboardEntry) int {
		return CompareEntries(a, b, f.Sort, f.Dir)
	})

	total := len(matched)
	if f.Offset < 0 || f.Offset >= total {
		return []LeaderboardEntry{}, total
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total
}
