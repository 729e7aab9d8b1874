// Package leaderboard ranks linked accounts into stable, paginated pages.
package leaderboard

import (
	"context"
	"math"
	"strings"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// Query selects one page of the leaderboard
type Query struct {
	Page     int
	PageSize int
	Search   string
	Sort     model.SortKey
	Dir      model.SortDirection
}

// RankedPage is one page of ranked rows plus pagination metadata.
// From and To are nil when Rows is empty.
type RankedPage struct {
	Rows        []model.LeaderboardEntry
	Total       int
	CurrentPage int
	LastPage    int
	PerPage     int
	From        *int
	To          *int
	Search      string
	Sort        model.SortKey
	Dir         model.SortDirection
}

// Service computes leaderboard pages
type Service struct {
	storage storage.Storage
}

// New creates a leaderboard Service
func New(storage storage.Storage) *Service {
	return &Service{storage: storage}
}

// Rank returns the requested page. Rows carry rank (page-1)*size + position.
// A page past the end yields empty rows, not an error.
func (s *Service) Rank(ctx context.Context, q Query) (*RankedPage, error) {
	if q.Page < 1 {
		return nil, model.NewValidationError("page", "The page must be at least 1.")
	}
	if q.PageSize < 1 {
		return nil, model.NewValidationError("per_page", "The per page must be at least 1.")
	}
	if q.Sort == "" {
		q.Sort = model.SortByExperiencePoints
	}
	if q.Dir == "" {
		q.Dir = model.SortDesc
	}
	q.Search = strings.TrimSpace(q.Search)

	// Pages whose offset would overflow are necessarily past the end.
	if q.Page-1 > (math.MaxInt-q.PageSize)/q.PageSize {
		total, err := s.count(ctx, q)
		if err != nil {
			return nil, err
		}
		return &RankedPage{
			Rows:        []model.LeaderboardEntry{},
			Total:       total,
			CurrentPage: q.Page,
			LastPage:    lastPage(total, q.PageSize),
			PerPage:     q.PageSize,
			Search:      q.Search,
			Sort:        q.Sort,
			Dir:         q.Dir,
		}, nil
	}

	offset := (q.Page - 1) * q.PageSize
	rows, total, err := s.storage.ListLeaderboard(ctx, model.LeaderboardFilter{
		Search: q.Search,
		Sort:   q.Sort,
		Dir:    q.Dir,
		Limit:  q.PageSize,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].Rank = offset + i + 1
	}

	page := &RankedPage{
		Rows:        rows,
		Total:       total,
		CurrentPage: q.Page,
		LastPage:    lastPage(total, q.PageSize),
		PerPage:     q.PageSize,
		Search:      q.Search,
		Sort:        q.Sort,
		Dir:         q.Dir,
	}
	if len(rows) > 0 {
		from, to := offset+1, offset+len(rows)
		page.From, page.To = &from, &to
	}
	return page, nil
}

// count returns the number of rows matching q without fetching a page
func (s *Service) count(ctx context.Context, q Query) (int, error) {
	_, total, err := s.storage.ListLeaderboard(ctx, model.LeaderboardFilter{
		Search: q.Search,
		Sort:   q.Sort,
		Dir:    q.Dir,
		Limit:  1,
	})
	return total, err
}

func lastPage(total, size int) int {
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}
