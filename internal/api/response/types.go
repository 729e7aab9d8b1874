package response

import (
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/leaderboard"
)

// User represents an account in API responses
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	Email       string `json:"email"`
}

// UserFromModel converts a model.Account to a response User
func UserFromModel(a *model.Account) User {
	return User{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Handle:      a.Handle,
		Email:       a.Email,
	}
}

// AuthResponse is the response for register and login
type AuthResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	User      User   `json:"user"`
}

// AuthResponseFromToken creates an AuthResponse for acct
func AuthResponseFromToken(tok *auth.Token, acct *model.Account) AuthResponse {
	return AuthResponse{
		Token:     tok.Value,
		TokenType: "Bearer",
		User:      UserFromModel(acct),
	}
}

// Account is the administrative view of an account, including progress
type Account struct {
	User
	Level            int  `json:"level"`
	ExperiencePoints int  `json:"experience_points"`
	IsPrivileged     bool `json:"is_privileged"`
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	return Account{
		User:             UserFromModel(a),
		Level:            a.Level,
		ExperiencePoints: a.ExperiencePoints,
		IsPrivileged:     a.IsPrivileged,
	}
}

// StudentRecord represents a student record in API responses
type StudentRecord struct {
	ID              int64      `json:"id"`
	StudentID       string     `json:"student_id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Birthday        model.Date `json:"birthday"`
	LinkedAccountID *int64     `json:"linked_account_id"`
}

// StudentRecordFromModel converts a model.StudentRecord to a response StudentRecord
func StudentRecordFromModel(r *model.StudentRecord) StudentRecord {
	return StudentRecord{
		ID:              r.ID,
		StudentID:       r.StudentID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Birthday:        r.Birthday,
		LinkedAccountID: r.LinkedAccountID,
	}
}

// ImportResponse lists the imported records
type ImportResponse struct {
	Students []StudentRecord `json:"students"`
}

// DeleteStudentResponse reports the outcome of a cascade delete
type DeleteStudentResponse struct {
	Deleted        bool `json:"deleted"`
	AccountDeleted bool `json:"account_deleted"`
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	StudentRecordID  int64  `json:"student_record_id"`
	AccountID        int64  `json:"account_id"`
	StudentID        string `json:"student_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Level            int    `json:"level"`
	ExperiencePoints int    `json:"experience_points"`
}

// Pagination describes the page returned
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	From        *int `json:"from"`
	To          *int `json:"to"`
}

// LeaderboardResponse is the response for the leaderboard endpoint
type LeaderboardResponse struct {
	Entries    []LeaderboardEntry `json:"entries"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
	Dir        string             `json:"dir"`
	Search     string             `json:"search"`
}

// LeaderboardFromPage converts a ranked page to a response
func LeaderboardFromPage(p *leaderboard.RankedPage) LeaderboardResponse {
	entries := make([]LeaderboardEntry, len(p.Rows))
	for i, row := range p.Rows {
		entries[i] = LeaderboardEntry{
			Rank:             row.Rank,
			StudentRecordID:  row.StudentRecordID,
			AccountID:        row.AccountID,
			StudentID:        row.StudentID,
			FirstName:        row.FirstName,
			LastName:         row.LastName,
			Level:            row.Level,
			ExperiencePoints: row.ExperiencePoints,
		}
	}
	return LeaderboardResponse{
		Entries: entries,
		Pagination: Pagination{
			CurrentPage: p.CurrentPage,
			LastPage:    p.LastPage,
			PerPage:     p.PerPage,
			Total:       p.Total,
			From:        p.From,
			To:          p.To,
		},
		Sort:   string(p.Sort),
		Dir:    string(p.Dir),
		Search: p.Search,
	}
}

// Health is the response for the health endpoint
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
