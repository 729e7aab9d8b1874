package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Account:
		o.printAccount(v)
	case StudentRecord:
		o.printStudentRecord(v)
	case ImportResult:
		o.printImportResult(v)
	case DeleteResult:
		o.printDeleteResult(v)
	case LeaderboardResult:
		o.printLeaderboard(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	Email       string `json:"email"`
}

// AuthResult combines user and token
type AuthResult struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	User      User   `json:"user"`
}

// Account response type
type Account struct {
	User
	Level            int  `json:"level"`
	ExperiencePoints int  `json:"experience_points"`
	IsPrivileged     bool `json:"is_privileged"`
}

// StudentRecord response type
type StudentRecord struct {
	ID              int64  `json:"id"`
	StudentID       string `json:"student_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Birthday        string `json:"birthday"`
	LinkedAccountID *int64 `json:"linked_account_id"`
}

// ImportResult response type
type ImportResult struct {
	Students []StudentRecord `json:"students"`
}

// DeleteResult response type
type DeleteResult struct {
	Deleted        bool `json:"deleted"`
	AccountDeleted bool `json:"account_deleted"`
}

// LeaderboardEntry response type
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

// Pagination response type
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	From        *int `json:"from"`
	To          *int `json:"to"`
}

// LeaderboardResult response type
type LeaderboardResult struct {
	Entries    []LeaderboardEntry `json:"entries"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
	Dir        string             `json:"dir"`
	Search     string             `json:"search"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func (o *Output) printUser(u User) {
	fmt.Fprintf(o.w, "User: %s (@%s, id %d)\n", u.DisplayName, u.Handle, u.ID)
	fmt.Fprintf(o.w, "Email: %s\n", u.Email)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Fprintf(o.w, "Token: %s\n", a.Token)
}

func (o *Output) printAccount(a Account) {
	o.printUser(a.User)
	fmt.Fprintf(o.w, "Level: %d\n", a.Level)
	fmt.Fprintf(o.w, "Experience: %d\n", a.ExperiencePoints)
	if a.IsPrivileged {
		fmt.Fprintln(o.w, "Privileged: yes")
	}
}

func (o *Output) printStudentRecord(r StudentRecord) {
	fmt.Fprintf(o.w, "Student: %s %s (%s)\n", r.FirstName, r.LastName, r.StudentID)
	fmt.Fprintf(o.w, "Record ID: %d\n", r.ID)
	fmt.Fprintf(o.w, "Birthday: %s\n", r.Birthday)
	if r.LinkedAccountID != nil {
		fmt.Fprintf(o.w, "Linked Account: %d\n", *r.LinkedAccountID)
	} else {
		fmt.Fprintln(o.w, "Linked Account: none")
	}
}

func (o *Output) printImportResult(r ImportResult) {
	fmt.Fprintf(o.w, "Imported %d student record(s)\n", len(r.Students))
	for _, s := range r.Students {
		fmt.Fprintf(o.w, "  - %d: %s %s (%s)\n", s.ID, s.FirstName, s.LastName, s.StudentID)
	}
}

func (o *Output) printDeleteResult(r DeleteResult) {
	if !r.Deleted {
		fmt.Fprintln(o.w, "Nothing deleted")
		return
	}
	fmt.Fprintln(o.w, "Student record deleted")
	if r.AccountDeleted {
		fmt.Fprintln(o.w, "Linked account deleted")
	}
}

func (o *Output) printLeaderboard(l LeaderboardResult) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "No entries")
	} else {
		tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tSTUDENT ID\tNAME\tLEVEL\tXP")
		for _, e := range l.Entries {
			fmt.Fprintf(tw, "%d\t%s\t%s %s\t%d\t%d\n",
				e.Rank, e.StudentID, e.FirstName, e.LastName, e.Level, e.ExperiencePoints)
		}
		_ = tw.Flush()
	}

	p := l.Pagination
	fmt.Fprintf(o.w, "Page %d of %d (%d total, sorted by %s %s)\n",
		p.CurrentPage, p.LastPage, p.Total, l.Sort, l.Dir)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
}
