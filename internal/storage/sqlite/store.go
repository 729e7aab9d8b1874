// Package sqlite provides a SQLite-backed campus storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/sqlite/migrations"
)

// foldFunc lowercases with Go's Unicode tables. SQLite's own LIKE and
// lower() only fold ASCII.
const foldFunc = "campus_fold"

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, func(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

// Store persists students and accounts in SQLite.
// It holds a single connection, so transactions never contend for the
// write lock and the conditional claim update decides every link race.
type Store struct {
	sqlDB *sql.DB
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing when it returns nil.
// fn must only use tx: the store has one connection.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Student record operations

const studentColumns = `id, student_id, first_name, last_name, birthday, linked_account_id, created_at, updated_at`

// CreateStudent inserts a student record and sets rec.ID.
func (s *Store) CreateStudent(ctx context.Context, rec *model.StudentRecord) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO students (student_id, first_name, last_name, birthday, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.StudentID, rec.FirstName, rec.LastName, rec.Birthday.String(),
		toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrStudentIDTaken
		}
		return fmt.Errorf("insert student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("student id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetStudent returns a record by internal id.
func (s *Store) GetStudent(ctx context.Context, id int64) (*model.StudentRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

// GetStudentByStudentID returns a record by its campus identifier.
func (s *Store) GetStudentByStudentID(ctx context.Context, studentID string) (*model.StudentRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE student_id = ?`, studentID)
	return scanStudent(row)
}

// DeleteStudent removes the record and its linked account together.
func (s *Store) DeleteStudent(ctx context.Context, id int64) (*int64, error) {
	var deleted *int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var linked sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT linked_account_id FROM students WHERE id = ?`, id).Scan(&linked)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrStudentNotFound
		}
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		if !linked.Valid {
			return nil
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, linked.Int64)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			accountID := linked.Int64
			deleted = &accountID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Account operations

const accountColumns = `id, display_name, email, handle, credential_secret, level, experience_points, is_privileged, created_at, updated_at`

// CreateAccount inserts an unlinked account.
func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertAccount(ctx, tx, acct)
	})
}

// GetAccount returns an account by id.
func (s *Store) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// GetAccountByHandle returns an account by handle, ignoring case.
func (s *Store) GetAccountByHandle(ctx context.Context, handle string) (*model.Account, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE handle = ?`, model.NormalizeHandle(handle))
	return scanAccount(row)
}

// EmailExists reports whether an account uses email, ignoring case.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return exists(ctx, s.sqlDB, `SELECT 1 FROM accounts WHERE lower(email) = ?`, model.NormalizeEmail(email))
}

// HandleExists reports whether an account uses handle, ignoring case.
func (s *Store) HandleExists(ctx context.Context, handle string) (bool, error) {
	return exists(ctx, s.sqlDB, `SELECT 1 FROM accounts WHERE handle = ?`, model.NormalizeHandle(handle))
}

// UpdateAccountProgress sets level and experience points.
func (s *Store) UpdateAccountProgress(ctx context.Context, id int64, level, experiencePoints int) (*model.Account, error) {
	var updated *model.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET level = ?, experience_points = ? WHERE id = ?`,
			level, experiencePoints, id,
		)
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ErrAccountNotFound
		}
		updated, err = scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CreateLinkedAccount inserts acct and claims the record in one transaction.
func (s *Store) CreateLinkedAccount(ctx context.Context, studentRecordID int64, acct *model.Account) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var linked sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT linked_account_id FROM students WHERE id = ?`, studentRecordID).Scan(&linked)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrStudentNotFound
		}
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}
		if linked.Valid {
			return model.ErrAlreadyLinked
		}

		if err := insertAccount(ctx, tx, acct); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE students SET linked_account_id = ?, updated_at = ?
			 WHERE id = ? AND linked_account_id IS NULL`,
			acct.ID, toMillis(acct.CreatedAt), studentRecordID,
		)
		if err != nil {
			return fmt.Errorf("claim student: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ErrAlreadyLinked
		}
		return nil
	})
}

// Leaderboard

// ListLeaderboard returns one ordered window of linked accounts and the
// number of rows matching the search.
func (s *Store) ListLeaderboard(ctx context.Context, filter model.LeaderboardFilter) ([]model.LeaderboardEntry, int, error) {
	where := ``
	var args []any
	if filter.Search != "" {
		where = ` WHERE ` + foldFunc + `(s.student_id) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
	}
	from := ` FROM students s JOIN accounts a ON a.id = s.linked_account_id`

	query := `SELECT s.id, a.id, s.student_id, s.first_name, s.last_name, a.level, a.experience_points` +
		from + where + ` ORDER BY ` + orderBy(filter.Sort, filter.Dir) + ` LIMIT ? OFFSET ?`
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}

	var (
		total   int
		entries = []model.LeaderboardEntry{}
	)
	// count and page read the same snapshot
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count leaderboard: %w", err)
		}

		rows, err := tx.QueryContext(ctx, query, append(args, limit, filter.Offset)...)
		if err != nil {
			return fmt.Errorf("query leaderboard: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var e model.LeaderboardEntry
			if err := rows.Scan(&e.StudentRecordID, &e.AccountID, &e.StudentID, &e.FirstName, &e.LastName, &e.Level, &e.ExperiencePoints); err != nil {
				return fmt.Errorf("scan leaderboard: %w", err)
			}
			entries = append(entries, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate leaderboard: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// orderBy builds a total order matching model.CompareEntries
func orderBy(key model.SortKey, dir model.SortDirection) string {
	d := "ASC"
	if dir == model.SortDesc {
		d = "DESC"
	}
	switch key {
	case model.SortByStudentID:
		return "s.student_id " + d + ", a.id ASC"
	case model.SortByLevel:
		return "a.level " + d + ", a.id ASC"
	default:
		return "a.experience_points " + d + ", a.level " + d + ", a.id ASC"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func insertAccount(ctx context.Context, q querier, acct *model.Account) error {
	acct.Handle = model.NormalizeHandle(acct.Handle)

	taken, err := exists(ctx, q, `SELECT 1 FROM accounts WHERE lower(email) = ?`, model.NormalizeEmail(acct.Email))
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return model.ErrEmailTaken
	}
	taken, err = exists(ctx, q, `SELECT 1 FROM accounts WHERE handle = ?`, acct.Handle)
	if err != nil {
		return fmt.Errorf("check handle: %w", err)
	}
	if taken {
		return model.ErrHandleTaken
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO accounts (display_name, email, handle, credential_secret, level, experience_points, is_privileged, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.DisplayName, acct.Email, acct.Handle, acct.CredentialSecret,
		acct.Level, acct.ExperiencePoints, acct.IsPrivileged,
		toMillis(acct.CreatedAt), toMillis(acct.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return conflictFromMessage(err)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("account id: %w", err)
	}
	acct.ID = id
	return nil
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*model.StudentRecord, error) {
	var (
		rec                  model.StudentRecord
		birthday             string
		linked               sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.FirstName, &rec.LastName, &birthday, &linked, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}
	rec.Birthday, err = model.ParseDate(birthday)
	if err != nil {
		return nil, err
	}
	if linked.Valid {
		id := linked.Int64
		rec.LinkedAccountID = &id
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		acct                 model.Account
		createdAt, updatedAt int64
	)
	err := row.Scan(&acct.ID, &acct.DisplayName, &acct.Email, &acct.Handle, &acct.CredentialSecret,
		&acct.Level, &acct.ExperiencePoints, &acct.IsPrivileged, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.CreatedAt = fromMillis(createdAt)
	acct.UpdatedAt = fromMillis(updatedAt)
	return &acct, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func conflictFromMessage(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "idx_accounts_email") || strings.Contains(msg, "accounts.email") {
		return model.ErrEmailTaken
	}
	return model.ErrHandleTaken
}
