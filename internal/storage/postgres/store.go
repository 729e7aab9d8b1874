// Package postgres provides a PostgreSQL-backed campus storage implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// Store persists students and accounts in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// Open connects to databaseURL, verifies the connection and applies
// pending migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// querier is implemented by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// withTx executes fn within a transaction.
// The transaction is committed if fn returns nil, rolled back otherwise.
func (s *Store) withTx(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Student record operations

const studentColumns = `id, student_id, first_name, last_name, birthday, linked_account_id, created_at, updated_at`

func (s *Store) CreateStudent(ctx context.Context, rec *model.StudentRecord) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO students (student_id, first_name, last_name, birthday, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		rec.StudentID, rec.FirstName, rec.LastName, rec.Birthday.Time(), rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrStudentIDTaken
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (s *Store) GetStudent(ctx context.Context, id int64) (*model.StudentRecord, error) {
	return scanStudent(s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
}

func (s *Store) GetStudentByStudentID(ctx context.Context, studentID string) (*model.StudentRecord, error) {
	return scanStudent(s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE student_id = $1`, studentID))
}

func (s *Store) DeleteStudent(ctx context.Context, id int64) (*int64, error) {
	var deleted *int64
	err := s.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var linked *int64
		err := tx.QueryRow(ctx, `SELECT linked_account_id FROM students WHERE id = $1 FOR UPDATE`, id).Scan(&linked)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrStudentNotFound
		}
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		if linked == nil {
			return nil
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, *linked)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if tag.RowsAffected() > 0 {
			deleted = linked
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

func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	return s.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return insertAccount(ctx, tx, acct)
	})
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *Store) GetAccountByHandle(ctx context.Context, handle string) (*model.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE handle = $1`, model.NormalizeHandle(handle)))
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return exists(ctx, s.pool, `SELECT EXISTS (SELECT 1 FROM accounts WHERE lower(email) = $1)`, model.NormalizeEmail(email))
}

func (s *Store) HandleExists(ctx context.Context, handle string) (bool, error) {
	return exists(ctx, s.pool, `SELECT EXISTS (SELECT 1 FROM accounts WHERE handle = $1)`, model.NormalizeHandle(handle))
}

func (s *Store) UpdateAccountProgress(ctx context.Context, id int64, level, experiencePoints int) (*model.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`UPDATE accounts SET level = $2, experience_points = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, level, experiencePoints,
	))
}

// CreateLinkedAccount locks the student row, inserts the account and claims
// the record inside one transaction. A competing claim blocks on the row
// lock and then observes the committed link.
func (s *Store) CreateLinkedAccount(ctx context.Context, studentRecordID int64, acct *model.Account) error {
	return s.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var linked *int64
		err := tx.QueryRow(ctx, `SELECT linked_account_id FROM students WHERE id = $1 FOR UPDATE`, studentRecordID).Scan(&linked)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrStudentNotFound
		}
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}
		if linked != nil {
			return model.ErrAlreadyLinked
		}

		if err := insertAccount(ctx, tx, acct); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE students SET linked_account_id = $1, updated_at = $2
			 WHERE id = $3 AND linked_account_id IS NULL`,
			acct.ID, acct.CreatedAt, studentRecordID,
		)
		if err != nil {
			return fmt.Errorf("claim student: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrAlreadyLinked
		}
		return nil
	})
}

// Leaderboard

func (s *Store) ListLeaderboard(ctx context.Context, filter model.LeaderboardFilter) ([]model.LeaderboardEntry, int, error) {
	from := ` FROM students s JOIN accounts a ON a.id = s.linked_account_id`
	where := ``
	args := []any{}
	if filter.Search != "" {
		where = ` WHERE s.student_id ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}
	n := len(args)
	query := fmt.Sprintf(
		`SELECT s.id, a.id, s.student_id, s.first_name, s.last_name, a.level, a.experience_points%s%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		from, where, orderBy(filter.Sort, filter.Dir), n+1, n+2,
	)

	var (
		total   int
		entries = []model.LeaderboardEntry{}
	)
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := s.withTx(ctx, opts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count leaderboard: %w", err)
		}

		rows, err := tx.Query(ctx, query, append(args, limit, filter.Offset)...)
		if err != nil {
			return fmt.Errorf("query leaderboard: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e model.LeaderboardEntry
			if err := rows.Scan(&e.StudentRecordID, &e.AccountID, &e.StudentID, &e.FirstName, &e.LastName, &e.Level, &e.ExperiencePoints); err != nil {
				return fmt.Errorf("scan leaderboard: %w", err)
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// orderBy builds a total order matching model.CompareEntries.
// student_id uses the C collation so ordering is bytewise.
func orderBy(key model.SortKey, dir model.SortDirection) string {
	d := "ASC"
	if dir == model.SortDesc {
		d = "DESC"
	}
	switch key {
	case model.SortByStudentID:
		return `s.student_id COLLATE "C" ` + d + ", a.id ASC"
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

	taken, err := exists(ctx, q, `SELECT EXISTS (SELECT 1 FROM accounts WHERE lower(email) = $1)`, model.NormalizeEmail(acct.Email))
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return model.ErrEmailTaken
	}
	taken, err = exists(ctx, q, `SELECT EXISTS (SELECT 1 FROM accounts WHERE handle = $1)`, acct.Handle)
	if err != nil {
		return fmt.Errorf("check handle: %w", err)
	}
	if taken {
		return model.ErrHandleTaken
	}

	err = q.QueryRow(ctx,
		`INSERT INTO accounts (display_name, email, handle, credential_secret, level, experience_points, is_privileged, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		acct.DisplayName, acct.Email, acct.Handle, acct.CredentialSecret,
		acct.Level, acct.ExperiencePoints, acct.IsPrivileged, acct.CreatedAt, acct.UpdatedAt,
	).Scan(&acct.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "idx_accounts_email_lower" {
				return model.ErrEmailTaken
			}
			return model.ErrHandleTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var found bool
	if err := q.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func scanStudent(row pgx.Row) (*model.StudentRecord, error) {
	var (
		rec      model.StudentRecord
		birthday time.Time
	)
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.FirstName, &rec.LastName, &birthday, &rec.LinkedAccountID, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}
	rec.Birthday = model.DateOf(birthday)
	return &rec, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var acct model.Account
	err := row.Scan(&acct.ID, &acct.DisplayName, &acct.Email, &acct.Handle, &acct.CredentialSecret,
		&acct.Level, &acct.ExperiencePoints, &acct.IsPrivileged, &acct.CreatedAt, &acct.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &acct, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
