package storage

import (
	"context"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Student record operations
	CreateStudent(ctx context.Context, rec *model.StudentRecord) error
	GetStudent(ctx context.Context, id int64) (*model.StudentRecord, error)
	GetStudentByStudentID(ctx context.Context, studentID string) (*model.StudentRecord, error)

	// DeleteStudent removes the record and its linked account, if any, in
	// one unit of work. It returns the id of the deleted account or nil.
	DeleteStudent(ctx context.Context, id int64) (*int64, error)

	// Account operations
	CreateAccount(ctx context.Context, acct *model.Account) error
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	GetAccountByHandle(ctx context.Context, handle string) (*model.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	UpdateAccountProgress(ctx context.Context, id int64, level, experiencePoints int) (*model.Account, error)

	// CreateLinkedAccount inserts acct and claims the student record in one
	// unit of work. It fails with model.ErrAlreadyLinked when the record was
	// claimed first, and with a *model.ConflictError when email or handle is
	// taken. Nothing is persisted on failure. acct.ID is set on success.
	CreateLinkedAccount(ctx context.Context, studentRecordID int64, acct *model.Account) error

	// Leaderboard
	ListLeaderboard(ctx context.Context, filter model.LeaderboardFilter) ([]model.LeaderboardEntry, int, error)

	Ping(ctx context.Context) error
	Close() error
}
