// Package linker turns a matched student record into an account.
package linker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/clock"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// AccountCreateRequest carries the account fields chosen by the registrant
type AccountCreateRequest struct {
	Email    string
	Handle   string
	Password string
}

// Config holds configuration for the Linker
type Config struct {
	BcryptCost int
}

// DefaultConfig returns default linker configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Linker creates accounts and claims student records
type Linker struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cost    int
}

// New creates a Linker
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Linker {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Linker{
		storage: storage,
		clock:   clock,
		logger:  logger,
		cost:    cfg.BcryptCost,
	}
}

// Link creates an account for the matched record and claims the record in
// one storage unit of work. Email and handle conflicts are reported as
// *model.ConflictError. When another registration claims the record first,
// Link fails with model.ErrAlreadyLinked and nothing is persisted.
func (l *Linker) Link(ctx context.Context, matched *model.StudentRecord, req AccountCreateRequest) (*model.Account, error) {
	// Early checks give a friendly error; the storage commit re-validates.
	if taken, err := l.storage.EmailExists(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, model.ErrEmailTaken
	}
	if taken, err := l.storage.HandleExists(ctx, req.Handle); err != nil {
		return nil, err
	} else if taken {
		return nil, model.ErrHandleTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), l.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := l.clock.Now()
	acct := &model.Account{
		DisplayName:      model.DisplayNameFor(matched),
		Email:            strings.TrimSpace(req.Email),
		Handle:           model.NormalizeHandle(req.Handle),
		CredentialSecret: string(hash),
		Level:            model.InitialLevel,
		ExperiencePoints: model.InitialExperiencePoints,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := l.storage.CreateLinkedAccount(ctx, matched.ID, acct); err != nil {
		return nil, err
	}

	l.logger.Info("account linked",
		slog.Int64("account_id", acct.ID),
		slog.Int64("student_record_id", matched.ID),
	)
	return acct, nil
}
