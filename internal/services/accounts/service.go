// Package accounts exposes account reads and the progress hook used by
// gameplay collaborators.
package accounts

import (
	"context"
	"log/slog"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// Service reads accounts and records progress
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates an accounts Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Get returns the account with the given id
func (s *Service) Get(ctx context.Context, id int64) (*model.Account, error) {
	return s.storage.GetAccount(ctx, id)
}

// SetProgress sets level and experience points. Level must be at least 1
// and experience points must not be negative.
func (s *Service) SetProgress(ctx context.Context, id int64, level, experiencePoints int) (*model.Account, error) {
	verr := &model.ValidationError{}
	if level < model.InitialLevel {
		verr.Add("level", "The level must be at least 1.")
	}
	if experiencePoints < 0 {
		verr.Add("experience_points", "The experience points must be at least 0.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	acct, err := s.storage.UpdateAccountProgress(ctx, id, level, experiencePoints)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account progress updated",
		slog.Int64("account_id", id),
		slog.Int("level", level),
		slog.Int("experience_points", experiencePoints),
	)
	return acct, nil
}
