// Package auth issues and verifies bearer tokens for accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/clock"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// Token is a signed bearer token
type Token struct {
	Value     string
	TokenID   string
	AccountID int64
	ExpiresAt time.Time
}

// Principal is the authenticated caller of a request
type Principal struct {
	Account   *model.Account
	TokenID   string
	ExpiresAt time.Time
}

// Service handles credentials and bearer tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int

	mu      sync.Mutex
	revoked map[string]time.Time // token id -> expiry
}

// Config holds configuration for the auth service
type Config struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL:   24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// New creates a new auth Service. An empty secret is rejected.
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: token secret is required")
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		logger:     logger,
		secret:     []byte(cfg.Secret),
		tokenTTL:   cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
		revoked:    make(map[string]time.Time),
	}, nil
}

// Issue creates a bearer token for an existing account
func (s *Service) Issue(acct *model.Account) (*Token, error) {
	tok, err := s.issueToken(acct, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Login verifies handle and password and issues a token.
// Unknown handles and wrong passwords both yield model.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, handle, password string) (*Token, *model.Account, error) {
	acct, err := s.storage.GetAccountByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, nil, model.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.CredentialSecret), []byte(password)); err != nil {
		return nil, nil, model.ErrInvalidCredentials
	}

	tok, err := s.Issue(acct)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("account logged in", slog.Int64("account_id", acct.ID))
	return tok, acct, nil
}

// Authenticate resolves a raw bearer token to its Principal. Revoked,
// expired or forged tokens, and tokens whose account no longer exists,
// yield model.ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	c, err := s.parseToken(raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[c.ID]
	s.mu.Unlock()
	if revoked {
		return nil, model.ErrInvalidToken
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, model.ErrInvalidToken
	}
	acct, err := s.storage.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrInvalidToken
		}
		return nil, err
	}

	return &Principal{
		Account:   acct,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates the token held by p
func (s *Service) Revoke(p *Principal) {
	s.mu.Lock()
	s.revoked[p.TokenID] = p.ExpiresAt
	s.mu.Unlock()
}

// CleanRevoked drops revocations whose tokens have expired anyway (call periodically)
func (s *Service) CleanRevoked() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, expiresAt := range s.revoked {
		if now.After(expiresAt) {
			delete(s.revoked, id)
		}
	}
}

// AdminCredentials describes the bootstrap privileged account
type AdminCredentials struct {
	Handle   string
	Email    string
	Password string
}

// EnsureAdmin creates a privileged, unlinked account unless one with the
// handle already exists. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, admin AdminCredentials) (bool, error) {
	exists, err := s.storage.HandleExists(ctx, admin.Handle)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	acct := &model.Account{
		DisplayName:      "Administrator",
		Email:            strings.TrimSpace(admin.Email),
		Handle:           model.NormalizeHandle(admin.Handle),
		CredentialSecret: string(hash),
		Level:            model.InitialLevel,
		ExperiencePoints: model.InitialExperiencePoints,
		IsPrivileged:     true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.storage.CreateAccount(ctx, acct); err != nil {
		return false, err
	}

	s.logger.Info("bootstrap admin created",
		slog.Int64("account_id", acct.ID),
		slog.String("handle", acct.Handle),
	)
	return true, nil
}
