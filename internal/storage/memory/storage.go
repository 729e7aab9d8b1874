package memory

import (
	"context"
	"sync"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// A single mutex serialises writers, which makes every multi-step write
// (link, cascade delete) atomic.
type Storage struct {
	mu sync.RWMutex

	students       map[int64]*model.StudentRecord
	studentIDIndex map[string]int64
	accounts       map[int64]*model.Account
	emailIndex     map[string]int64
	handleIndex    map[string]int64

	nextStudentID int64
	nextAccountID int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		students:       make(map[int64]*model.StudentRecord),
		studentIDIndex: make(map[string]int64),
		accounts:       make(map[int64]*model.Account),
		emailIndex:     make(map[string]int64),
		handleIndex:    make(map[string]int64),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Student record operations

func (s *Storage) CreateStudent(ctx context.Context, rec *model.StudentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.studentIDIndex[rec.StudentID]; ok {
		return model.ErrStudentIDTaken
	}

	s.nextStudentID++
	rec.ID = s.nextStudentID
	stored := copyStudent(rec)
	s.students[rec.ID] = stored
	s.studentIDIndex[rec.StudentID] = rec.ID
	return nil
}

func (s *Storage) GetStudent(ctx context.Context, id int64) (*model.StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.students[id]
	if !ok {
		return nil, model.ErrStudentNotFound
	}
	return copyStudent(rec), nil
}

func (s *Storage) GetStudentByStudentID(ctx context.Context, studentID string) (*model.StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.studentIDIndex[studentID]
	if !ok {
		return nil, model.ErrStudentNotFound
	}
	return copyStudent(s.students[id]), nil
}

func (s *Storage) DeleteStudent(ctx context.Context, id int64) (*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.students[id]
	if !ok {
		return nil, model.ErrStudentNotFound
	}

	var deleted *int64
	if rec.LinkedAccountID != nil {
		if acct, ok := s.accounts[*rec.LinkedAccountID]; ok {
			s.removeAccount(acct)
			accountID := acct.ID
			deleted = &accountID
		}
	}

	delete(s.studentIDIndex, rec.StudentID)
	delete(s.students, id)
	return deleted, nil
}

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, acct *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAccountUnique(acct); err != nil {
		return err
	}
	s.insertAccount(acct)
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return copyAccount(acct), nil
}

func (s *Storage) GetAccountByHandle(ctx context.Context, handle string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.handleIndex[model.NormalizeHandle(handle)]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return copyAccount(s.accounts[id]), nil
}

func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.emailIndex[model.NormalizeEmail(email)]
	return ok, nil
}

func (s *Storage) HandleExists(ctx context.Context, handle string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.handleIndex[model.NormalizeHandle(handle)]
	return ok, nil
}

func (s *Storage) UpdateAccountProgress(ctx context.Context, id int64, level, experiencePoints int) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	acct.Level = level
	acct.ExperiencePoints = experiencePoints
	return copyAccount(acct), nil
}

func (s *Storage) CreateLinkedAccount(ctx context.Context, studentRecordID int64, acct *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.students[studentRecordID]
	if !ok {
		return model.ErrStudentNotFound
	}
	if rec.LinkedAccountID != nil {
		return model.ErrAlreadyLinked
	}
	if err := s.checkAccountUnique(acct); err != nil {
		return err
	}

	s.insertAccount(acct)
	linked := acct.ID
	rec.LinkedAccountID = &linked
	rec.UpdatedAt = acct.CreatedAt
	return nil
}

// Leaderboard

func (s *Storage) ListLeaderboard(ctx context.Context, filter model.LeaderboardFilter) ([]model.LeaderboardEntry, int, error) {
	s.mu.RLock()
	entries := make([]model.LeaderboardEntry, 0, len(s.accounts))
	for _, rec := range s.students {
		if rec.LinkedAccountID == nil {
			continue
		}
		acct, ok := s.accounts[*rec.LinkedAccountID]
		if !ok {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			StudentRecordID:  rec.ID,
			AccountID:        acct.ID,
			StudentID:        rec.StudentID,
			FirstName:        rec.FirstName,
			LastName:         rec.LastName,
			Level:            acct.Level,
			ExperiencePoints: acct.ExperiencePoints,
		})
	}
	s.mu.RUnlock()

	page, total := model.ApplyLeaderboardFilter(entries, filter)
	return page, total, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// checkAccountUnique must be called with mu held
func (s *Storage) checkAccountUnique(acct *model.Account) error {
	if _, ok := s.emailIndex[model.NormalizeEmail(acct.Email)]; ok {
		return model.ErrEmailTaken
	}
	if _, ok := s.handleIndex[model.NormalizeHandle(acct.Handle)]; ok {
		return model.ErrHandleTaken
	}
	return nil
}

// insertAccount must be called with mu held
func (s *Storage) insertAccount(acct *model.Account) {
	s.nextAccountID++
	acct.ID = s.nextAccountID
	acct.Handle = model.NormalizeHandle(acct.Handle)
	s.accounts[acct.ID] = copyAccount(acct)
	s.emailIndex[model.NormalizeEmail(acct.Email)] = acct.ID
	s.handleIndex[acct.Handle] = acct.ID
}

// removeAccount must be called with mu held
func (s *Storage) removeAccount(acct *model.Account) {
	delete(s.emailIndex, model.NormalizeEmail(acct.Email))
	delete(s.handleIndex, acct.Handle)
	delete(s.accounts, acct.ID)
}

func copyStudent(rec *model.StudentRecord) *model.StudentRecord {
	c := *rec
	if rec.LinkedAccountID != nil {
		id := *rec.LinkedAccountID
		c.LinkedAccountID = &id
	}
	return &c
}

func copyAccount(acct *model.Account) *model.Account {
	c := *acct
	return &c
}
