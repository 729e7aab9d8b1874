// Package registry manages the canonical set of pre-enrolled student records.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/clock"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// MaxFieldLength bounds every string field of an imported record
const MaxFieldLength = 255

// Service imports, fetches and deletes student records
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a registry Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Import validates the whole batch, then creates the records in order.
// Validation problems are reported per row as "students.<i>.<field>".
// A student_id that already exists stops the import at that row; rows
// before it stay imported.
func (s *Service) Import(ctx context.Context, batch []model.NewStudentRecord) ([]*model.StudentRecord, error) {
	if err := validateBatch(batch); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	created := make([]*model.StudentRecord, 0, len(batch))
	for i, in := range batch {
		rec := &model.StudentRecord{
			StudentID: strings.TrimSpace(in.StudentID),
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Birthday:  in.Birthday,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.storage.CreateStudent(ctx, rec); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return created, model.NewValidationError(rowField(i, "student_id"), "The student id has already been taken.")
			}
			return created, fmt.Errorf("import row %d: %w", i, err)
		}
		created = append(created, rec)
	}

	s.logger.Info("student records imported",
		slog.Int("count", len(created)),
	)
	return created, nil
}

// Get returns the record with the given surrogate id
func (s *Service) Get(ctx context.Context, id int64) (*model.StudentRecord, error) {
	return s.storage.GetStudent(ctx, id)
}

// GetByStudentID returns the record with the given campus-issued id
func (s *Service) GetByStudentID(ctx context.Context, studentID string) (*model.StudentRecord, error) {
	return s.storage.GetStudentByStudentID(ctx, studentID)
}

// Delete removes the record and, if it is linked, its account.
// It reports whether an account was removed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	accountID, err := s.storage.DeleteStudent(ctx, id)
	if err != nil {
		return false, err
	}

	attrs := []any{slog.Int64("student_record_id", id)}
	if accountID != nil {
		attrs = append(attrs, slog.Int64("account_id", *accountID))
	}
	s.logger.Info("student record deleted", attrs...)

	return accountID != nil, nil
}

func validateBatch(batch []model.NewStudentRecord) error {
	verr := &model.ValidationError{}
	if len(batch) == 0 {
		verr.Add("students", "At least one student record is required.")
		return verr
	}

	seen := make(map[string]int, len(batch))
	for i, in := range batch {
		requireString(verr, rowField(i, "student_id"), in.StudentID)
		requireString(verr, rowField(i, "first_name"), in.FirstName)
		requireString(verr, rowField(i, "last_name"), in.LastName)
		if in.Birthday.IsZero() {
			verr.Add(rowField(i, "birthday"), "The birthday field is required.")
		}

		id := strings.TrimSpace(in.StudentID)
		if id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			verr.Add(rowField(i, "student_id"), fmt.Sprintf("The student id duplicates row %d.", first))
			continue
		}
		seen[id] = i
	}
	return verr.Err()
}

func requireString(verr *model.ValidationError, field, value string) {
	name := field[strings.LastIndexByte(field, '.')+1:]
	label := strings.ReplaceAll(name, "_", " ")
	switch {
	case strings.TrimSpace(value) == "":
		verr.Add(field, fmt.Sprintf("The %s field is required.", label))
	case utf8.RuneCountInString(value) > MaxFieldLength:
		verr.Add(field, fmt.Sprintf("The %s may not be greater than %d characters.", label, MaxFieldLength))
	}
}

func rowField(i int, field string) string {
	return fmt.Sprintf("students.%d.%s", i, field)
}
