// Package identity verifies a claimed identity against the student registry.
package identity

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// Claim is the identity a registrant asserts
type Claim struct {
	StudentID string
	FirstName string
	LastName  string
	Birthday  model.Date
}

// Matcher resolves a Claim to an unlinked StudentRecord. It never writes.
type Matcher struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewMatcher creates a Matcher
func NewMatcher(storage storage.Storage, logger *slog.Logger) *Matcher {
	return &Matcher{
		storage: storage,
		logger:  logger,
	}
}

// Match returns the record the claim identifies.
//
// The student_id lookup is exact and case-sensitive. A linked record fails
// with model.ErrAlreadyLinked before names are compared. Any disagreement in
// first name, last name or birthday yields model.ErrIdentityMismatch without
// saying which one.
func (m *Matcher) Match(ctx context.Context, claim Claim) (*model.StudentRecord, error) {
	rec, err := m.storage.GetStudentByStudentID(ctx, claim.StudentID)
	if err != nil {
		return nil, err
	}

	if rec.IsLinked() {
		return nil, model.ErrAlreadyLinked
	}

	if !namesEqual(rec.FirstName, claim.FirstName) ||
		!namesEqual(rec.LastName, claim.LastName) ||
		!rec.Birthday.Equal(claim.Birthday) {
		m.logger.Debug("identity claim mismatch",
			slog.Int64("student_record_id", rec.ID),
		)
		return nil, model.ErrIdentityMismatch
	}

	return rec, nil
}

// namesEqual compares trimmed names under Unicode case folding
func namesEqual(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}
