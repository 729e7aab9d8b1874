// Package registration runs the sign-up flow: field validation, identity
// match, account link and token issue.
package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/identity"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/linker"
)

// Messages shown for identity failures. All are keyed under student_id.
const (
	MsgStudentNotFound  = "Only registered students can create an account. Please provide a valid student ID."
	MsgAlreadyLinked    = "This student ID is already linked to an account. Please log in instead."
	MsgIdentityMismatch = "The student ID, last name, first name, or birthday does not match our records. Only registered students can create an account."
)

// Request is a registration submission as received from the client
type Request struct {
	Email                string
	Handle               string
	Password             string
	PasswordConfirmation string
	StudentID            string
	LastName             string
	FirstName            string
	Birthday             string
}

// Result is a successful registration
type Result struct {
	Account *model.Account
	Token   *auth.Token
}

// Service orchestrates registration
type Service struct {
	matcher *identity.Matcher
	linker  *linker.Linker
	auth    *auth.Service
	logger  *slog.Logger
}

// New creates a registration Service
func New(matcher *identity.Matcher, linker *linker.Linker, auth *auth.Service, logger *slog.Logger) *Service {
	return &Service{
		matcher: matcher,
		linker:  linker,
		auth:    auth,
		logger:  logger,
	}
}

// Register validates req, links the claimed student record to a new account
// and issues a token for it. Every expected failure is a
// *model.ValidationError keyed by the offending field; identity failures are
// keyed under student_id and still match their sentinel under errors.Is.
func (s *Service) Register(ctx context.Context, req Request) (*Result, error) {
	birthday, err := validate(req)
	if err != nil {
		return nil, err
	}

	rec, err := s.matcher.Match(ctx, identity.Claim{
		StudentID: req.StudentID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthday:  birthday,
	})
	if err != nil {
		return nil, identityError(err)
	}

	acct, err := s.linker.Link(ctx, rec, linker.AccountCreateRequest{
		Email:    req.Email,
		Handle:   req.Handle,
		Password: req.Password,
	})
	if err != nil {
		var conflict *model.ConflictError
		if errors.As(err, &conflict) {
			return nil, model.NewFieldError(conflict.Field, conflictMessage(conflict), err)
		}
		return nil, identityError(err)
	}

	// The account exists from here on; a signing failure leaves the client
	// to log in normally.
	tok, err := s.auth.Issue(acct)
	if err != nil {
		return nil, err
	}

	s.logger.Info("registration completed",
		slog.Int64("account_id", acct.ID),
		slog.Int64("student_record_id", rec.ID),
	)
	return &Result{Account: acct, Token: tok}, nil
}

func identityError(err error) error {
	switch {
	case errors.Is(err, model.ErrStudentNotFound):
		return model.NewFieldError("student_id", MsgStudentNotFound, err)
	case errors.Is(err, model.ErrAlreadyLinked):
		return model.NewFieldError("student_id", MsgAlreadyLinked, err)
	case errors.Is(err, model.ErrIdentityMismatch):
		return model.NewFieldError("student_id", MsgIdentityMismatch, err)
	default:
		return err
	}
}

func conflictMessage(c *model.ConflictError) string {
	msg := c.Error()
	return "The" + msg[len("the"):] + "."
}
