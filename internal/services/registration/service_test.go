package registration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/mocks"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/identity"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/linker"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/memory"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	auth    *auth.Service
	service *Service
	ctx     context.Context
	jane    *model.StudentRecord
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.storage = memory.New()
	s.ctx = context.Background()

	var err error
	s.auth, err = auth.New(s.storage, clk, auth.Config{Secret: "test-secret", BcryptCost: bcrypt.MinCost}, logger)
	s.Require().NoError(err)
	s.service = New(
		identity.NewMatcher(s.storage, logger),
		linker.New(s.storage, clk, linker.Config{BcryptCost: bcrypt.MinCost}, logger),
		s.auth,
		logger,
	)

	s.jane = &model.StudentRecord{
		StudentID: "2024-0001",
		FirstName: "Jane",
		LastName:  "Doe",
		Birthday:  model.NewDate(2004, time.March, 15),
	}
	s.Require().NoError(s.storage.CreateStudent(s.ctx, s.jane))
}

func janeRequest() Request {
	return Request{
		Email:                "jane@campus.edu",
		Handle:               "JaneD",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
		StudentID:            "2024-0001",
		LastName:             "doe",
		FirstName:            "JANE",
		Birthday:             "2004-03-15",
	}
}

func (s *ServiceSuite) requireFieldError(err error, field, message string) {
	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Require().Contains(verr.Fields, field)
	if message != "" {
		s.Equal([]string{message}, verr.Fields[field])
	}
}

func (s *ServiceSuite) TestRegisterJaneDoe() {
	res, err := s.service.Register(s.ctx, janeRequest())
	s.Require().NoError(err)

	s.Equal("Jane Doe", res.Account.DisplayName)
	s.Equal("janed", res.Account.Handle)
	s.Equal(1, res.Account.Level)
	s.Equal(0, res.Account.ExperiencePoints)

	p, err := s.auth.Authenticate(s.ctx, res.Token.Value)
	s.Require().NoError(err)
	s.Equal(res.Account.ID, p.Account.ID)

	rec, err := s.storage.GetStudent(s.ctx, s.jane.ID)
	s.Require().NoError(err)
	s.Equal(res.Account.ID, *rec.LinkedAccountID)
}

func (s *ServiceSuite) TestRegisterTwiceIsAlreadyLinked() {
	_, err := s.service.Register(s.ctx, janeRequest())
	s.Require().NoError(err)

	req := janeRequest()
	req.Email = "other@campus.edu"
	req.Handle = "other"
	_, err = s.service.Register(s.ctx, req)

	s.ErrorIs(err, model.ErrAlreadyLinked)
	s.requireFieldError(err, "student_id", MsgAlreadyLinked)
}

func (s *ServiceSuite) TestRegisterUnknownStudent() {
	req := janeRequest()
	req.StudentID = "2024-9999"

	_, err := s.service.Register(s.ctx, req)
	s.ErrorIs(err, model.ErrStudentNotFound)
	s.requireFieldError(err, "student_id", MsgStudentNotFound)

	exists, _ := s.storage.HandleExists(s.ctx, "janed")
	s.False(exists)
}

func (s *ServiceSuite) TestRegisterMismatchIsOpaque() {
	req := janeRequest()
	req.Birthday = "2004-03-16"

	_, err := s.service.Register(s.ctx, req)
	s.ErrorIs(err, model.ErrIdentityMismatch)
	s.requireFieldError(err, "student_id", MsgIdentityMismatch)
}

func (s *ServiceSuite) TestRegisterTakenHandle() {
	_, err := s.service.Register(s.ctx, janeRequest())
	s.Require().NoError(err)

	other := &model.StudentRecord{StudentID: "2024-0002", FirstName: "John", LastName: "Roe", Birthday: model.NewDate(2003, time.May, 2)}
	s.Require().NoError(s.storage.CreateStudent(s.ctx, other))

	_, err = s.service.Register(s.ctx, Request{
		Email:                "john@campus.edu",
		Handle:               "janed",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
		StudentID:            "2024-0002",
		LastName:             "Roe",
		FirstName:            "John",
		Birthday:             "2003-05-02",
	})
	s.ErrorIs(err, model.ErrConflict)
	s.requireFieldError(err, "handle", "The handle has already been taken.")
}

func (s *ServiceSuite) TestValidationRunsBeforeMatching() {
	req := janeRequest()
	req.StudentID = "2024-9999"
	req.Password = "short"
	req.PasswordConfirmation = "short"

	_, err := s.service.Register(s.ctx, req)
	s.requireFieldError(err, "password", "The password must be at least 8 characters.")
	s.NotErrorIs(err, model.ErrStudentNotFound)
}

func (s *ServiceSuite) TestValidation() {
	cases := map[string]struct {
		mutate func(*Request)
		field  string
	}{
		"missing email":      {func(r *Request) { r.Email = "" }, "email"},
		"bad email":          {func(r *Request) { r.Email = "not-an-email" }, "email"},
		"named email":        {func(r *Request) { r.Email = "Jane <jane@campus.edu>" }, "email"},
		"missing handle":     {func(r *Request) { r.Handle = "  " }, "handle"},
		"long handle":        {func(r *Request) { r.Handle = strings.Repeat("h", 256) }, "handle"},
		"confirmation":       {func(r *Request) { r.PasswordConfirmation = "secret124" }, "password"},
		"missing student id": {func(r *Request) { r.StudentID = "" }, "student_id"},
		"missing first name": {func(r *Request) { r.FirstName = "" }, "first_name"},
		"missing last name":  {func(r *Request) { r.LastName = "" }, "last_name"},
		"bad birthday":       {func(r *Request) { r.Birthday = "15/03/2004" }, "birthday"},
		"impossible date":    {func(r *Request) { r.Birthday = "2004-02-30" }, "birthday"},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			req := janeRequest()
			tc.mutate(&req)
			_, err := s.service.Register(s.ctx, req)
			s.ErrorIs(err, model.ErrInvalidInput)
			s.requireFieldError(err, tc.field, "")
		})
	}

	rec, err := s.storage.GetStudent(s.ctx, s.jane.ID)
	s.Require().NoError(err)
	s.False(rec.IsLinked())
}
