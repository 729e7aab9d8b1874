package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/memory"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
	account *model.Account
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.NopLogger())
	s.ctx = context.Background()

	s.account = &model.Account{DisplayName: "Jane Doe", Email: "jane@campus.edu", Handle: "janed", Level: 1}
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account))
}

func (s *ServiceSuite) TestSetProgress() {
	acct, err := s.service.SetProgress(s.ctx, s.account.ID, 4, 1200)
	s.Require().NoError(err)
	s.Equal(4, acct.Level)
	s.Equal(1200, acct.ExperiencePoints)

	got, err := s.service.Get(s.ctx, s.account.ID)
	s.Require().NoError(err)
	s.Equal(1200, got.ExperiencePoints)
}

func (s *ServiceSuite) TestSetProgressValidates() {
	_, err := s.service.SetProgress(s.ctx, s.account.ID, 0, -1)

	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "level")
	s.Contains(verr.Fields, "experience_points")
}

func (s *ServiceSuite) TestSetProgressUnknownAccount() {
	_, err := s.service.SetProgress(s.ctx, 999, 1, 0)
	s.ErrorIs(err, model.ErrAccountNotFound)
}
