package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/storagetest"
)

func newMiniredisStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mini.Addr(),
	})
	return NewWithClient(client, DefaultConfig()), mini
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage {
			s, _ := newMiniredisStorage(t)
			return s
		},
	})
}

type KeyLayoutSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestKeyLayoutSuite(t *testing.T) {
	suite.Run(t, new(KeyLayoutSuite))
}

func (s *KeyLayoutSuite) SetupTest() {
	s.storage, s.mini = newMiniredisStorage(s.T())
	s.ctx = context.Background()
}

func (s *KeyLayoutSuite) TearDownTest() {
	_ = s.storage.Close()
}

func (s *KeyLayoutSuite) linkJane() (*model.StudentRecord, *model.Account) {
	rec := &model.StudentRecord{
		StudentID: "2021-0001",
		FirstName: "Jane",
		LastName:  "Doe",
		Birthday:  model.NewDate(2003, time.May, 14),
	}
	s.Require().NoError(s.storage.CreateStudent(s.ctx, rec))
	acct := &model.Account{Email: "Jane@Campus.edu", Handle: "JaneD", Level: 1}
	s.Require().NoError(s.storage.CreateLinkedAccount(s.ctx, rec.ID, acct))
	return rec, acct
}

func (s *KeyLayoutSuite) TestLinkWritesIndexesAndLinkedSet() {
	rec, acct := s.linkJane()

	s.True(s.mini.Exists(studentKey(rec.ID)))
	s.True(s.mini.Exists(accountKey(acct.ID)))
	s.True(s.mini.Exists(emailIndexKey("jane@campus.edu")))
	s.True(s.mini.Exists(handleIndexKey("janed")))

	isMember, err := s.mini.SIsMember(linkedStudentsKey(), "1")
	s.Require().NoError(err)
	s.True(isMember)
}

func (s *KeyLayoutSuite) TestDeleteRemovesEveryKey() {
	rec, acct := s.linkJane()

	_, err := s.storage.DeleteStudent(s.ctx, rec.ID)
	s.Require().NoError(err)

	for _, key := range []string{
		studentKey(rec.ID),
		studentIDIndexKey(rec.StudentID),
		accountKey(acct.ID),
		emailIndexKey("jane@campus.edu"),
		handleIndexKey("janed"),
	} {
		s.False(s.mini.Exists(key), key)
	}
	members, err := s.mini.Members(linkedStudentsKey())
	if err == nil {
		s.Empty(members)
	}
}

func (s *KeyLayoutSuite) TestLeaderboardSkipsDanglingMembers() {
	s.linkJane()
	_, err := s.mini.SAdd(linkedStudentsKey(), "99")
	s.Require().NoError(err)

	entries, total, err := s.storage.ListLeaderboard(s.ctx, model.LeaderboardFilter{
		Sort: model.SortByExperiencePoints, Dir: model.SortDesc, Limit: 10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Len(entries, 1)
}

func (s *KeyLayoutSuite) TestPingFailsWhenServerGone() {
	s.mini.Close()
	s.Error(s.storage.Ping(s.ctx))
}
