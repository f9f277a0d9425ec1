package messages

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepoTestSuite struct {
	suite.Suite
	client *redis.Client
	mock   redismock.ClientMock
	repo   Repository
}

func (s *RedisRepoTestSuite) SetupTest() {
	s.client, s.mock = redismock.NewClientMock()
	s.repo = NewRedisRepository(&RedisRepoConfig{Client: s.client, TTL: time.Hour})
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) message() *entities.Message {
	return &entities.Message{
		ID:        "m1",
		ActorUUID: "Actor.a1",
		ItemUUID:  "Actor.a1.Item.i1",
		ActionID:  "strike",
		AuthorID:  "p1",
		Config:    json.RawMessage(`{"hasDamage":true}`),
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *RedisRepoTestSuite) TestCreateUsesTTL() {
	msg := s.message()
	data, err := json.Marshal(msg)
	s.Require().NoError(err)

	s.mock.ExpectSet("message:m1", string(data), time.Hour).SetVal("OK")
	s.NoError(s.repo.Create(context.Background(), msg))
}

func (s *RedisRepoTestSuite) TestUpdateKeepsTTL() {
	msg := s.message()
	data, err := json.Marshal(msg)
	s.Require().NoError(err)
	s.mock.ExpectGet("message:m1").SetVal(string(data))

	patched := s.message()
	patched.Config = json.RawMessage(`{"hasDamage":true,"saved":true}`)
	patchedData, err := json.Marshal(patched)
	s.Require().NoError(err)
	s.mock.ExpectSet("message:m1", string(patchedData), redis.KeepTTL).SetVal("OK")

	got, err := s.repo.Update(context.Background(), "m1", patch.New().Set("config.saved", true))
	s.Require().NoError(err)
	s.JSONEq(`{"hasDamage":true,"saved":true}`, string(got.Config))
}

func (s *RedisRepoTestSuite) TestGet_NotFound() {
	s.mock.ExpectGet("message:gone").RedisNil()
	_, err := s.repo.Get(context.Background(), "gone")
	s.True(dherr.IsNotFound(err))
}
