package campaigns

import (
	"context"
	"encoding/json"
	"testing"

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
	s.repo = NewRedis(s.client)
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) marshal(c *entities.Campaign) string {
	data, err := json.Marshal(c)
	s.Require().NoError(err)
	return string(data)
}

func (s *RedisRepoTestSuite) TestCreate() {
	campaign := entities.NewCampaign("c1")
	s.mock.ExpectSetNX("campaign:c1", s.marshal(campaign), 0).SetVal(true)
	s.NoError(s.repo.Create(context.Background(), campaign))

	s.mock.ExpectSetNX("campaign:c1", s.marshal(campaign), 0).SetVal(false)
	err := s.repo.Create(context.Background(), campaign)
	s.True(dherr.Is(err, dherr.CodeAlreadyExists))
}

func (s *RedisRepoTestSuite) TestGet_NotFound() {
	s.mock.ExpectGet("campaign:nope").RedisNil()
	_, err := s.repo.Get(context.Background(), "nope")
	s.True(dherr.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestUpdate_ClampsFear() {
	campaign := entities.NewCampaign("c1")
	s.mock.ExpectGet("campaign:c1").SetVal(s.marshal(campaign))

	expected := entities.NewCampaign("c1")
	expected.Fear.Value = entities.DefaultFearMax
	s.mock.ExpectSet("campaign:c1", s.marshal(expected), 0).SetVal("OK")

	got, err := s.repo.Update(context.Background(), "c1", patch.New().Set("fear.value", 20))
	s.Require().NoError(err)
	s.Equal(entities.DefaultFearMax, got.Fear.Value)
}
