package actors

import (
	"context"
	"encoding/json"
	"errors"
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

func (s *RedisRepoTestSuite) marshal(actor *entities.Actor) string {
	data, err := json.Marshal(actor)
	s.Require().NoError(err)
	return string(data)
}

func (s *RedisRepoTestSuite) TestCreate() {
	ctx := context.Background()
	actor := entities.NewCharacter("Actor.a1", "Marlowe")

	s.mock.ExpectExists("actor:Actor.a1").SetVal(0)
	s.mock.ExpectSet("actor:Actor.a1", s.marshal(actor), 0).SetVal("OK")
	s.mock.ExpectHSet(namesKey, "Marlowe", "Actor.a1").SetVal(1)

	s.NoError(s.repo.Create(ctx, actor))
}

func (s *RedisRepoTestSuite) TestCreate_CompendiumSkipsNameIndex() {
	ctx := context.Background()
	actor := entities.NewCharacter("Compendium.beasts.Actor.wolf", "Wolf")
	actor.Compendium = true

	s.mock.ExpectExists("actor:Compendium.beasts.Actor.wolf").SetVal(0)
	s.mock.ExpectSet("actor:Compendium.beasts.Actor.wolf", s.marshal(actor), 0).SetVal("OK")

	s.NoError(s.repo.Create(ctx, actor))
}

func (s *RedisRepoTestSuite) TestCreate_AlreadyExists() {
	ctx := context.Background()
	actor := entities.NewCharacter("Actor.a1", "Marlowe")

	s.mock.ExpectExists("actor:Actor.a1").SetVal(1)

	err := s.repo.Create(ctx, actor)
	s.Error(err)
	s.True(dherr.Is(err, dherr.CodeAlreadyExists))
}

func (s *RedisRepoTestSuite) TestCreate_InputValidation() {
	s.Error(s.repo.Create(context.Background(), nil))
	s.Error(s.repo.Create(context.Background(), &entities.Actor{}))
}

func (s *RedisRepoTestSuite) TestGet() {
	ctx := context.Background()
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	s.mock.ExpectGet("actor:Actor.a1").SetVal(s.marshal(actor))

	got, err := s.repo.Get(ctx, "Actor.a1")
	s.Require().NoError(err)
	s.Equal("Marlowe", got.Name)
	s.Equal(actor.Resources, got.Resources)
}

func (s *RedisRepoTestSuite) TestGet_NotFound() {
	s.mock.ExpectGet("actor:missing").RedisNil()

	_, err := s.repo.Get(context.Background(), "missing")
	s.True(dherr.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestGet_DependencyError() {
	s.mock.ExpectGet("actor:Actor.a1").SetErr(errors.New("redis down"))

	_, err := s.repo.Get(context.Background(), "Actor.a1")
	s.Error(err)
	s.False(dherr.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestFindByName() {
	ctx := context.Background()
	actor := entities.NewCharacter("Actor.wolf", "Wolf")

	s.mock.ExpectHGet(namesKey, "Wolf").SetVal("Actor.wolf")
	s.mock.ExpectGet("actor:Actor.wolf").SetVal(s.marshal(actor))

	got, err := s.repo.FindByName(ctx, "Wolf")
	s.Require().NoError(err)
	s.Equal("Actor.wolf", got.UUID)
}

func (s *RedisRepoTestSuite) TestFindByName_Missing() {
	s.mock.ExpectHGet(namesKey, "Bear").RedisNil()

	_, err := s.repo.FindByName(context.Background(), "Bear")
	s.True(dherr.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestUpdate_PatchesAndClamps() {
	ctx := context.Background()
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	s.mock.ExpectGet("actor:Actor.a1").SetVal(s.marshal(actor))

	expected := entities.NewCharacter("Actor.a1", "Marlowe")
	expected.Resources[entities.ResourceStress].Value = 6
	s.mock.ExpectSet("actor:Actor.a1", s.marshal(expected), 0).SetVal("OK")

	got, err := s.repo.Update(ctx, "Actor.a1", patch.New().Set("resources.stress.value", 9))
	s.Require().NoError(err)
	s.Equal(6, got.Resources[entities.ResourceStress].Value)
}

func (s *RedisRepoTestSuite) TestUpdate_RenameMovesIndex() {
	ctx := context.Background()
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	s.mock.ExpectGet("actor:Actor.a1").SetVal(s.marshal(actor))

	expected := entities.NewCharacter("Actor.a1", "Marlowe the Bold")
	s.mock.ExpectSet("actor:Actor.a1", s.marshal(expected), 0).SetVal("OK")
	s.mock.ExpectHDel(namesKey, "Marlowe").SetVal(1)
	s.mock.ExpectHSet(namesKey, "Marlowe the Bold", "Actor.a1").SetVal(1)

	_, err := s.repo.Update(ctx, "Actor.a1", patch.New().Set("name", "Marlowe the Bold"))
	s.NoError(err)
}

func (s *RedisRepoTestSuite) TestDelete() {
	ctx := context.Background()
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	s.mock.ExpectGet("actor:Actor.a1").SetVal(s.marshal(actor))
	s.mock.ExpectDel("actor:Actor.a1").SetVal(1)
	s.mock.ExpectHDel(namesKey, "Marlowe").SetVal(1)

	s.NoError(s.repo.Delete(ctx, "Actor.a1"))
}
