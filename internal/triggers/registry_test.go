package triggers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/notify"
	"github.com/KirkDiggler/dh-automation/internal/repositories/actors"
	"github.com/KirkDiggler/dh-automation/internal/resources"
	"github.com/KirkDiggler/dh-automation/internal/triggers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
	ctx      context.Context
	actors   actors.Repository
	notifier *notify.Recorder
	enabled  bool
	registry *triggers.Registry
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.actors = actors.NewInMemoryRepository()
	s.notifier = notify.NewRecorder()
	s.enabled = true

	for _, a := range []*entities.Actor{
		entities.NewCharacter("Actor.a", "Ash"),
		entities.NewCharacter("Actor.b", "Birch"),
		entities.NewCharacter("Scene.s1.Token.t1.Actor.c", "Cedar"),
	} {
		s.Require().NoError(s.actors.Create(s.ctx, a))
	}
	adversary := entities.NewCharacter("Actor.wolf", "Dire Wolf")
	adversary.Type = entities.ActorTypeAdversary
	s.Require().NoError(s.actors.Create(s.ctx, adversary))

	s.registry = triggers.NewRegistry(&triggers.RegistryConfig{
		Actors:        s.actors,
		Notifier:      s.notifier,
		ParticipantID: "player-1",
		Enabled:       func(context.Context) bool { return s.enabled },
	})
}

func handler(fn triggers.HandlerFunc) triggers.Source {
	return triggers.Source{Language: triggers.LanguageHandler, Handler: fn}
}

func updating(key string, value int) triggers.Source {
	return handler(func(_ context.Context, call *triggers.Call) error {
		call.Update(key, value)
		return nil
	})
}

func (s *RegistryTestSuite) TestReRegisterReplacesEntry() {
	err := s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("hope", 1)}},
	}, "Actor.a", "Actor.a.Item.i1", nil)
	s.Require().NoError(err)

	err = s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("stress", 2)}},
	}, "Actor.a", "Actor.a.Item.i1", nil)
	s.Require().NoError(err)

	s.Equal(1, s.registry.Count(triggers.DualityRoll))

	updates, err := s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.a", nil)
	s.Require().NoError(err)
	s.Equal([]resources.Update{{ActorUUID: "Actor.a", Key: "stress", Value: 2}}, updates)
}

func (s *RegistryTestSuite) TestRegisterRemovesAbsentTypes() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll:     {Commands: []triggers.Source{updating("hope", 1)}},
		triggers.DamageReduction: {Commands: []triggers.Source{updating("armor", 1)}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DamageReduction: {Commands: []triggers.Source{updating("armor", 1)}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	s.Equal(0, s.registry.Count(triggers.DualityRoll))
	s.Equal(1, s.registry.Count(triggers.DamageReduction))
}

func (s *RegistryTestSuite) TestRegisterRejectsBadCommandWithoutMutation() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("hope", 1)}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	err := s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{{Language: triggers.LanguageExpr, Code: "update(("}}},
	}, "Actor.a", "Actor.a.Item.i1", nil)
	s.Require().Error(err)
	s.True(dherr.IsAuthoring(err))

	entries := s.registry.Subscribers(triggers.DualityRoll)
	s.Require().Len(entries, 1)
	s.Equal(triggers.LanguageHandler, entries[0].Sources[0].Language)
}

func (s *RegistryTestSuite) TestScopeSelectsSubscribers() {
	for _, tc := range []struct {
		actor string
		scope triggers.Scope
	}{
		{"Actor.a", triggers.ScopeSelf},
		{"Actor.b", triggers.ScopeOther},
		{"Scene.s1.Token.t1.Actor.c", triggers.ScopeAny},
	} {
		s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
			triggers.DualityRoll: {Scope: tc.scope, Commands: []triggers.Source{updating("hope", 1)}},
		}, tc.actor, tc.actor+".Item.x", nil))
	}

	updates, err := s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.a", nil)
	s.Require().NoError(err)

	var owners []string
	for _, u := range updates {
		owners = append(owners, u.ActorUUID)
	}
	s.Equal([]string{"Actor.a", "Actor.b", "Scene.s1.Token.t1.Actor.c"}, owners)

	updates, err = s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.b", nil)
	s.Require().NoError(err)
	owners = owners[:0]
	for _, u := range updates {
		owners = append(owners, u.ActorUUID)
	}
	s.Equal([]string{"Scene.s1.Token.t1.Actor.c"}, owners)
}

func (s *RegistryTestSuite) TestActorTypeRestriction() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("hope", 1)}},
		triggers.FearRoll:    {Commands: []triggers.Source{updating("stress", 1)}},
	}, "Actor.wolf", "Actor.wolf.Item.howl", nil))

	updates, err := s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.wolf", nil)
	s.Require().NoError(err)
	s.Empty(updates)

	updates, err = s.registry.Run(s.ctx, triggers.FearRoll, "Actor.wolf", nil)
	s.Require().NoError(err)
	s.Len(updates, 1)
}

func (s *RegistryTestSuite) TestFailingCommandsAreIsolated() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{
			handler(func(context.Context, *triggers.Call) error { return errors.New("boom") }),
			handler(func(context.Context, *triggers.Call) error { panic("kaboom") }),
			updating("hope", 1),
		}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	updates, err := s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.a", nil)
	s.Require().NoError(err)
	s.Len(updates, 1)
	s.Equal(2, s.notifier.Count(notify.LevelError))
}

func (s *RegistryTestSuite) TestAutomationOff() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("hope", 1)}},
	}, "Actor.a", "Actor.a.Item.i1", nil))
	s.enabled = false

	updates, err := s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.a", nil)
	s.Require().NoError(err)
	s.Empty(updates)
}

func (s *RegistryTestSuite) TestUnregisterScene() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Scope: triggers.ScopeAny, Commands: []triggers.Source{updating("hope", 1)}},
	}, "Scene.s1.Token.t1.Actor.c", "Scene.s1.Token.t1.Actor.c.Item.x", nil))
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("hope", 1)}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	s.registry.UnregisterScene("Scene.s1")

	entries := s.registry.Subscribers(triggers.DualityRoll)
	s.Require().Len(entries, 1)
	s.Equal("Actor.a.Item.i1", entries[0].SubscriberUUID)
}

func (s *RegistryTestSuite) TestExprCommandUpdatesAndSetsConfig() {
	config := map[string]any{}
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{{
			Language: triggers.LanguageExpr,
			Code:     `roll.total >= 10 ? update("hope", 1) && set("blessed", true) : false`,
		}}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	updates, err := s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.a", map[string]any{
		"roll":   map[string]any{"total": 12},
		"config": config,
	})
	s.Require().NoError(err)
	s.Equal([]resources.Update{{ActorUUID: "Actor.a", Key: "hope", Value: 1}}, updates)
	s.Equal(true, config["blessed"])

	updates, err = s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.a", map[string]any{
		"roll": map[string]any{"total": 4},
	})
	s.Require().NoError(err)
	s.Empty(updates)
}

func (s *RegistryTestSuite) TestLuaCommandIsSandboxed() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DamageReduction: {Commands: []triggers.Source{
			{Language: triggers.LanguageLua, Code: `
if require ~= nil or os ~= nil or io ~= nil then
  error("sandbox leak")
end
if damage.amount > 3 then
  update("armor", 1)
end`},
			{Language: triggers.LanguageLua, Code: `os.exit(1)`},
			{Language: triggers.LanguageLua, Code: `while true do end`},
		}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	updates, err := s.registry.Run(s.ctx, triggers.DamageReduction, "Actor.a", map[string]any{
		"damage": map[string]any{"amount": 7},
	})
	s.Require().NoError(err)
	s.Equal([]resources.Update{{ActorUUID: "Actor.a", Key: "armor", Value: 1}}, updates)
	s.Equal(2, s.notifier.Count(notify.LevelError))
}

func (s *RegistryTestSuite) TestRegisterActorReadsItemsAndEnabledEffects() {
	actor := entities.NewCharacter("Actor.d", "Dune")
	actor.Items["ring"] = &entities.Item{UUID: "Actor.d.Item.ring", Triggers: []entities.TriggerSpec{
		{Trigger: string(triggers.DualityRoll), Scope: "any", Command: `update("hope", 1)`},
		{Trigger: string(triggers.DualityRoll), Scope: "self", Command: `update("stress", 1)`},
	}}
	actor.Effects["ward"] = &entities.Effect{UUID: "Actor.d.ActiveEffect.ward", Disabled: true, Triggers: []entities.TriggerSpec{
		{Trigger: string(triggers.DamageReduction), Command: `update("armor", 1)`},
	}}
	s.Require().NoError(s.actors.Create(s.ctx, actor))

	s.Require().NoError(s.registry.RegisterActor(actor))

	entries := s.registry.Subscribers(triggers.DualityRoll)
	s.Require().Len(entries, 1)
	s.Equal(triggers.ScopeAny, entries[0].Scope)
	s.Len(entries[0].Sources, 2)
	s.Equal(0, s.registry.Count(triggers.DamageReduction))

	s.registry.UnregisterActor(actor)
	s.Equal(0, s.registry.Count(triggers.DualityRoll))
}

func (s *RegistryTestSuite) TestRegisterActorDropsRemovedDocuments() {
	actor := entities.NewCharacter("Actor.e", "Ember")
	actor.Items["charm"] = &entities.Item{UUID: "Actor.e.Item.charm", Triggers: []entities.TriggerSpec{
		{Trigger: string(triggers.DualityRoll), Command: `update("hope", 1)`},
	}}
	actor.Effects["rage"] = &entities.Effect{UUID: "Actor.e.ActiveEffect.rage", Triggers: []entities.TriggerSpec{
		{Trigger: string(triggers.DamageReduction), Command: `update("armor", 1)`},
	}}
	s.Require().NoError(s.actors.Create(s.ctx, actor))
	s.Require().NoError(s.registry.RegisterActor(actor))
	s.Equal(1, s.registry.Count(triggers.DualityRoll))
	s.Equal(1, s.registry.Count(triggers.DamageReduction))

	delete(actor.Items, "charm")
	actor.Effects["rage"].Disabled = true
	s.Require().NoError(s.registry.RegisterActor(actor))

	s.Equal(0, s.registry.Count(triggers.DualityRoll))
	s.Equal(0, s.registry.Count(triggers.DamageReduction))
	updates, err := s.registry.Run(s.ctx, triggers.DualityRoll, "Actor.e", nil)
	s.Require().NoError(err)
	s.Empty(updates)
}

func (s *RegistryTestSuite) TestRegisterActorKeepsOtherActorsEntries() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("hope", 1)}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	s.Require().NoError(s.registry.RegisterActor(entities.NewCharacter("Actor.b", "Birch")))
	s.Equal(1, s.registry.Count(triggers.DualityRoll))
}

func (s *RegistryTestSuite) TestUnregisterOwner() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("hope", 1)}},
	}, "Actor.a", "Actor.a.Item.i1", nil))
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.DualityRoll: {Commands: []triggers.Source{updating("hope", 1)}},
	}, "Actor.b", "Actor.b.Item.i1", nil))

	s.registry.UnregisterOwner("Actor.a")

	entries := s.registry.Subscribers(triggers.DualityRoll)
	s.Require().Len(entries, 1)
	s.Equal("Actor.b.Item.i1", entries[0].SubscriberUUID)
}

func (s *RegistryTestSuite) TestExprCommandReadsNestedAndScalarParams() {
	s.Require().NoError(s.registry.Register(map[triggers.Type]triggers.Subscription{
		triggers.PostDamageReduction: {Commands: []triggers.Source{{
			Language: triggers.LanguageExpr,
			Code:     `marked >= 2 && damage.amount > 6 && actor.resources.hope.value < 3 ? update("stress", marked) : false`,
		}}},
	}, "Actor.a", "Actor.a.Item.i1", nil))

	updates, err := s.registry.Run(s.ctx, triggers.PostDamageReduction, "Actor.a", map[string]any{
		"damage": map[string]any{"amount": 9, "applyTo": "hitPoints", "marked": 2},
		"marked": 2,
		"actor":  map[string]any{"resources": map[string]any{"hope": map[string]any{"value": 2.0}}},
	})
	s.Require().NoError(err)
	s.Equal([]resources.Update{{ActorUUID: "Actor.a", Key: "stress", Value: 2}}, updates)
	s.Equal(0, s.notifier.Count(notify.LevelError))
}

func TestNewExprCommand_CompilesFieldAccessButRejectsSyntax(t *testing.T) {
	_, err := triggers.NewExprCommand(`roll.total >= 10 && actor.traits.agility > 0`, []string{"roll", "actor", "config"})
	require.NoError(t, err)

	_, err = triggers.NewExprCommand(`roll.total >=`, []string{"roll"})
	require.Error(t, err)
	assert.True(t, dherr.IsAuthoring(err))
}
