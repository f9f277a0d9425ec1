package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	mockdice "github.com/KirkDiggler/dh-automation/internal/dice/mock"
	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/notify"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/actors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/campaigns"
	"github.com/KirkDiggler/dh-automation/internal/repositories/messages"
	tablerepo "github.com/KirkDiggler/dh-automation/internal/repositories/tables"
	"github.com/KirkDiggler/dh-automation/internal/services"
	"github.com/KirkDiggler/dh-automation/internal/testutils"
	"github.com/KirkDiggler/dh-automation/internal/triggers"
	"github.com/KirkDiggler/dh-automation/internal/uuid"
	"github.com/KirkDiggler/dh-automation/internal/workflow"
)

type ProviderTestSuite struct {
	suite.Suite
	ctx    context.Context
	roller *mockdice.ManualMockRoller
	notes  *notify.Recorder

	// shared world for multi-participant tests
	hub       *relay.Hub
	presence  relay.Presence
	actors    actors.Repository
	campaigns campaigns.Repository
	messages  messages.Repository
	tables    tablerepo.Repository
}

func TestProviderTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (s *ProviderTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.roller = mockdice.NewManualMockRoller()
	s.notes = notify.NewRecorder()
	s.hub = relay.NewHub(nil)
	s.presence = relay.NewMemoryPresence()
	s.actors = actors.NewInMemoryRepository()
	s.campaigns = campaigns.NewInMemoryRepository()
	s.messages = messages.NewInMemoryRepository()
	s.tables = tablerepo.NewInMemoryRepository()
}

// newSharedProvider joins a participant to the suite's shared world
func (s *ProviderTestSuite) newSharedProvider(id string, role relay.Role) *services.Provider {
	p, err := services.NewProvider(&services.ProviderConfig{
		CampaignID:    "c1",
		Participant:   relay.Participant{ID: id, Role: role},
		Presence:      s.presence,
		Transport:     s.hub,
		RelayTimeout:  time.Second,
		Actors:        s.actors,
		Campaigns:     s.campaigns,
		Messages:      s.messages,
		Tables:        s.tables,
		Automation:    entities.Automation{Triggers: true, HopeFear: true},
		Roller:        s.roller,
		Notifier:      s.notes,
		UUIDGenerator: uuid.NewSequenceGenerator(id),
	})
	s.Require().NoError(err)
	s.Require().NoError(p.Start(s.ctx))
	s.T().Cleanup(func() { _ = p.Stop(context.Background()) })
	return p
}

func (s *ProviderTestSuite) newProvider(id string, role relay.Role) *services.Provider {
	p, err := services.NewProvider(&services.ProviderConfig{
		CampaignID:    "c1",
		Participant:   relay.Participant{ID: id, Role: role},
		RelayTimeout:  time.Second,
		Automation:    entities.Automation{Triggers: true, HopeFear: true},
		Roller:        s.roller,
		Notifier:      s.notes,
		UUIDGenerator: uuid.NewSequenceGenerator(id),
	})
	s.Require().NoError(err)
	s.Require().NoError(p.Start(s.ctx))
	s.T().Cleanup(func() { _ = p.Stop(context.Background()) })
	return p
}

func (s *ProviderTestSuite) TestActionRunsTriggersAndAutomation() {
	p := s.newProvider("gm-1", relay.RoleGM)

	hero := testutils.CreateTestHero("Actor.hero", "Marlowe", "player-1")
	item := testutils.AddTestItem(hero, "rally", "Rally", &entities.Action{
		ID:   "inspire",
		Name: "Inspire",
		Roll: &entities.RollDef{Type: entities.RollTypeDuality, Trait: "instinct", Difficulty: 10},
	})
	item.Triggers = []entities.TriggerSpec{{
		Trigger: string(triggers.DualityRoll),
		Command: `roll.total >= 10 ? update("hope", 1) : false`,
	}}
	s.Require().NoError(p.Actors.Create(s.ctx, hero))
	s.Require().NoError(p.LoadScene(s.ctx, []string{hero.UUID}))
	s.Equal(1, p.Triggers.Count(triggers.DualityRoll))

	s.roller.SetRolls([]int{7, 4})
	outcome, err := p.Pipeline.Use(s.ctx, &workflow.Request{ActorUUID: hero.UUID, ItemRef: "rally", ActionID: "inspire"})
	s.Require().NoError(err)
	s.Require().True(outcome.Completed)
	s.Equal(13, outcome.Config.Roll.Total)

	// one from the trigger, one for rolling with hope
	updated, err := p.Actors.Get(s.ctx, hero.UUID)
	s.Require().NoError(err)
	s.Equal(4, updated.Resources[entities.ResourceHope].Value)

	msg, err := p.Messages.Get(s.ctx, outcome.MessageID)
	s.Require().NoError(err)
	s.Equal("gm-1", msg.AuthorID)
}

func (s *ProviderTestSuite) TestFearRollFeedsGMPool() {
	p := s.newProvider("gm-1", relay.RoleGM)

	hero := testutils.CreateTestHero("Actor.hero", "Marlowe")
	testutils.AddTestItem(hero, "sneak", "Sneak", &entities.Action{
		ID:   "hide",
		Name: "Hide",
		Roll: &entities.RollDef{Type: entities.RollTypeDuality, Trait: "agility", Difficulty: 12},
	})
	s.Require().NoError(p.Actors.Create(s.ctx, hero))

	s.roller.SetRolls([]int{3, 9})
	outcome, err := p.Pipeline.Use(s.ctx, &workflow.Request{ActorUUID: hero.UUID, ItemRef: "sneak", ActionID: "hide"})
	s.Require().NoError(err)
	s.True(outcome.Completed)
	s.True(outcome.Config.Roll.Succeeded())

	campaign, err := p.Campaigns.Get(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(1, campaign.Fear.Value)
}

func (s *ProviderTestSuite) TestSharedTableDraw() {
	p := s.newProvider("gm-1", relay.RoleGM)
	s.Require().NoError(p.Tables.Put(s.ctx, &entities.RollTable{
		ID:      "loot",
		Name:    "Loot",
		Formula: "1d4",
		Results: []entities.TableResult{
			{Low: 1, High: 2, Text: "A rusty key"},
			{Low: 3, High: 4, Text: "A silver coin"},
		},
	}))

	s.roller.SetRolls([]int{3})
	draw, err := p.Drawer.DrawShared(s.ctx, "loot")
	s.Require().NoError(err)
	s.Equal([]string{"A silver coin"}, draw.Texts())
}

func (s *ProviderTestSuite) TestPlayerAloneCannotTouchFear() {
	p := s.newProvider("player-1", relay.RolePlayer)

	err := p.Ledger.UpdateFear(s.ctx, 1)
	s.Require().Error(err)
	s.True(dherr.IsUnavailable(err))
	s.False(p.Relay.HasAuthority(s.ctx))
}

func (s *ProviderTestSuite) TestUnloadSceneDropsSyntheticActors() {
	p := s.newProvider("gm-1", relay.RoleGM)

	wolf := testutils.CreateTestAdversary("Scene.s1.Token.t1.Actor.wolf", "Wolf", 11)
	item := testutils.AddTestItem(wolf, "howl", "Howl")
	item.Triggers = []entities.TriggerSpec{{Trigger: string(triggers.FearRoll), Command: `set("howled", true)`}}
	s.Require().NoError(p.Actors.Create(s.ctx, wolf))
	s.Require().NoError(p.LoadScene(s.ctx, []string{wolf.UUID}))
	s.Equal(1, p.Triggers.Count(triggers.FearRoll))

	p.UnloadScene("Scene.s1")
	s.Equal(0, p.Triggers.Count(triggers.FearRoll))
}

func (s *ProviderTestSuite) TestEffectAppliedElsewhereReachesOwnersRegistry() {
	gm := s.newSharedProvider("gm-1", relay.RoleGM)
	owner := s.newSharedProvider("player-q", relay.RolePlayer)

	bard := testutils.CreateTestHero("Actor.bard", "Lyre", "player-1")
	song := testutils.AddTestItem(bard, "song", "Song", &entities.Action{
		ID:      "inspire",
		Name:    "Inspire",
		Target:  &entities.TargetDef{Type: entities.TargetAny},
		Effects: []string{"inspired"},
	})
	song.Effects = map[string]*entities.Effect{"inspired": {
		Name:     "Inspired",
		Triggers: []entities.TriggerSpec{{Trigger: string(triggers.DualityRoll), Command: `update("hope", 1)`}},
	}}
	quill := testutils.CreateTestHero("Actor.quill", "Quill", "player-q")
	s.Require().NoError(s.actors.Create(s.ctx, bard))
	s.Require().NoError(s.actors.Create(s.ctx, quill))
	s.Require().NoError(owner.LoadScene(s.ctx, []string{quill.UUID}))
	s.Equal(0, owner.Triggers.Count(triggers.DualityRoll))

	outcome, err := gm.Pipeline.Use(s.ctx, &workflow.Request{
		ActorUUID: bard.UUID,
		ItemRef:   "song",
		ActionID:  "inspire",
		Targets:   []string{quill.UUID},
	})
	s.Require().NoError(err)
	s.Require().True(outcome.Completed)

	s.Eventually(func() bool {
		return owner.Triggers.Count(triggers.DualityRoll) == 1
	}, time.Second, 10*time.Millisecond)

	updated, err := s.actors.Get(s.ctx, quill.UUID)
	s.Require().NoError(err)
	s.Require().Len(updated.Effects, 1)
	var effectUUID string
	for _, effect := range updated.Effects {
		effectUUID = effect.UUID
	}

	s.Require().NoError(gm.DeleteDocument(s.ctx, quill.UUID, effectUUID))
	s.Equal(0, gm.Triggers.Count(triggers.DualityRoll))
	s.Eventually(func() bool {
		return owner.Triggers.Count(triggers.DualityRoll) == 0
	}, time.Second, 10*time.Millisecond)
}

func (s *ProviderTestSuite) TestDeleteActorDropsItsTriggers() {
	gm := s.newSharedProvider("gm-1", relay.RoleGM)
	owner := s.newSharedProvider("player-q", relay.RolePlayer)

	quill := testutils.CreateTestHero("Actor.quill", "Quill", "player-q")
	item := testutils.AddTestItem(quill, "charm", "Charm")
	item.Triggers = []entities.TriggerSpec{{Trigger: string(triggers.DualityRoll), Command: `update("hope", 1)`}}
	s.Require().NoError(s.actors.Create(s.ctx, quill))
	s.Require().NoError(gm.LoadScene(s.ctx, []string{quill.UUID}))
	s.Require().NoError(owner.LoadScene(s.ctx, []string{quill.UUID}))

	s.Require().NoError(gm.DeleteActor(s.ctx, quill.UUID))

	s.Equal(0, gm.Triggers.Count(triggers.DualityRoll))
	s.Eventually(func() bool {
		return owner.Triggers.Count(triggers.DualityRoll) == 0
	}, time.Second, 10*time.Millisecond)
	_, err := s.actors.Get(s.ctx, quill.UUID)
	s.True(dherr.IsNotFound(err))
}

func (s *ProviderTestSuite) TestDeleteDocumentUnknownRef() {
	p := s.newSharedProvider("gm-1", relay.RoleGM)
	quill := testutils.CreateTestHero("Actor.quill", "Quill", "player-q")
	s.Require().NoError(s.actors.Create(s.ctx, quill))

	err := p.DeleteDocument(s.ctx, quill.UUID, "missing")
	s.True(dherr.IsNotFound(err))
}

func TestNewProviderRequiresCampaign(t *testing.T) {
	_, err := services.NewProvider(&services.ProviderConfig{Participant: relay.Participant{ID: "gm-1", Role: relay.RoleGM}})
	require.Error(t, err)
}
