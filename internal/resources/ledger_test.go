package resources_test

import (
	"context"
	"testing"
	"time"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/actors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/campaigns"
	"github.com/KirkDiggler/dh-automation/internal/resources"
	"github.com/KirkDiggler/dh-automation/internal/uuid"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
	ctx       context.Context
	actors    actors.Repository
	campaigns campaigns.Repository
	presence  relay.Presence
	hub       *relay.Hub
	gm        *relay.Relay
	ledger    *resources.Ledger
	actor     *entities.Actor
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.actors = actors.NewInMemoryRepository()
	s.campaigns = campaigns.NewInMemoryRepository()
	s.presence = relay.NewMemoryPresence()
	s.hub = relay.NewHub(nil)

	campaign := entities.NewCampaign("c1")
	campaign.Fear.Value = 4
	s.Require().NoError(s.campaigns.Create(s.ctx, campaign))

	s.actor = entities.NewCharacter("Actor.a1", "Marlowe")
	s.actor.Resources["focus"] = &entities.ResourceValue{Value: 3, Max: 10}
	s.actor.Resources["strain"] = &entities.ResourceValue{Value: 3, Max: 10, IsReversed: true}
	s.actor.Items["potion"] = &entities.Item{UUID: "Actor.a1.Item.potion", Name: "Potion", Quantity: 2}
	s.actor.Items["charm"] = &entities.Item{UUID: "Actor.a1.Item.charm", Name: "Charm", Uses: &entities.Uses{Value: 1, Max: 3}}
	s.Require().NoError(s.actors.Create(s.ctx, s.actor))

	s.gm = s.newRelay("gm-1", relay.RoleGM)
	s.ledger = s.newLedger(s.gm)
	s.gm.Register(relay.OpFearUpdate, s.ledger.FearHandler())
}

func (s *LedgerTestSuite) newRelay(id string, role relay.Role) *relay.Relay {
	r, err := relay.New(&relay.Config{
		Self:          relay.Participant{ID: id, Role: role},
		Presence:      s.presence,
		Transport:     s.hub,
		UUIDGenerator: uuid.NewSequenceGenerator(id),
		Timeout:       time.Second,
	})
	s.Require().NoError(err)
	s.Require().NoError(r.Start(s.ctx))
	s.T().Cleanup(func() { _ = r.Stop(context.Background()) })
	return r
}

func (s *LedgerTestSuite) newLedger(authority resources.Authority) *resources.Ledger {
	return resources.NewLedger(&resources.LedgerConfig{
		Actors:     s.actors,
		Campaigns:  s.campaigns,
		Authority:  authority,
		CampaignID: "c1",
	})
}

func (s *LedgerTestSuite) reload() *entities.Actor {
	actor, err := s.actors.Get(s.ctx, "Actor.a1")
	s.Require().NoError(err)
	return actor
}

func cost(key string, value int) resources.Cost {
	return resources.Cost{Key: key, Value: value, Enabled: true}
}

func (s *LedgerTestSuite) TestExecute_NormalResourceDrops() {
	_, err := s.ledger.Execute(s.ctx, s.reload(), []resources.Cost{cost("focus", 2)}, false, false)
	s.Require().NoError(err)
	s.Equal(1, s.reload().Resources["focus"].Value)
}

func (s *LedgerTestSuite) TestExecute_ReversedResourceClimbs() {
	_, err := s.ledger.Execute(s.ctx, s.reload(), []resources.Cost{cost("strain", 2)}, false, false)
	s.Require().NoError(err)
	s.Equal(5, s.reload().Resources["strain"].Value)
}

func (s *LedgerTestSuite) TestExecute_MergesSameResource() {
	_, err := s.ledger.Execute(s.ctx, s.reload(), []resources.Cost{cost("focus", 1), cost("focus", 1)}, false, false)
	s.Require().NoError(err)
	s.Equal(1, s.reload().Resources["focus"].Value)
}

func (s *LedgerTestSuite) TestExecute_DisabledCostSkipped() {
	c := cost("focus", 2)
	c.Enabled = false
	_, err := s.ledger.Execute(s.ctx, s.reload(), []resources.Cost{c}, false, false)
	s.Require().NoError(err)
	s.Equal(3, s.reload().Resources["focus"].Value)
}

func (s *LedgerTestSuite) TestExecute_SuccessGating() {
	onSuccess := cost("focus", 1)
	onSuccess.ConsumeOnSuccess = true
	always := cost("strain", 1)
	costs := []resources.Cost{onSuccess, always}

	// Roll has not succeeded: only the unconditional cost is spent.
	_, err := s.ledger.Execute(s.ctx, s.reload(), costs, false, false)
	s.Require().NoError(err)
	s.Equal(3, s.reload().Resources["focus"].Value)
	s.Equal(4, s.reload().Resources["strain"].Value)

	// Later pass consumes only the success-contingent cost.
	_, err = s.ledger.Execute(s.ctx, s.reload(), costs, true, false)
	s.Require().NoError(err)
	s.Equal(2, s.reload().Resources["focus"].Value)
	s.Equal(4, s.reload().Resources["strain"].Value)
}

func (s *LedgerTestSuite) TestExecute_ClampedOnWrite() {
	_, err := s.ledger.Execute(s.ctx, s.reload(), []resources.Cost{cost("strain", 20)}, false, false)
	s.Require().NoError(err)
	s.Equal(10, s.reload().Resources["strain"].Value)
}

func (s *LedgerTestSuite) TestExecute_ItemCosts() {
	quantity := resources.Cost{Key: entities.ItemCostQuantity, ItemUUID: "Actor.a1.Item.potion", Value: 1, Enabled: true}
	uses := resources.Cost{Key: entities.ItemCostUses, ItemUUID: "Actor.a1.Item.charm", Value: 1, Enabled: true}

	_, err := s.ledger.Execute(s.ctx, s.reload(), []resources.Cost{quantity, uses}, false, false)
	s.Require().NoError(err)

	actor := s.reload()
	s.Equal(1, actor.Items["potion"].Quantity)
	s.Equal(2, actor.Items["charm"].Uses.Value)
}

func (s *LedgerTestSuite) TestHasCost_IsIdempotentAndPure() {
	actor := s.reload()
	costs := []resources.Cost{cost("focus", 3), cost("strain", 7)}

	first, err := s.ledger.HasCost(s.ctx, actor, costs)
	s.Require().NoError(err)
	second, err := s.ledger.HasCost(s.ctx, actor, costs)
	s.Require().NoError(err)

	s.True(first)
	s.Equal(first, second)
	s.Equal(actor, s.reload())
}

func (s *LedgerTestSuite) TestHasCost_DirectionAware() {
	actor := s.reload()

	ok, err := s.ledger.HasCost(s.ctx, actor, []resources.Cost{cost("focus", 4)})
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.ledger.HasCost(s.ctx, actor, []resources.Cost{cost("strain", 8)})
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.ledger.HasCost(s.ctx, actor, []resources.Cost{cost("missing", 99)})
	s.Require().NoError(err)
	s.True(ok)
}

func (s *LedgerTestSuite) TestHasCost_FearRequiresAuthority() {
	actor := s.reload()
	fear := []resources.Cost{cost(entities.ResourceFear, 2)}

	ok, err := s.ledger.HasCost(s.ctx, actor, fear)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.ledger.HasCost(s.ctx, actor, []resources.Cost{cost(entities.ResourceFear, 5)})
	s.Require().NoError(err)
	s.False(ok)

	player := s.newRelay("player-1", relay.RolePlayer)
	ok, err = s.newLedger(player).HasCost(s.ctx, actor, fear)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *LedgerTestSuite) TestHasCost_FearAndActorResourcesCheckedTogether() {
	actor := s.reload()

	ok, err := s.ledger.HasCost(s.ctx, actor, []resources.Cost{cost(entities.ResourceFear, 2), cost("focus", 3)})
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.ledger.HasCost(s.ctx, actor, []resources.Cost{cost(entities.ResourceFear, 2), cost("focus", 4)})
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.ledger.HasCost(s.ctx, actor, []resources.Cost{cost(entities.ResourceFear, 3), cost(entities.ResourceFear, 2)})
	s.Require().NoError(err)
	s.False(ok, "fear costs are summed against the pool")
}

func (s *LedgerTestSuite) TestFearConsumedThroughRelay() {
	player := s.newRelay("player-1", relay.RolePlayer)

	err := s.newLedger(player).ApplyUpdates(s.ctx, []resources.Update{{Key: entities.ResourceFear, Value: 3}})
	s.Require().NoError(err)

	campaign, err := s.campaigns.Get(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(7, campaign.Fear.Value)
}

func (s *LedgerTestSuite) TestFearWithoutGMIsUnavailable() {
	s.Require().NoError(s.gm.Stop(s.ctx))

	err := s.ledger.UpdateFear(s.ctx, 1)
	s.True(dherr.IsUnavailable(err))
}

func (s *LedgerTestSuite) TestCalcCosts_Scaling() {
	res := map[string]*resources.Resource{
		"hope":   {Key: "hope", Value: 5, Max: 6},
		"stress": {Key: "stress", Value: 2, Max: 6, IsReversed: true},
	}
	costs := resources.CalcCosts(res, []resources.Cost{
		{Key: "hope", Value: 1, Scalable: true, Step: 2, Scale: 1, Enabled: true},
		{Key: "stress", Value: 1, Scalable: true, Step: 1, Enabled: true},
	})

	s.Equal(3, costs[0].Total)
	s.Equal(5, costs[0].Max)
	s.Equal(2, costs[0].MaxStep)

	s.Equal(1, costs[1].Total)
	s.Equal(4, costs[1].Max)
	s.Equal(3, costs[1].MaxStep)
}
