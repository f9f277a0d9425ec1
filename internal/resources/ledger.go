// Package resources implements the resource ledger: reading spendable
// resources, checking and consuming action costs, and applying resource
// updates produced by triggers and roll automation.
package resources

import (
	"context"
	"log/slog"
	"sort"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/actors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/campaigns"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

// Authority is the slice of the relay the ledger needs
type Authority interface {
	IsAuthority(ctx context.Context) bool
	Execute(ctx context.Context, operation string, payload any, result any) error
}

// LedgerConfig holds ledger dependencies
type LedgerConfig struct {
	Actors     actors.Repository
	Campaigns  campaigns.Repository
	Authority  Authority
	CampaignID string
	Logger     *slog.Logger
}

// Ledger reads and mutates resources
type Ledger struct {
	actors     actors.Repository
	campaigns  campaigns.Repository
	authority  Authority
	campaignID string
	logger     *slog.Logger
}

// NewLedger creates a ledger
func NewLedger(cfg *LedgerConfig) *Ledger {
	if cfg == nil {
		panic("LedgerConfig cannot be nil")
	}
	if cfg.Actors == nil || cfg.Campaigns == nil || cfg.Authority == nil {
		panic("ledger requires actors, campaigns and authority")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		actors:     cfg.Actors,
		campaigns:  cfg.Campaigns,
		authority:  cfg.Authority,
		campaignID: cfg.CampaignID,
		logger:     logger,
	}
}

// GetResources merges the actor's own resources with the campaign fear pool
// and, for every cost naming an item, that item's quantity or uses.
func (l *Ledger) GetResources(ctx context.Context, actor *entities.Actor, costs []Cost) (map[string]*Resource, error) {
	out := make(map[string]*Resource, len(actor.Resources)+1)
	for key, res := range actor.Resources {
		if res == nil {
			continue
		}
		out[key] = &Resource{Key: key, Value: res.Value, Max: res.Max, IsReversed: res.IsReversed}
	}

	campaign, err := l.campaigns.Get(ctx, l.campaignID)
	if err != nil {
		return nil, dherr.Wrap(err, "failed to load campaign fear")
	}
	out[entities.ResourceFear] = &Resource{
		Key:   entities.ResourceFear,
		Value: campaign.Fear.Value,
		Max:   campaign.Fear.Max,
	}

	for _, cost := range costs {
		if cost.ItemUUID == "" {
			continue
		}
		item, ok := actor.Item(cost.ItemUUID)
		if !ok {
			continue
		}
		switch cost.Key {
		case entities.ItemCostQuantity:
			out[cost.resourceKey()] = &Resource{
				Key: cost.Key, ItemUUID: cost.ItemUUID,
				Value: item.Quantity, Max: item.Quantity,
			}
		case entities.ItemCostUses:
			if item.Uses == nil {
				continue
			}
			out[cost.resourceKey()] = &Resource{
				Key: cost.Key, ItemUUID: cost.ItemUUID,
				Value: item.Uses.Value, Max: item.Uses.Max, IsReversed: true,
			}
		}
	}
	return out, nil
}

// CalcCosts fills in Total, Max and MaxStep for each cost.
// Max is the most that could be spent: headroom for reversed resources,
// the current value otherwise.
func CalcCosts(resources map[string]*Resource, costs []Cost) []Cost {
	out := make([]Cost, len(costs))
	for i, cost := range costs {
		if cost.Scale < 0 {
			cost.Scale = 0
		}
		cost.Total = cost.Value
		if cost.Scalable {
			cost.Total += cost.Scale * cost.Step
		}

		cost.Max = 0
		if res, ok := resources[cost.resourceKey()]; ok {
			if res.IsReversed {
				cost.Max = res.Headroom()
			} else {
				cost.Max = res.Value
			}
		}

		cost.MaxStep = 0
		if cost.Scalable && cost.Step > 0 && cost.Max > cost.Value {
			cost.MaxStep = (cost.Max - cost.Value) / cost.Step
		}
		out[i] = cost
	}
	return out
}

// RealCosts drops disabled costs and merges those drawing on the same
// resource with the same consumption timing.
func RealCosts(costs []Cost) []Cost {
	type mergeKey struct {
		resource  string
		onSuccess bool
	}

	merged := make(map[mergeKey]*Cost)
	order := make([]mergeKey, 0, len(costs))
	for _, cost := range costs {
		if !cost.Enabled {
			continue
		}
		k := mergeKey{resource: cost.resourceKey(), onSuccess: cost.ConsumeOnSuccess}
		if existing, ok := merged[k]; ok {
			existing.Total += cost.Total
			continue
		}
		c := cost
		merged[k] = &c
		order = append(order, k)
	}

	out := make([]Cost, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	return out
}

// HasCost reports whether every enabled cost is affordable. It never mutates.
// Resources the actor does not have are ignored.
func (l *Ledger) HasCost(ctx context.Context, actor *entities.Actor, costs []Cost) (bool, error) {
	resources, err := l.GetResources(ctx, actor, costs)
	if err != nil {
		return false, err
	}

	// Totals are summed per resource regardless of timing.
	totals := make(map[string]int)
	fear, spendsFear := 0, false
	for _, cost := range RealCosts(CalcCosts(resources, costs)) {
		if cost.isFear() {
			fear += cost.Total
			spendsFear = true
			continue
		}
		totals[cost.resourceKey()] += cost.Total
	}

	if spendsFear {
		if !l.authority.IsAuthority(ctx) {
			return false, nil
		}
		if pool, ok := resources[entities.ResourceFear]; ok && fear > pool.Value {
			return false, nil
		}
	}

	for key, total := range totals {
		res, ok := resources[key]
		if !ok {
			continue
		}
		if res.IsReversed {
			if res.Value+total > res.Max {
				return false, nil
			}
			continue
		}
		if res.Value < total {
			return false, nil
		}
	}
	return true, nil
}

// Selected filters costs for a consumption pass. successOnly keeps only the
// success-contingent costs; otherwise it keeps the unconditional costs plus
// the success-contingent ones when the roll already succeeded.
func Selected(costs []Cost, successOnly, rollSucceeded bool) []Cost {
	out := make([]Cost, 0, len(costs))
	for _, cost := range costs {
		if successOnly {
			if cost.ConsumeOnSuccess {
				out = append(out, cost)
			}
			continue
		}
		if !cost.ConsumeOnSuccess || rollSucceeded {
			out = append(out, cost)
		}
	}
	return out
}

// Execute consumes the selected costs from actor. Normal resources drop by
// the cost total, reversed ones climb by it.
func (l *Ledger) Execute(ctx context.Context, actor *entities.Actor, costs []Cost, successOnly, rollSucceeded bool) ([]Update, error) {
	resources, err := l.GetResources(ctx, actor, costs)
	if err != nil {
		return nil, err
	}

	selected := RealCosts(Selected(CalcCosts(resources, costs), successOnly, rollSucceeded))
	updates := make([]Update, 0, len(selected))
	for _, cost := range selected {
		if cost.Total == 0 {
			continue
		}
		res, ok := resources[cost.resourceKey()]
		if !ok {
			continue
		}
		delta := -cost.Total
		if res.IsReversed {
			delta = cost.Total
		}
		updates = append(updates, Update{
			ActorUUID: actor.UUID,
			Key:       cost.Key,
			ItemUUID:  cost.ItemUUID,
			Value:     delta,
		})
	}

	if err := l.ApplyUpdates(ctx, updates); err != nil {
		return nil, err
	}
	l.logger.Debug("costs consumed", "actor", actor.UUID, "updates", len(updates), "success_only", successOnly)
	return updates, nil
}

// ApplyUpdates applies signed deltas. Fear goes through the relay, actor
// and item resources are patched directly and clamped on write.
func (l *Ledger) ApplyUpdates(ctx context.Context, updates []Update) error {
	fear := 0
	perActor := make(map[string][]Update)
	for _, u := range updates {
		if u.isFear() {
			fear += u.Value
			continue
		}
		perActor[u.ActorUUID] = append(perActor[u.ActorUUID], u)
	}

	if fear != 0 {
		if err := l.UpdateFear(ctx, fear); err != nil {
			return err
		}
	}

	actorUUIDs := make([]string, 0, len(perActor))
	for uuid := range perActor {
		actorUUIDs = append(actorUUIDs, uuid)
	}
	sort.Strings(actorUUIDs)

	for _, uuid := range actorUUIDs {
		actor, err := l.actors.Get(ctx, uuid)
		if err != nil {
			return dherr.Wrapf(err, "failed to load actor %s for resource update", uuid)
		}
		p, err := buildPatch(actor, perActor[uuid])
		if err != nil {
			return err
		}
		if len(p) == 0 {
			continue
		}
		if _, err := l.actors.Update(ctx, uuid, p); err != nil {
			return dherr.Wrapf(err, "failed to update resources on %s", uuid)
		}
	}
	return nil
}

// UpdateFear shifts the campaign fear pool through the authoritative participant
func (l *Ledger) UpdateFear(ctx context.Context, delta int) error {
	return l.authority.Execute(ctx, relay.OpFearUpdate, FearDelta{CampaignID: l.campaignID, Delta: delta}, nil)
}

// FearHandler applies fear.update on the authoritative participant
func (l *Ledger) FearHandler() relay.Handler {
	return func(ctx context.Context, req relay.Request) (any, error) {
		var delta FearDelta
		if err := req.Decode(&delta); err != nil {
			return nil, err
		}
		if delta.CampaignID == "" {
			delta.CampaignID = l.campaignID
		}
		campaign, err := l.campaigns.Get(ctx, delta.CampaignID)
		if err != nil {
			return nil, err
		}
		updated, err := l.campaigns.Update(ctx, delta.CampaignID,
			patch.New().Set("fear.value", campaign.Fear.Value+delta.Delta))
		if err != nil {
			return nil, err
		}
		l.logger.Info("fear updated", "campaign", delta.CampaignID, "delta", delta.Delta, "value", updated.Fear.Value)
		return updated.Fear, nil
	}
}

func buildPatch(actor *entities.Actor, updates []Update) (patch.Patch, error) {
	p := patch.New()
	values := make(map[string]int)

	for _, u := range updates {
		if u.Value == 0 {
			continue
		}
		if u.ItemUUID == "" {
			res, ok := actor.Resources[u.Key]
			if !ok || res == nil {
				continue
			}
			path := "resources." + u.Key + ".value"
			current, seen := values[path]
			if !seen {
				current = res.Value
			}
			values[path] = current + u.Value
			continue
		}

		itemID, item, ok := findItem(actor, u.ItemUUID)
		if !ok {
			return nil, dherr.NotFoundf("item %s not found on %s", u.ItemUUID, actor.UUID)
		}
		switch u.Key {
		case entities.ItemCostQuantity:
			path := "items." + itemID + ".quantity"
			current, seen := values[path]
			if !seen {
				current = item.Quantity
			}
			values[path] = current + u.Value
		case entities.ItemCostUses:
			if item.Uses == nil {
				continue
			}
			path := "items." + itemID + ".uses.value"
			current, seen := values[path]
			if !seen {
				current = item.Uses.Value
			}
			values[path] = current + u.Value
		default:
			return nil, dherr.Authoringf("item cost key %q is not quantity or uses", u.Key)
		}
	}

	for path, v := range values {
		p.Set(path, v)
	}
	return p, nil
}

func findItem(actor *entities.Actor, ref string) (string, *entities.Item, bool) {
	if item, ok := actor.Items[ref]; ok {
		return ref, item, true
	}
	for id, item := range actor.Items {
		if item.UUID == ref {
			return id, item, true
		}
	}
	return "", nil, false
}
