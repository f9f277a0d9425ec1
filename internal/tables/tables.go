// Package tables draws from roll tables. A row may point at another table,
// which is drawn in turn up to MaxDepth levels deep.
package tables

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/formula"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	repo "github.com/KirkDiggler/dh-automation/internal/repositories/tables"
)

// MaxDepth caps nested table draws
const MaxDepth = 10

// Drawn is one selected row
type Drawn struct {
	TableID string `json:"tableId"`
	Roll    int    `json:"roll"`
	Text    string `json:"text"`
	Depth   int    `json:"depth"`
}

// Draw is the outcome of drawing from a table, nested rows included in the
// order they were drawn.
type Draw struct {
	TableID string  `json:"tableId"`
	Results []Drawn `json:"results"`
}

// Texts returns the text of every leaf row
func (d *Draw) Texts() []string {
	out := make([]string, 0, len(d.Results))
	for _, r := range d.Results {
		if r.Text != "" {
			out = append(out, r.Text)
		}
	}
	return out
}

// DrawPayload is the table.draw request
type DrawPayload struct {
	TableID string `json:"tableId"`
}

// Authority runs operations on the authoritative participant
type Authority interface {
	Execute(ctx context.Context, operation string, payload any, result any) error
}

// DrawerConfig holds drawer dependencies
type DrawerConfig struct {
	Tables    repo.Repository
	Roller    dice.Roller
	Authority Authority
	MaxDepth  int
	Logger    *slog.Logger
}

// Drawer draws from stored tables
type Drawer struct {
	tables    repo.Repository
	roller    dice.Roller
	authority Authority
	maxDepth  int
	logger    *slog.Logger
}

// NewDrawer creates a drawer
func NewDrawer(cfg *DrawerConfig) *Drawer {
	if cfg.Tables == nil || cfg.Roller == nil {
		panic("table repository and roller are required")
	}
	d := &Drawer{
		tables:    cfg.Tables,
		roller:    cfg.Roller,
		authority: cfg.Authority,
		maxDepth:  cfg.MaxDepth,
		logger:    cfg.Logger,
	}
	if d.maxDepth <= 0 {
		d.maxDepth = MaxDepth
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Draw rolls on tableID locally
func (d *Drawer) Draw(ctx context.Context, tableID string) (*Draw, error) {
	out := &Draw{TableID: tableID}
	if err := d.draw(ctx, tableID, 0, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DrawShared draws on the authoritative participant so every participant
// sees the same result.
func (d *Drawer) DrawShared(ctx context.Context, tableID string) (*Draw, error) {
	if d.authority == nil {
		return d.Draw(ctx, tableID)
	}
	var out Draw
	if err := d.authority.Execute(ctx, relay.OpTableDraw, DrawPayload{TableID: tableID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Handler serves table.draw on the authoritative participant
func (d *Drawer) Handler() relay.Handler {
	return func(ctx context.Context, req relay.Request) (any, error) {
		var payload DrawPayload
		if err := req.Decode(&payload); err != nil {
			return nil, err
		}
		return d.Draw(ctx, payload.TableID)
	}
}

func (d *Drawer) draw(ctx context.Context, tableID string, depth int, out *Draw) error {
	if depth >= d.maxDepth {
		return dherr.DepthExceededf("table draw exceeded %d nested levels at %s", d.maxDepth, tableID).
			WithMeta("table", tableID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	table, err := d.tables.Get(ctx, tableID)
	if err != nil {
		return err
	}
	result, err := formula.Evaluate(table.Formula, d.roller, nil)
	if err != nil {
		return dherr.Wrapf(err, "table %s", tableID)
	}

	row, ok := table.Result(result.Total)
	if !ok {
		d.logger.Warn("table roll matched no row", "table", tableID, "roll", result.Total)
		return nil
	}

	out.Results = append(out.Results, Drawn{TableID: tableID, Roll: result.Total, Text: row.Text, Depth: depth})
	if row.TableID != "" {
		return d.draw(ctx, row.TableID, depth+1, out)
	}
	return nil
}
