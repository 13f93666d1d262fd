// Package planner assigns cargo units to trucks.
//
// The packing is first-fit decreasing by weight then volume. Bins track a
// componentwise-max bounding box, so units are assumed to sit side by side
// or stacked within one footprint and weight is usually the binding limit.
// A unit that is not stackable takes a layer of its own: the heights of
// such units add up and the sum must stay within the height envelope.
// It aims for a small, explainable truck count, not an optimal one.
package planner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/trucks"
)

// MaxUnits bounds the unit instances one plan will place. Units past it
// are reported as unplaced.
const MaxUnits = 5000

// group is count identical units of the item at position index in the load.
// Units of one item are adjacent after sorting, so first-fit over a group
// places them exactly as it would one by one.
type group struct {
	item  models.CargoItem
	index int
	count int
}

func (g group) dims() models.Dimensions {
	return models.Dimensions{Length: g.item.Length, Width: g.item.Width, Height: g.item.Height, Weight: g.item.Weight}
}

type placement struct {
	index int
	item  models.CargoItem
}

type bin struct {
	spec   models.TruckSpec
	permit bool
	box    models.Dimensions
	layers float64
	units  int
	loads  []placement
}

// limit is the legal envelope, or the max envelope when the bin was opened
// for a unit that no trailer carries legally.
func (b *bin) limit() models.Dimensions {
	if b.permit {
		return b.spec.Max
	}
	return b.spec.Legal
}

func (b *bin) height() float64 {
	return math.Max(b.box.Height, b.layers)
}

// capacity is how many units of g, up to g.count, the bin can still take.
func (b *bin) capacity(g group) int {
	lim := b.limit()
	d := g.dims()
	if math.Max(b.box.Length, d.Length) > lim.Length ||
		math.Max(b.box.Width, d.Width) > lim.Width ||
		math.Max(b.height(), d.Height) > lim.Height {
		return 0
	}
	n := fitCount(lim.Weight-b.box.Weight, d.Weight, g.count)
	if !g.item.Stackable {
		n = fitCount(lim.Height-b.layers, d.Height, n)
	}
	return n
}

// fitCount is how many items of size each fit in room, at most n.
func fitCount(room, each float64, n int) int {
	if room < 0 {
		return 0
	}
	k := math.Floor(room/each + 1e-9)
	if k < float64(n) {
		return int(k)
	}
	return n
}

func (b *bin) add(g group, n int) {
	d := g.dims()
	b.box.Length = math.Max(b.box.Length, d.Length)
	b.box.Width = math.Max(b.box.Width, d.Width)
	b.box.Height = math.Max(b.box.Height, d.Height)
	b.box.Weight += d.Weight * float64(n)
	if !g.item.Stackable {
		b.layers += d.Height * float64(n)
	}
	b.units += n
	for i := range b.loads {
		if b.loads[i].index == g.index {
			b.loads[i].item.Quantity += n
			return
		}
	}
	item := g.item
	item.Quantity = n
	b.loads = append(b.loads, placement{index: g.index, item: item})
}

// PlanLoads packs the valid items of load across the fixed truck catalog.
func PlanLoads(ctx context.Context, load models.ParsedLoad) (models.LoadPlan, error) {
	return PlanWith(ctx, trucks.Catalog(), load)
}

// PlanWith packs load across the given catalog. It stops with ctx's error
// when ctx is done.
func PlanWith(ctx context.Context, catalog []models.TruckSpec, load models.ParsedLoad) (models.LoadPlan, error) {
	plan := models.LoadPlan{Bins: []models.LoadBin{}, Unplaced: []models.UnplacedUnit{}}

	groups, over := expand(load.Items)
	plan.Unplaced = append(plan.Unplaced, over...)

	var bins []*bin
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return models.LoadPlan{}, err
		}
		for _, b := range bins {
			if n := b.capacity(g); n > 0 {
				b.add(g, n)
				g.count -= n
				if g.count == 0 {
					break
				}
			}
		}
		for g.count > 0 {
			if err := ctx.Err(); err != nil {
				return models.LoadPlan{}, err
			}
			b, ok := open(catalog, g)
			if !ok {
				item := g.item
				item.Quantity = g.count
				plan.Unplaced = append(plan.Unplaced, models.UnplacedUnit{Item: item, Reason: unplacedReason(catalog, g)})
				break
			}
			n := b.capacity(g)
			b.add(g, n)
			g.count -= n
			bins = append(bins, b)
		}
	}

	for i, b := range bins {
		plan.Bins = append(plan.Bins, summarize(i, b))
	}
	plan.TruckCount = len(plan.Bins)
	return plan, nil
}

// expand turns each valid item into a group of quantity units, heaviest
// first, larger volume breaking ties. Units beyond MaxUnits come back as
// unplaced.
func expand(items []models.CargoItem) ([]group, []models.UnplacedUnit) {
	var (
		out   []group
		over  []models.UnplacedUnit
		total int
	)
	for i, item := range items {
		if !item.Valid() {
			continue
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		take := qty
		if room := MaxUnits - total; take > room {
			take = room
		}
		if rest := qty - take; rest > 0 {
			extra := item
			extra.Quantity = rest
			over = append(over, models.UnplacedUnit{Item: extra, Reason: fmt.Sprintf("exceeds the planning limit of %d units", MaxUnits)})
		}
		if take == 0 {
			continue
		}
		total += take
		single := item
		single.Quantity = 1
		out = append(out, group{item: single, index: i, count: take})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].item.Weight != out[j].item.Weight {
			return out[i].item.Weight > out[j].item.Weight
		}
		return out[i].item.Volume() > out[j].item.Volume()
	})
	return out, over
}

// open picks the tightest legal trailer for one unit of g, falling back to
// the least-exceeded permit-required one.
func open(catalog []models.TruckSpec, g group) (*bin, bool) {
	for _, rec := range trucks.Rank(catalog, g.dims()) {
		switch rec.Fit {
		case models.FitLegal:
			return &bin{spec: rec.Truck}, true
		case models.FitPermitRequired:
			return &bin{spec: rec.Truck, permit: true}, true
		}
	}
	return nil, false
}

func unplacedReason(catalog []models.TruckSpec, g group) string {
	if len(catalog) == 0 {
		return "no trucks available"
	}
	exceeded := map[string]bool{}
	var names []string
	for _, spec := range catalog {
		for _, dim := range g.dims().Exceeded(spec.Max) {
			if !exceeded[dim] {
				exceeded[dim] = true
				names = append(names, dim)
			}
		}
	}
	return fmt.Sprintf("exceeds the max envelope of every truck (%s)", strings.Join(names, ", "))
}

func summarize(index int, b *bin) models.LoadBin {
	out := models.LoadBin{
		Index:          index,
		Truck:          b.spec,
		Items:          make([]models.CargoItem, 0, len(b.loads)),
		UnitCount:      b.units,
		TotalWeight:    b.box.Weight,
		Length:         b.box.Length,
		Width:          b.box.Width,
		Height:         b.height(),
		PermitRequired: b.permit,
	}
	if lim := b.limit().Weight; lim > 0 {
		out.Utilization = math.Round(b.box.Weight/lim*1000) / 10
	}
	for _, p := range b.loads {
		out.Items = append(out.Items, p.item)
	}
	return out
}
