package loadgen

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/validate"
)

// Generator produces hierarchical record sets. It is not safe for
// concurrent use.
type Generator struct {
	rng           *rand.Rand
	base          time.Time
	invalidRatio  float64
	danglingRatio float64
}

// NewGenerator creates a generator. A zero seed picks one from the clock.
func NewGenerator(seed uint64, invalidRatio, danglingRatio float64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		rng:           rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		base:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		invalidRatio:  invalidRatio,
		danglingRatio: danglingRatio,
	}
}

// Batch returns n records. Roughly rootShare of them are roots; the rest
// point at an earlier root, or at an absent id with danglingRatio
// probability. Timestamps alternate between epoch milliseconds and
// RFC 3339 strings.
func (g *Generator) Batch(n int) []model.Record {
	records := make([]model.Record, 0, n)
	var roots []string
	for i := 0; i < n; i++ {
		rec := model.Record{ID: uuid.NewString()}

		switch {
		case len(roots) == 0 || g.rng.Float64() < rootShare:
			rec.DisplayName = "Project " + rec.ID[:8]
			roots = append(roots, rec.ID)
		case g.rng.Float64() < g.danglingRatio:
			rec.ParentID = uuid.NewString()
		default:
			rec.ParentID = roots[g.rng.IntN(len(roots))]
			rec.RowLabel = "<b>Task</b> " + rec.ID[:8]
		}

		start := g.base.Add(time.Duration(g.rng.Int64N(int64(horizon))))
		end := start.Add(time.Duration(g.rng.Int64N(int64(maxSpan))))
		if g.rng.IntN(2) == 0 {
			rec.Start, rec.End = start.UnixMilli(), end.UnixMilli()
		} else {
			rec.Start, rec.End = start.Format(time.RFC3339), end.Format(time.RFC3339)
		}
		rec.SortKey = g.rng.IntN(n)

		if g.rng.Float64() < g.invalidRatio {
			g.corrupt(&rec)
		}
		records = append(records, rec)
	}
	return records
}

func (g *Generator) corrupt(rec *model.Record) {
	switch g.rng.IntN(3) {
	case 0:
		rec.Start = nil
	case 1:
		rec.End = "not a date"
	default:
		rec.Start, rec.End = rec.End, rec.Start
		if rec.Start == rec.End {
			rec.End = nil
		}
	}
}

// Expectation is what a correct transform of a record set yields.
type Expectation struct {
	Rows    int
	Groups  int
	Valid   int
	Dropped int
}

// Expect derives the row count and drop count for records: one row per
// valid record plus one group row for each present parent with at least
// one valid child.
func Expect(records []model.Record) Expectation {
	v := validate.New()
	present := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID != "" {
			present[r.ID] = struct{}{}
		}
	}

	var exp Expectation
	groups := make(map[string]struct{})
	for _, r := range records {
		if r.ID == "" {
			exp.Dropped++
			continue
		}
		if _, reason := v.Interval(r.Start, r.End); reason != validate.ReasonNone {
			exp.Dropped++
			continue
		}
		exp.Valid++
		if r.ParentID == "" {
			continue
		}
		if _, ok := present[r.ParentID]; ok {
			groups[r.ParentID] = struct{}{}
		}
	}
	exp.Groups = len(groups)
	exp.Rows = exp.Valid + exp.Groups
	return exp
}
