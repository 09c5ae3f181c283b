package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/finsim/internal/solver"
)

// Drop records a grid cell that produced no equilibrium.
type Drop struct {
	Cell   Cell   `json:"cell"`
	Reason string `json:"reason"`
}

// Dataset is the tabular result of a sweep. Records and Dropped both follow
// grid order.
type Dataset struct {
	Records   []solver.Record `json:"records"`
	Dropped   []Drop          `json:"dropped,omitempty"`
	Attempted int             `json:"attempted"`
}

// Columns returns the dataset as named columns in record order.
func (d *Dataset) Columns() map[string][]float64 {
	cols := map[string][]float64{
		"mass":       make([]float64, len(d.Records)),
		"speed":      make([]float64, len(d.Records)),
		"freq":       make([]float64, len(d.Records)),
		"trim":       make([]float64, len(d.Records)),
		"amp":        make([]float64, len(d.Records)),
		"power":      make([]float64, len(d.Records)),
		"efficiency": make([]float64, len(d.Records)),
	}
	for i, r := range d.Records {
		cols["mass"][i] = r.Mass
		cols["speed"][i] = r.Speed
		cols["freq"][i] = r.Freq
		cols["trim"][i] = r.TrimDeg
		cols["amp"][i] = r.AmpM
		cols["power"][i] = r.PowerW
		cols["efficiency"][i] = r.EfficiencyWPerKg
	}
	return cols
}

// ColumnOrder is the canonical column order of a dataset table.
var ColumnOrder = []string{"mass", "speed", "freq", "trim", "amp", "power", "efficiency"}

type Runner struct {
	solver   *solver.Solver
	workers  int
	logger   *zap.Logger
	progress func(done, total int)
}

type Option func(*Runner)

// WithWorkers bounds the number of cells solved at once. Values below one
// fall back to sequential solving.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress registers a callback invoked after every solved cell. Calls
// are serialized.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Runner) { r.progress = fn }
}

func NewRunner(s *solver.Solver, opts ...Option) *Runner {
	if s == nil {
		s = solver.New()
	}
	r := &Runner{solver: s, workers: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run solves every cell of the grid. A numeric fault in any cell aborts the
// sweep and is returned; cancelled contexts return ctx.Err().
func (r *Runner) Run(ctx context.Context, grid Grid) (*Dataset, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	cells := grid.Cells()
	results := make([]solver.Outcome, len(cells))

	start := time.Now()
	r.logger.Info("sweep started",
		zap.String("op", "sweep"),
		zap.Int("cells", len(cells)),
		zap.Int("workers", r.workers))

	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		if r.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		r.progress(done, len(cells))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, c := range cells {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := r.solver.SolveDetailed(c.Speed, c.Mass, c.Freq)
			if err != nil {
				return fmt.Errorf("cell %s: %w", c, err)
			}
			results[i] = out
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error("sweep aborted", zap.String("op", "sweep"), zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds := &Dataset{Attempted: len(cells)}
	for i, res := range results {
		if res.OK {
			ds.Records = append(ds.Records, res.Record)
			continue
		}
		ds.Dropped = append(ds.Dropped, Drop{Cell: cells[i], Reason: res.Reason})
		r.logger.Debug("cell dropped",
			zap.String("op", "sweep"),
			zap.String("cell", cells[i].String()),
			zap.String("reason", res.Reason),
			zap.Int("evals", res.Evals))
	}

	r.logger.Info("sweep finished",
		zap.String("op", "sweep"),
		zap.Int("records", len(ds.Records)),
		zap.Int("dropped", len(ds.Dropped)),
		zap.Duration("elapsed", time.Since(start)))
	return ds, nil
}
