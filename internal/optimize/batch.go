package optimize

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/finsim/internal/sweep"
)

// Batch is the Cartesian product of rider masses (kg), wing areas (cm²) and
// speeds (km/h) to optimise.
type Batch struct {
	Masses []float64 `json:"masses" yaml:"masses"`
	Areas  []float64 `json:"areas" yaml:"areas"`
	Speeds []float64 `json:"speeds" yaml:"speeds"`
}

func DefaultBatch() Batch {
	return Batch{
		Masses: []float64{70, 80, 90},
		Areas:  []float64{1300, 2000},
		Speeds: sweep.Range(12, 20, 0.5),
	}
}

// Cell is one (mass, area, speed) combination.
type Cell struct {
	Mass  float64
	Area  float64
	Speed float64
}

func (c Cell) String() string {
	return fmt.Sprintf("%.1fkg/%.0fcm2/%.1fkmh", c.Mass, c.Area, c.Speed)
}

func (b Batch) Size() int { return len(b.Masses) * len(b.Areas) * len(b.Speeds) }

// Cells enumerates the batch with mass outermost and speed innermost.
func (b Batch) Cells() []Cell {
	cells := make([]Cell, 0, b.Size())
	for _, m := range b.Masses {
		for _, a := range b.Areas {
			for _, v := range b.Speeds {
				cells = append(cells, Cell{Mass: m, Area: a, Speed: v})
			}
		}
	}
	return cells
}

func (b Batch) Validate() error {
	axes := []struct {
		name string
		vals []float64
	}{
		{"masses", b.Masses},
		{"areas", b.Areas},
		{"speeds", b.Speeds},
	}
	for _, a := range axes {
		if len(a.vals) == 0 {
			return fmt.Errorf("%w: no %s", sweep.ErrEmptyGrid, a.name)
		}
		for _, v := range a.vals {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: %s contains %v", sweep.ErrInvalidGrid, a.name, v)
			}
		}
	}
	return nil
}

type RunOption func(*runOptions)

type runOptions struct {
	workers  int
	logger   *zap.Logger
	progress func(done, total int)
}

// WithWorkers bounds the number of cells searched at once.
func WithWorkers(n int) RunOption {
	return func(r *runOptions) { r.workers = max(n, 1) }
}

func WithLogger(l *zap.Logger) RunOption {
	return func(r *runOptions) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress registers a callback invoked after every finished cell. Calls
// are serialized.
func WithProgress(fn func(done, total int)) RunOption {
	return func(r *runOptions) { r.progress = fn }
}

// Run optimises every cell of the batch and returns the results in cell
// order, invalid ones included.
func (o *Optimizer) Run(ctx context.Context, b Batch, opts ...RunOption) ([]Result, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := o.space.Validate(); err != nil {
		return nil, err
	}
	if err := o.settings.Validate(); err != nil {
		return nil, err
	}
	ro := runOptions{workers: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&ro)
	}

	cells := b.Cells()
	results := make([]Result, len(cells))
	start := time.Now()
	ro.logger.Info("optimization started",
		zap.String("op", "optimize"),
		zap.Int("cells", len(cells)),
		zap.Int("workers", ro.workers),
		zap.String("objective", string(o.settings.Objective)),
		zap.Uint64("seed", o.settings.Seed))

	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		if ro.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		ro.progress(done, len(cells))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ro.workers)
	for i, c := range cells {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := o.Optimize(c.Mass, c.Area, c.Speed)
			if err != nil {
				return fmt.Errorf("cell %s: %w", c, err)
			}
			results[i] = res
			ro.logger.Debug("cell optimized",
				zap.String("op", "optimize"),
				zap.String("cell", c.String()),
				zap.Bool("valid", res.Valid),
				zap.Float64("power_w", res.PowerW),
				zap.Int("evals", res.Evals))
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ro.logger.Error("optimization aborted", zap.String("op", "optimize"), zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	valid := 0
	for _, r := range results {
		if r.Valid {
			valid++
		}
	}
	ro.logger.Info("optimization finished",
		zap.String("op", "optimize"),
		zap.Int("valid", valid),
		zap.Int("invalid", len(results)-valid),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}
