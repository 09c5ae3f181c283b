package solver_test

import (
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/solver"
)

var _ = Describe("Solve", func() {
	Context("at 70 kg, 16 km/h, 1.4 Hz", func() {
		var (
			rec solver.Record
			ok  bool
		)

		BeforeEach(func() {
			var err error
			rec, ok, err = solver.Solve(16, 70, 1.4)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns an admissible record", func() {
			Expect(ok).To(BeTrue())
			Expect(rec.Mass).To(Equal(70.0))
			Expect(rec.Speed).To(Equal(16.0))
			Expect(rec.Freq).To(Equal(1.4))
			Expect(rec.AmpM).To(And(BeNumerically(">", solver.AdmitAmpMin), BeNumerically("<", solver.AdmitAmpMax)))
			Expect(math.Abs(rec.TrimDeg)).To(BeNumerically("<", solver.AdmitTrimMax))
			Expect(rec.PowerW).To(BeNumerically(">", 0))
			Expect(rec.EfficiencyWPerKg).To(BeNumerically("~", rec.PowerW/70, 1e-12))
		})

		It("balances weight and thrust when re-simulated", func() {
			Expect(ok).To(BeTrue())
			p := solver.New().Params(rec)
			res := hydro.Simulate(p, hydro.DefaultSteps)
			weight := 70 * hydro.Gravity
			Expect(res.Lift).To(BeNumerically("~", weight, weight*1e-3))
			Expect(res.Thrust).To(BeNumerically("~", 0, 0.5))
			Expect(res.Power).To(Equal(rec.PowerW))
		})
	})

	It("handles 100 kg, 14 km/h, 1.2 Hz without error", func() {
		rec, ok, err := solver.Solve(14, 100, 1.2)
		Expect(err).NotTo(HaveOccurred())
		if ok {
			Expect(rec.AmpM).To(And(BeNumerically(">", solver.AdmitAmpMin), BeNumerically("<", solver.AdmitAmpMax)))
			Expect(math.Abs(rec.TrimDeg)).To(BeNumerically("<", solver.AdmitTrimMax))
		} else {
			Expect(rec).To(Equal(solver.Record{}))
		}
	})

	It("drops a mass the wing cannot carry", func() {
		rec, ok, err := solver.Solve(16, 5000, 1.4)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(rec).To(Equal(solver.Record{}))

		out, err := solver.New().SolveDetailed(16, 5000, 1.4)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.OK).To(BeFalse())
		Expect(out.Reason).NotTo(BeEmpty())
	})

	It("gives identical records for concurrent solves of the same cell", func() {
		s := solver.New()
		want, wantOK, err := s.Solve(16, 70, 1.4)
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		got := make([]solver.Record, 8)
		oks := make([]bool, 8)
		for i := range got {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got[i], oks[i], _ = s.Solve(16, 70, 1.4)
			}(i)
		}
		wg.Wait()

		for i := range got {
			Expect(oks[i]).To(Equal(wantOK))
			Expect(got[i]).To(Equal(want))
		}
	})

	It("honours a custom sample count", func() {
		s := solver.New(solver.WithSteps(60))
		rec, ok, err := s.Solve(16, 70, 1.4)
		Expect(err).NotTo(HaveOccurred())
		if ok {
			res := hydro.Simulate(s.Params(rec), 60)
			Expect(res.Power).To(Equal(rec.PowerW))
		}
	})

	It("surfaces numeric faults as errors", func() {
		base := hydro.DefaultParams(0, 0, solver.WingAreaCm2, 0)
		base.AspectRatio = math.NaN()
		s := solver.New(solver.WithBase(base))
		_, ok, err := s.Solve(16, 70, 1.4)
		Expect(err).To(MatchError(solver.ErrNonFinite))
		Expect(ok).To(BeFalse())
	})
	It("drops the cell when the evaluation budget runs out", func() {
		settings := solver.DefaultSettings()
		settings.MaxEvals = 3
		s := solver.New(solver.WithSettings(settings))
		out, err := s.SolveDetailed(16, 70, 1.4)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.OK).To(BeFalse())
		Expect(out.Status).To(Equal(solver.EvaluationLimit))
		Expect(out.Reason).To(HavePrefix("not converged"))
	})
})
