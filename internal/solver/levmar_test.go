package solver_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/finsim/internal/solver"
)

func rosenbrock(dst, x []float64) {
	dst[0] = 10 * (x[1] - x[0]*x[0])
	dst[1] = 1 - x[0]
}

var _ = Describe("LevenbergMarquardt", func() {
	It("finds the Rosenbrock minimum from the classic start", func() {
		res, err := solver.LevenbergMarquardt(solver.Problem{M: 2, N: 2, Func: rosenbrock}, []float64{-1.2, 1}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status.Converged()).To(BeTrue())
		Expect(res.X[0]).To(BeNumerically("~", 1, 1e-6))
		Expect(res.X[1]).To(BeNumerically("~", 1, 1e-6))
		Expect(res.Cost()).To(BeNumerically("<", 1e-12))
	})

	It("matches the linear least-squares solution of an overdetermined system", func() {
		a := mat.NewDense(4, 2, []float64{
			1, 1,
			1, 2,
			1, 3,
			1, 4,
		})
		b := mat.NewVecDense(4, []float64{6, 5, 7, 10})
		var want mat.Dense
		Expect(want.Solve(a, b)).To(Succeed())

		f := func(dst, x []float64) {
			for i := range dst {
				dst[i] = a.At(i, 0)*x[0] + a.At(i, 1)*x[1] - b.AtVec(i)
			}
		}
		res, err := solver.LevenbergMarquardt(solver.Problem{M: 4, N: 2, Func: f}, []float64{0, 0}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.X[0]).To(BeNumerically("~", want.At(0, 0), 1e-5))
		Expect(res.X[1]).To(BeNumerically("~", want.At(1, 0), 1e-5))
	})

	It("reports gradient convergence on a flat residual", func() {
		flat := func(dst, _ []float64) {
			dst[0], dst[1] = 1e3, 1e3
		}
		res, err := solver.LevenbergMarquardt(solver.Problem{M: 2, N: 2, Func: flat}, []float64{2, 0.15}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(solver.GradientConvergence))
		Expect(res.X).To(Equal([]float64{2, 0.15}))
		Expect(res.Evals).To(Equal(3))
	})

	It("stops at the evaluation limit", func() {
		settings := solver.DefaultSettings()
		settings.MaxEvals = 3
		res, err := solver.LevenbergMarquardt(solver.Problem{M: 2, N: 2, Func: rosenbrock}, []float64{-1.2, 1}, &settings)
		Expect(err).To(MatchError(solver.ErrMaxEvaluations))
		Expect(res.Status).To(Equal(solver.EvaluationLimit))
		Expect(res.Status.Converged()).To(BeFalse())
	})

	It("rejects mismatched dimensions", func() {
		_, err := solver.LevenbergMarquardt(solver.Problem{M: 2, N: 2, Func: rosenbrock}, []float64{1}, nil)
		Expect(err).To(MatchError(solver.ErrDimension))

		_, err = solver.LevenbergMarquardt(solver.Problem{M: 1, N: 2, Func: rosenbrock}, []float64{1, 1}, nil)
		Expect(err).To(MatchError(solver.ErrDimension))
	})

	It("propagates non-finite residuals", func() {
		bad := func(dst, x []float64) {
			dst[0] = math.Log(x[0])
			dst[1] = x[1]
		}
		_, err := solver.LevenbergMarquardt(solver.Problem{M: 2, N: 2, Func: bad}, []float64{-1, 0}, nil)
		Expect(err).To(MatchError(solver.ErrNonFinite))
	})

	DescribeTable("status names",
		func(s solver.Status, name string, converged bool) {
			Expect(s.String()).To(Equal(name))
			Expect(s.Converged()).To(Equal(converged))
		},
		Entry("ftol", solver.FunctionConvergence, "ftol", true),
		Entry("xtol", solver.StepConvergence, "xtol", true),
		Entry("both", solver.FunctionAndStepConvergence, "ftol+xtol", true),
		Entry("gtol", solver.GradientConvergence, "gtol", true),
		Entry("limit", solver.EvaluationLimit, "max evaluations", false),
		Entry("stalled", solver.Stalled, "stalled", false),
		Entry("unset", solver.NotTerminated, "not terminated", false),
	)
})
