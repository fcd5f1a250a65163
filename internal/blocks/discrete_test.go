package blocks_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/sim"
)

var _ = Describe("Timer", func() {
	DescribeTable("wraps around after its maximum",
		func(maximum int, period float64, laps int) {
			out := dynamo.NewSignal("count")
			timer, err := blocks.NewTimer("timer", out, maximum, 0)
			Expect(err).NotTo(HaveOccurred())
			solver, err := sim.NewSolver([]dynamo.Block{timer}, nil, period)
			Expect(err).NotTo(HaveOccurred())

			Expect(solver.Solve()).To(Succeed())
			counter := 0
			for lap := 0; lap < laps; lap++ {
				for want := 0; want <= maximum; want++ {
					Expect(solver.Output(timer)[out]).To(Equal(float64(want)))
					Expect(solver.Counter()).To(Equal(counter))
					Expect(solver.Update()).To(Succeed())
					Expect(solver.Solve()).To(Succeed())
					counter++
				}
			}
		},
		Entry("maximum 10", 10, 0.125, 100),
		Entry("maximum 1", 1, 0.1, 100),
		Entry("maximum 0", 0, 0.1, 100),
		Entry("maximum 1234", 1234, 0.125, 10),
	)

	It("rejects a negative maximum", func() {
		_, err := blocks.NewTimer("timer", dynamo.NewSignal("count"), -1, 0)
		Expect(err).To(MatchError(dynamo.ErrMalformedBlock))
	})

	It("cannot be integrated", func() {
		timer, err := blocks.NewTimer("timer", dynamo.NewSignal("count"), 3, 0)
		Expect(err).NotTo(HaveOccurred())
		_, err = timer.Derivative(timer.InitialCondition(), nil)
		Expect(err).To(MatchError(dynamo.ErrMissingDerivativeMapping))
	})
})

var _ = Describe("ZeroOrderHold", func() {
	It("outputs the input of the previous update", func() {
		in, out := dynamo.NewSignal("u"), dynamo.NewSignal("y")
		zoh, err := blocks.NewZeroOrderHold("zoh", in, out, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(zoh.InputRequired()).To(BeFalse())

		solver, err := sim.NewSolver([]dynamo.Block{zoh}, nil, 0.125)
		Expect(err).NotTo(HaveOccurred())

		inputs := []float64{0, 0, 1, 2, -1.1, 0}
		want := []float64{0, 0, 0, 1, 2, -1.1}
		for n := range inputs {
			if n > 0 {
				Expect(solver.Update()).To(Succeed())
			}
			Expect(solver.Solve()).To(Succeed())
			Expect(solver.SetInput(zoh, in, inputs[n])).To(Succeed())
			Expect(solver.Output(zoh)[out]).To(Equal(want[n]), "cycle %d", n)
		}
	})

	It("fails to update without an input", func() {
		in, out := dynamo.NewSignal("u"), dynamo.NewSignal("y")
		zoh, err := blocks.NewZeroOrderHold("zoh", in, out, 0)
		Expect(err).NotTo(HaveOccurred())
		solver, err := sim.NewSolver([]dynamo.Block{zoh}, nil, 0.1)
		Expect(err).NotTo(HaveOccurred())

		Expect(solver.Solve()).To(Succeed())
		Expect(solver.Update()).To(MatchError(dynamo.ErrMissingSignal))
	})
})

var _ = Describe("Clock", func() {
	It("tracks simulation time at its own period", func() {
		out := dynamo.NewSignal("t")
		clock, err := blocks.NewClock("clock", out, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(settle(clock, dynamo.Signal{}, out, 0, 0.01, 150)).To(BeNumerically("~", 1.5, 1e-9))
	})
})
