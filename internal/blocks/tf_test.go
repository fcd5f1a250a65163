package blocks_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/dynamo"
)

var _ = Describe("TransferFunction", func() {
	var in, out dynamo.Signal

	BeforeEach(func() {
		in = dynamo.NewSignal("u")
		out = dynamo.NewSignal("y")
	})

	DescribeTable("rejects malformed coefficients",
		func(num, den []float64) {
			_, err := blocks.NewTransferFunction("tf", in, out, num, den, 0)
			Expect(err).To(MatchError(dynamo.ErrMalformedBlock))
		},
		Entry("empty", []float64{}, []float64{}),
		Entry("empty numerator", []float64{}, []float64{1}),
		Entry("empty denominator", []float64{1}, []float64{}),
		Entry("static gain", []float64{1}, []float64{1}),
		Entry("numerator too short", []float64{2, 4, 6}, []float64{3, 5, 7}),
		Entry("numerator too long", []float64{1, 2, 4, 6, 8}, []float64{3, 5, 7}),
	)

	It("accepts a proper third order function", func() {
		tf, err := blocks.NewTransferFunction("tf", in, out, []float64{2, 4, 6, 8}, []float64{3, 5, 7}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(tf.Order()).To(Equal(3))
		Expect(tf.States()).To(HaveLen(3))
		Expect(tf.Derivatives()).To(HaveLen(3))
	})

	DescribeTable("needs the input only with a direct feedthrough term",
		func(num, den []float64, required bool) {
			tf, err := blocks.NewTransferFunction("tf", in, out, num, den, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(tf.InputRequired()).To(Equal(required))
		},
		Entry("biproper", []float64{2, 4, 6, 8}, []float64{3, 5, 7}, true),
		Entry("strictly proper", []float64{0, 4, 6, 8}, []float64{3, 5, 7}, false),
		Entry("integrator", []float64{0, 10}, []float64{0}, false),
		Entry("lag", []float64{0, 10}, []float64{1}, false),
		Entry("washout", []float64{10, 0}, []float64{1}, true),
		Entry("all-pass", []float64{1, -1}, []float64{1}, true),
	)

	It("integrates 10/s into a ramp", func() {
		tf, err := blocks.NewTransferFunction("int", in, out, []float64{0, 10}, []float64{0}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(settle(tf, in, out, 1, 0.01, 100)).To(BeNumerically("~", 10, 1e-9))
	})

	It("reproduces the first order step response", func() {
		tf, err := blocks.NewFirstOrder("lag", in, out, 2, 0.5, 0)
		Expect(err).NotTo(HaveOccurred())
		want := 2 * (1 - math.Exp(-1/0.5))
		Expect(settle(tf, in, out, 1, 0.01, 100)).To(BeNumerically("~", want, 1e-6))
	})

	It("settles a second order system at its static gain", func() {
		tf, err := blocks.NewSecondOrder("servo", in, out, 3, 10, 0.7, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(settle(tf, in, out, 1, 0.01, 300)).To(BeNumerically("~", 3, 1e-3))
	})

	It("passes the input through a biproper function at t=0", func() {
		tf, err := blocks.NewTransferFunction("washout", in, out, []float64{10, 0}, []float64{1}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(settle(tf, in, out, 1, 0.01, 0)).To(BeNumerically("~", 10, 1e-12))
	})

	It("rejects a zero time constant", func() {
		_, err := blocks.NewFirstOrder("lag", in, out, 1, 0, 0)
		Expect(err).To(MatchError(dynamo.ErrMalformedBlock))
	})
})

var _ = Describe("PID", func() {
	It("adds proportional, integral and decayed derivative action", func() {
		in, out := dynamo.NewSignal("e"), dynamo.NewSignal("u")
		pid, err := blocks.NewPID("pid", in, out, 1, 1, 0.1, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(pid.InputRequired()).To(BeTrue())

		// Kp (1 + t/Ti + N exp(-N t / Td)) for a unit error.
		Expect(settle(pid, in, out, 1, 0.001, 0)).To(BeNumerically("~", 11, 1e-9))
		Expect(settle(pid, in, out, 1, 0.001, 2000)).To(BeNumerically("~", 3, 1e-3))
	})

	It("requires positive time constants", func() {
		in, out := dynamo.NewSignal("e"), dynamo.NewSignal("u")
		_, err := blocks.NewPID("pid", in, out, 1, 0, 0.1, 10, 0)
		Expect(err).To(MatchError(dynamo.ErrMalformedBlock))
	})
})
