package blocks_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/dynamo"
)

var _ = Describe("Function", func() {
	var in, out dynamo.Signal

	BeforeEach(func() {
		in = dynamo.NewSignal("u")
		out = dynamo.NewSignal("y")
	})

	evaluate := func(fn blocks.Func, u float64) float64 {
		f, err := blocks.NewFunction("f", in, out, fn)
		Expect(err).NotTo(HaveOccurred())
		y, err := f.Output(dynamo.Bus{in: u})
		Expect(err).NotTo(HaveOccurred())
		return y[out]
	}

	DescribeTable("scales",
		func(k, u, want float64) {
			Expect(evaluate(blocks.Scale(k), u)).To(BeNumerically("~", want, 1e-12))
		},
		Entry(nil, 10.0, 1.0, 10.0),
		Entry(nil, 10.0, 0.1, 1.0),
		Entry(nil, 0.5, 10.0, 5.0),
		Entry(nil, 0.5, 0.5, 0.25),
	)

	DescribeTable("takes the absolute value",
		func(u, want float64) {
			Expect(evaluate(blocks.Abs(), u)).To(Equal(want))
		},
		Entry(nil, 0.0, 0.0),
		Entry(nil, -0.1, 0.1),
		Entry(nil, 1000.0, 1000.0),
		Entry(nil, -1923.1202, 1923.1202),
	)

	DescribeTable("evaluates sine and cosine",
		func(u, sin, cos float64) {
			Expect(evaluate(blocks.Sin(), u)).To(BeNumerically("~", sin, 1e-12))
			Expect(evaluate(blocks.Cos(), u)).To(BeNumerically("~", cos, 1e-12))
		},
		Entry(nil, 0.0, 0.0, 1.0),
		Entry(nil, math.Pi/2, 1.0, 0.0),
		Entry(nil, math.Pi/4, math.Sqrt2/2, math.Sqrt2/2),
		Entry(nil, math.Pi, 0.0, -1.0),
		Entry(nil, 3*math.Pi/2, -1.0, 0.0),
	)

	DescribeTable("saturates",
		func(u, want float64) {
			Expect(evaluate(blocks.Saturation(10), u)).To(Equal(want))
		},
		Entry(nil, 0.0, 0.0),
		Entry(nil, 9.999, 9.999),
		Entry(nil, 10.0, 10.0),
		Entry(nil, 10.1, 10.0),
		Entry(nil, 14341.0, 10.0),
		Entry(nil, -5.1, -5.1),
		Entry(nil, -53.0, -10.0),
	)

	It("generates time signals", func() {
		Expect(evaluate(blocks.Step(1, 5), 0.99)).To(Equal(0.0))
		Expect(evaluate(blocks.Step(1, 5), 1)).To(Equal(5.0))
		Expect(evaluate(blocks.Ramp(1), 3)).To(Equal(2.0))
		Expect(evaluate(blocks.Square(-1, 1, 2), 0.5)).To(Equal(-1.0))
		Expect(evaluate(blocks.Square(-1, 1, 2), 1.5)).To(Equal(1.0))
	})

	It("reports a missing input", func() {
		f, err := blocks.NewFunction("f", in, out, blocks.Abs())
		Expect(err).NotTo(HaveOccurred())
		_, err = f.Output(dynamo.Bus{})
		Expect(err).To(MatchError(dynamo.ErrMissingSignal))
	})

	It("rejects a nil function", func() {
		_, err := blocks.NewFunction("f", in, out, nil)
		Expect(err).To(MatchError(dynamo.ErrMalformedBlock))
	})
})

var _ = Describe("Gain, Sum and Constant", func() {
	It("combine inputs linearly", func() {
		a, b, y := dynamo.NewSignal("a"), dynamo.NewSignal("b"), dynamo.NewSignal("y")

		g, err := blocks.NewGain("g", a, y, -2)
		Expect(err).NotTo(HaveOccurred())
		out, err := g.Output(dynamo.Bus{a: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(out[y]).To(Equal(-6.0))

		s, err := blocks.NewSum("s", y, []dynamo.Signal{a, b}, []float64{1, -1})
		Expect(err).NotTo(HaveOccurred())
		out, err = s.Output(dynamo.Bus{a: 3, b: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(out[y]).To(Equal(-2.0))

		c, err := blocks.NewConstant("c", y, 4)
		Expect(err).NotTo(HaveOccurred())
		out, err = c.Output(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out[y]).To(Equal(4.0))
	})

	It("rejects mismatched signs", func() {
		a, y := dynamo.NewSignal("a"), dynamo.NewSignal("y")
		_, err := blocks.NewSum("s", y, []dynamo.Signal{a}, []float64{1, 1})
		Expect(err).To(MatchError(dynamo.ErrMalformedBlock))
	})
})
