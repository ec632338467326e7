package bldc_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
)

var _ = Describe("Motor", func() {
	var motor *bldc.Motor

	BeforeEach(func() {
		motor = bldc.NewMotor(bldc.DefaultParams())
	})

	Context("with no switch closed", func() {
		It("reconstructs an all-zero voltage vector", func() {
			v, err := motor.Reconstruct(bldc.State{Theta: 1.3, Omega: 200, IU: 0.5}, bldc.Switches{})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(bldc.Voltages{}))
		})

		It("lets each phase current decay against its own back-EMF", func() {
			x := bldc.State{Theta: 0.4, Omega: 150}
			dx, dbg, err := motor.Dynamics(x, 0, bldc.Switches{})
			Expect(err).NotTo(HaveOccurred())

			l := motor.Params.Inductance()
			Expect(dx.IU).To(BeNumerically("~", -dbg.EmfU/l, 1e-9))
			Expect(dx.IV).To(BeNumerically("~", -dbg.EmfV/l, 1e-9))
			Expect(dx.IW).To(BeNumerically("~", -dbg.EmfW/l, 1e-9))
		})
	})

	Context("with only the U low-side switch closed at start-up", func() {
		var (
			x  bldc.State
			sw bldc.Switches
		)

		BeforeEach(func() {
			x = bldc.State{Theta: 0, Omega: 1e-4}
			sw = bldc.Switches{LowU: true}
		})

		It("pins U to ground and references V and W to the star point", func() {
			emf, err := motor.BackEMF(x)
			Expect(err).NotTo(HaveOccurred())

			v, err := motor.Reconstruct(x, sw)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.U).To(BeZero())
			Expect(v.Star).To(Equal(-emf[bldc.PhaseU]))
			Expect(v.V + v.W).To(Equal(2*v.Star + emf[bldc.PhaseV] + emf[bldc.PhaseW]))
		})

		It("reports the voltages in the debug vector", func() {
			_, dbg, err := motor.Dynamics(x, 0, sw)
			Expect(err).NotTo(HaveOccurred())

			v, err := motor.Reconstruct(x, sw)
			Expect(err).NotTo(HaveOccurred())
			Expect(dbg.Slice()[3:]).To(Equal([]float64{v.U, v.V, v.W, v.Star}))
		})
	})

	Describe("static friction", func() {
		DescribeTable("dead-band",
			func(torque, want float64) {
				Expect(bldc.ApplyStaticFriction(torque, 1)).To(Equal(want))
			},
			Entry("inside, positive", 0.75, 0.0),
			Entry("inside, negative", -0.25, 0.0),
			Entry("upper boundary", 1.0, 0.0),
			Entry("lower boundary", -1.0, 0.0),
			Entry("above", 2.5, 1.5),
			Entry("below", -2.5, -1.5),
		)

		It("keeps a rotor at rest when the drive torque is below the threshold", func() {
			p := bldc.DefaultParams()
			p.LoadTorque = 0.5
			motor = bldc.NewMotor(p)

			dx, _, err := motor.Dynamics(bldc.State{Theta: 0.1, Omega: 1e-3}, 0, bldc.Switches{})
			Expect(err).NotTo(HaveOccurred())
			Expect(dx.Omega).To(BeZero())
		})
	})

	It("refuses a zero rotor speed", func() {
		_, _, err := motor.Dynamics(bldc.State{}, 0, bldc.Switches{LowU: true})
		Expect(err).To(MatchError(bldc.ErrSingularSpeed))
	})

	It("keeps the back-EMF of the three phases inside the peak magnitude", func() {
		omega := 300.0
		peak := omega * bldc.RadPerSecToRPM / motor.Params.Kv
		for i := 0; i < 720; i++ {
			theta := float64(i) * math.Pi / 360
			emf, err := motor.BackEMF(bldc.State{Theta: theta, Omega: omega})
			Expect(err).NotTo(HaveOccurred())
			for _, e := range emf {
				Expect(math.Abs(e)).To(BeNumerically("<=", peak+1e-9))
			}
		}
	})
})
