package networking

import (
	"math"

	"github.com/ft4fttsim/ft4fttsim/sim"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Link", func() {
	var (
		engine   *sim.SerialEngine
		ids      sim.IDGenerator
		sender   *testDevice
		receiver *testDevice
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		ids = sim.NewSequentialIDGenerator()
		sender = newTestDevice(engine, "sender", 1)
		receiver = newTestDevice(engine, "receiver", 1)
	})

	Context("construction", func() {
		DescribeTable("invalid parameters",
			func(mbps, delay float64, reason string) {
				l, err := NewLink(engine,
					sender.Port(0), receiver.Port(0), mbps, delay)

				Expect(l).To(BeNil())
				Expect(err).To(BeAssignableToTypeOf(&Error{}))
				Expect(err).To(MatchError(ContainSubstring(reason)))
				Expect(sender.Port(0).IsFree()).To(BeTrue())
			},
			Entry("zero speed", 0.0, 0.0, "speed"),
			Entry("negative speed", -10.0, 0.0, "speed"),
			Entry("NaN speed", math.NaN(), 0.0, "speed"),
			Entry("negative delay", 100.0, -1.0, "delay"),
		)

		It("should mirror the ports of both sublinks", func() {
			l := mustLink(engine, sender.Port(0), receiver.Port(0), 100, 0)

			s := l.Sublinks()
			Expect(s[0].Transmitter()).To(BeIdenticalTo(sender.Port(0)))
			Expect(s[0].Receiver()).To(BeIdenticalTo(receiver.Port(0)))
			Expect(s[0].Transmitter()).To(BeIdenticalTo(s[1].Receiver()))
			Expect(s[0].Receiver()).To(BeIdenticalTo(s[1].Transmitter()))
			Expect(sender.Outlinks()).To(ConsistOf(s[0]))
			Expect(sender.Inlinks()).To(ConsistOf(s[1]))
		})

		It("should not attach a port twice", func() {
			other := newTestDevice(engine, "other", 1)
			mustLink(engine, sender.Port(0), receiver.Port(0), 100, 0)

			_, err := NewLink(engine, sender.Port(0), other.Port(0), 100, 0)

			Expect(err).To(MatchError(ContainSubstring("already linked")))
			Expect(other.Port(0).IsFree()).To(BeTrue())
		})

		It("should not link a port to itself", func() {
			_, err := NewLink(engine, sender.Port(0), sender.Port(0), 100, 0)

			Expect(err).To(HaveOccurred())
		})

		It("should start idle", func() {
			l := mustLink(engine, sender.Port(0), receiver.Port(0), 100, 0)

			Expect(l.Sublinks()[0].State()).To(Equal(SublinkIdle))
		})
	})

	DescribeTable("transmission time",
		func(mbps, expected float64) {
			l := mustLink(engine, sender.Port(0), receiver.Port(0), mbps, 0)

			Expect(l.TransmissionTimeUs(1526)).
				To(BeNumerically("~", expected, 1e-9))
		},
		Entry("1 Mbps", 1.0, 12208.0),
		Entry("10 Mbps", 10.0, 1220.8),
		Entry("100 Mbps", 100.0, 122.08),
		Entry("1000 Mbps", 1000.0, 12.208),
	)

	It("should take no time to send nothing", func() {
		l := mustLink(engine, sender.Port(0), receiver.Port(0), 100, 0)

		Expect(l.TransmissionTimeUs(0)).To(Equal(0.0))
	})

	It("should deliver after serialization plus propagation", func() {
		l := mustLink(engine, sender.Port(0), receiver.Port(0), 100, 3)
		msg := buildMessage(ids, sender, Unicast(receiver), 1518)

		Expect(sender.InstructTransmission(msg, sender.Port(0))).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(receiver.msgs).To(HaveLen(1))
		Expect(receiver.msgs[0]).To(BeIdenticalTo(msg))
		Expect(float64(receiver.times[0])).To(
			BeNumerically("~", l.TransmissionTimeUs(1526)+3, 1e-9))
		Expect(l.Sublinks()[0].NumDelivered()).To(Equal(uint64(1)))
	})

	DescribeTable("interframe gap between back-to-back messages",
		func(mbps float64, size int) {
			mustLink(engine, sender.Port(0), receiver.Port(0), mbps, 0)
			m1 := buildMessage(ids, sender, Unicast(receiver), size)
			m2 := buildMessage(ids, sender, Unicast(receiver), size)

			Expect(sender.InstructTransmission(m1, sender.Port(0))).
				To(Succeed())
			Expect(sender.InstructTransmission(m2, sender.Port(0))).
				To(Succeed())
			Expect(engine.Run()).To(Succeed())

			expected := 2*float64(size+8)*8/mbps + 12*8/mbps
			Expect(receiver.msgs).To(Equal([]*Message{m1, m2}))
			Expect(float64(receiver.times[1])).
				To(BeNumerically("~", expected, 1e-5))
		},
		Entry("100 Mbps, 1518 B", 100.0, 1518),
		Entry("10 Mbps, 123 B", 10.0, 123),
		Entry("1000 Mbps, 64 B", 1000.0, 64),
	)

	It("should hold the second message in the outbound queue", func() {
		mustLink(engine, sender.Port(0), receiver.Port(0), 100, 0)
		m1 := buildMessage(ids, sender, Unicast(receiver), 64)
		m2 := buildMessage(ids, sender, Unicast(receiver), 64)
		m3 := buildMessage(ids, sender, Unicast(receiver), 64)

		Expect(sender.InstructTransmission(m1, sender.Port(0))).To(Succeed())
		Expect(sender.InstructTransmission(m2, sender.Port(0))).To(Succeed())
		Expect(sender.InstructTransmission(m3, sender.Port(0))).To(Succeed())

		out := sender.Port(0).OutboundQueue()
		Expect(out.Items()).To(Equal([]any{m2}))
		Expect(out.NumPendingPuts()).To(Equal(1))
	})

	It("should deliver instantly on an infinitely fast link", func() {
		mustLink(engine, sender.Port(0), receiver.Port(0), math.Inf(1), 0)
		m1 := buildMessage(ids, sender, Unicast(receiver), 1518)
		m2 := buildMessage(ids, sender, Unicast(receiver), 1518)

		Expect(sender.InstructTransmission(m1, sender.Port(0))).To(Succeed())
		Expect(sender.InstructTransmission(m2, sender.Port(0))).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(receiver.times).To(Equal([]sim.VTimeInUs{0, 0}))
	})

	It("should carry traffic in both directions independently", func() {
		mustLink(engine, sender.Port(0), receiver.Port(0), 100, 0)
		there := buildMessage(ids, sender, Unicast(receiver), 1518)
		back := buildMessage(ids, receiver, Unicast(sender), 1518)

		Expect(sender.InstructTransmission(there, sender.Port(0))).
			To(Succeed())
		Expect(receiver.InstructTransmission(back, receiver.Port(0))).
			To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(receiver.times).To(Equal(sender.times))
	})
})
