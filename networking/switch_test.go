package networking

import (
	"github.com/ft4fttsim/ft4fttsim/sim"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Switch", func() {
	var (
		engine *sim.SerialEngine
		ids    sim.IDGenerator
		sw     *Switch
		hosts  []*testDevice
	)

	BeforeEach(func() {
		var err error

		engine = sim.NewSerialEngine()
		ids = sim.NewSequentialIDGenerator()
		sw, err = MakeSwitchBuilder().
			WithEngine(engine).
			WithNumPorts(3).
			Build("sw")
		Expect(err).NotTo(HaveOccurred())

		hosts = nil
		for i := 0; i < 3; i++ {
			h := newTestDevice(engine, "host"+string(rune('0'+i)), 1)
			mustLink(engine, h.Port(0), sw.Port(i), 100, 0)
			hosts = append(hosts, h)
		}
	})

	send := func(from *testDevice, dst Destination) *Message {
		msg := buildMessage(ids, from, dst, 64)
		Expect(from.InstructTransmission(msg, from.Port(0))).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		return msg
	}

	It("should need an engine", func() {
		_, err := MakeSwitchBuilder().WithNumPorts(1).Build("broken")

		Expect(err).To(BeAssignableToTypeOf(&Error{}))
	})

	It("should flood to all ports, ingress included, without an entry", func() {
		msg := send(hosts[0], Unicast(hosts[1]))

		for _, h := range hosts {
			Expect(h.msgs).To(HaveLen(1))
			Expect(Equivalent(h.msgs[0], msg)).To(BeTrue())
		}
	})

	It("should send a distinct copy on each port", func() {
		msg := send(hosts[0], Unicast(hosts[1]))

		seen := map[uint64]bool{msg.ID(): true}
		for _, h := range hosts {
			Expect(seen).NotTo(HaveKey(h.msgs[0].ID()))
			seen[h.msgs[0].ID()] = true
		}
	})

	It("should follow the forwarding table", func() {
		Expect(sw.DefineRoute(hosts[1], sw.Port(1))).To(Succeed())

		send(hosts[0], Unicast(hosts[1]))

		Expect(hosts[0].msgs).To(BeEmpty())
		Expect(hosts[1].msgs).To(HaveLen(1))
		Expect(hosts[2].msgs).To(BeEmpty())
	})

	It("should forward multicast to the union of the entries", func() {
		Expect(sw.DefineRoute(hosts[1], sw.Port(1))).To(Succeed())
		Expect(sw.DefineRoute(hosts[2], sw.Port(2), sw.Port(1))).To(Succeed())

		send(hosts[0], Multicast(hosts[1], hosts[2]))

		Expect(hosts[0].msgs).To(BeEmpty())
		Expect(hosts[1].msgs).To(HaveLen(1))
		Expect(hosts[2].msgs).To(HaveLen(1))
	})

	It("should flood multicast when a member has no entry", func() {
		Expect(sw.DefineRoute(hosts[1], sw.Port(1))).To(Succeed())

		send(hosts[0], Multicast(hosts[1], hosts[2]))

		for _, h := range hosts {
			Expect(h.msgs).To(HaveLen(1))
		}
	})

	It("should reject routes over foreign ports", func() {
		err := sw.DefineRoute(hosts[1], hosts[1].Port(0))

		Expect(err).To(MatchError(ContainSubstring("does not own")))
		Expect(sw.ForwardingTable().Len()).To(Equal(0))
	})

	It("should forward nothing without ports", func() {
		empty, err := MakeSwitchBuilder().
			WithEngine(engine).
			Build("empty")
		Expect(err).NotTo(HaveOccurred())

		msg := buildMessage(ids, hosts[0], Unicast(hosts[1]), 64)

		Expect(func() { empty.ForwardMessages([]*Message{msg}) }).
			NotTo(Panic())
		Expect(engine.PendingEvents()).To(Equal(0))
	})

	It("should use a custom router", func() {
		sw.SetRouter(routerFunc(func(*Message) []*Port {
			return []*Port{sw.Port(2)}
		}))

		send(hosts[0], Unicast(hosts[1]))

		Expect(hosts[1].msgs).To(BeEmpty())
		Expect(hosts[2].msgs).To(HaveLen(1))
	})
})

var _ = Describe("ForwardingTable", func() {
	It("should replace and remove entries", func() {
		engine := sim.NewSerialEngine()
		d := NewDeviceBase("d", engine, 2, nil)
		dst := NewDeviceBase("dst", engine, 0, nil)
		t := NewForwardingTable()

		t.DefineRoute(dst, d.Port(0), d.Port(0))
		ports, found := t.FindPorts(dst)
		Expect(found).To(BeTrue())
		Expect(ports).To(Equal([]*Port{d.Port(0)}))

		t.DefineRoute(dst, d.Port(1))
		ports, _ = t.FindPorts(dst)
		Expect(ports).To(Equal([]*Port{d.Port(1)}))
		Expect(t.Len()).To(Equal(1))

		t.RemoveRoute(dst)
		_, found = t.FindPorts(dst)
		Expect(found).To(BeFalse())
		Expect(t.Destinations()).To(BeEmpty())
	})
})

type routerFunc func(msg *Message) []*Port

func (f routerFunc) Route(msg *Message) []*Port {
	return f(msg)
}
