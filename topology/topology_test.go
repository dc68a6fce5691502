package topology

import (
	"github.com/ft4fttsim/ft4fttsim/ft4ftt"
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should read a YAML file", func() {
		cfg, err := ReadConfig("testdata/ft4ftt.yaml")

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Name).To(Equal("ft4ftt-star"))
		Expect(cfg.Devices).To(HaveLen(4))
		Expect(cfg.Devices[2].Master.Slaves).To(Equal([]string{"slave0", "rec0"}))
		Expect(cfg.Devices[2].Master.SyncRequirements).To(HaveKeyWithValue(
			ft4ftt.StreamID("s1"),
			ft4ftt.SyncStreamConfig{
				TransmissionTimeECs: 1,
				DeadlineECs:         4,
				PeriodECs:           4,
			}))
	})

	It("should read a JSON file and default to automatic routing", func() {
		cfg, err := ReadConfig("testdata/line.json")

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Routing).To(Equal(RoutingAuto))
		Expect(cfg.Links).To(HaveLen(3))
	})

	It("should survive a round trip through YAML", func() {
		cfg, err := ReadConfig("testdata/ft4ftt.yaml")
		Expect(err).NotTo(HaveOccurred())

		data, err := cfg.Marshal()
		Expect(err).NotTo(HaveOccurred())
		again, err := ParseConfig(data, false)

		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(cfg))
	})

	DescribeTable("invalid configurations",
		func(doc, reason string) {
			_, err := ParseConfig([]byte(doc), false)

			Expect(err).To(MatchError(ContainSubstring(reason)))
		},
		Entry("unknown kind",
			"devices: [{name: a, kind: router}]", "unknown kind"),
		Entry("duplicate name",
			"devices: [{name: a, kind: echo}, {name: a, kind: recorder}]",
			"duplicate"),
		Entry("unknown reference",
			"devices: [{name: a, kind: slave, sync_destination: b}]",
			"unknown device"),
		Entry("unnamed master",
			"devices: [{name: a, kind: ft4ftt_switch, master: {}}]",
			"named master"),
		Entry("bad port reference",
			"devices: [{name: a, kind: echo, ports: 1}]\n"+
				"links: [{a: a, b: 'a:0', mbps: 1}]",
			"bad port reference"),
		Entry("unknown field",
			"devices: [{name: a, kind: echo, colour: red}]", "colour"),
		Entry("unknown routing", "routing: ospf", "unknown routing"),
		Entry("negative port count",
			"devices: [{name: a, kind: recorder, ports: -1}]",
			"cannot have -1 ports"),
	)

	It("should parse port references", func() {
		ref, err := ParsePortRef("sw:0:12")

		Expect(err).NotTo(HaveOccurred())
		Expect(ref).To(Equal(PortRef{Device: "sw:0", Index: 12}))
	})
})

var _ = Describe("Build", func() {
	var s *sim.Simulation

	BeforeEach(func() {
		s = sim.NewSimulation()
	})

	It("should build and run an FT4FTT network", func() {
		cfg, err := ReadConfig("testdata/ft4ftt.yaml")
		Expect(err).NotTo(HaveOccurred())

		n, err := Build(s, cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(n.DeviceNames()).To(ConsistOf(
			"rec0", "slave0", "sw0", "master0", "src0"))
		Expect(n.Kind("master0")).To(Equal(KindMaster))
		Expect(n.Links()).To(HaveLen(4))
		Expect(s.GetComponentByName("master0")).
			To(BeIdenticalTo(n.Master("master0")))

		Expect(s.GetEngine().RunUntil(sim.VTimeInUs(cfg.UntilUs))).
			To(Succeed())

		counts := map[networking.MessageType]int{}
		for _, msg := range n.Recorders()[0].RecordedMessages() {
			counts[msg.Type()]++
		}
		Expect(counts[ft4ftt.MessageTypeTrigger]).To(Equal(3 * 2))
		Expect(counts[ft4ftt.MessageTypeSync]).To(Equal(3 * 2 * 2))
		Expect(counts["random"]).To(Equal(10))
		Expect(n.Master("master0").SyncRequirements()).To(HaveKey(
			ft4ftt.StreamID("s1")))
	})

	It("should route along shortest paths", func() {
		cfg, err := ReadConfig("testdata/line.json")
		Expect(err).NotTo(HaveOccurred())

		n, err := Build(s, cfg)
		Expect(err).NotTo(HaveOccurred())

		sw1 := n.Switch("sw1")
		ports, found := sw1.ForwardingTable().FindPorts(n.Device("rec"))
		Expect(found).To(BeTrue())
		Expect(ports).To(Equal([]*networking.Port{sw1.Port(1)}))

		ports, found = n.Switch("sw2").ForwardingTable().
			FindPorts(n.Device("echo"))
		Expect(found).To(BeTrue())
		Expect(ports).To(Equal([]*networking.Port{n.Switch("sw2").Port(0)}))
	})

	It("should only route through switches", func() {
		cfg, err := ReadConfig("testdata/detour.yaml")
		Expect(err).NotTo(HaveOccurred())

		n, err := Build(s, cfg)
		Expect(err).NotTo(HaveOccurred())

		sw0 := n.Switch("sw0")
		ports, found := sw0.ForwardingTable().FindPorts(n.Device("dst"))
		Expect(found).To(BeTrue())
		Expect(ports).To(Equal([]*networking.Port{sw0.Port(2)}))

		_, found = n.Switch("sw1").ForwardingTable().
			FindPorts(n.Device("rec1"))
		Expect(found).To(BeTrue())

		Expect(s.GetEngine().RunUntil(sim.VTimeInUs(cfg.UntilUs))).
			To(Succeed())

		recorders := map[string]int{}
		for _, r := range n.Recorders() {
			recorders[r.Name()] = len(r.RecordedMessages())
		}
		Expect(recorders).To(Equal(map[string]int{"dst": 1, "rec1": 0}))
	})

	It("should use the configured sync destination of a slave", func() {
		cfg, err := ParseConfig([]byte(
			"devices: [{name: r, kind: recorder, ports: 1}, "+
				"{name: s1, kind: slave, ports: 1, destination: [r]}, "+
				"{name: s2, kind: slave, ports: 1, sync_destination: r}]"),
			false)
		Expect(err).NotTo(HaveOccurred())

		n, err := Build(s, cfg)
		Expect(err).NotTo(HaveOccurred())

		s1 := n.Device("s1").(*ft4ftt.Slave)
		Expect(s1.SyncDestination().Contains(s1)).To(BeTrue())
		Expect(s1.SyncDestination().Contains(n.Device("r"))).To(BeFalse())

		s2 := n.Device("s2").(*ft4ftt.Slave)
		Expect(s2.SyncDestination().Contains(n.Device("r"))).To(BeTrue())
	})

	It("should leave tables empty when flooding", func() {
		cfg, err := ReadConfig("testdata/line.json")
		Expect(err).NotTo(HaveOccurred())
		cfg.Routing = RoutingFlood

		n, err := Build(s, cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(n.Switch("sw1").ForwardingTable().Len()).To(Equal(0))
	})

	It("should report link errors", func() {
		cfg, err := ParseConfig([]byte(
			"devices: [{name: a, kind: echo, ports: 1}, "+
				"{name: b, kind: echo, ports: 1}]\n"+
				"links: [{a: 'a:0', b: 'b:0', mbps: 0}]"), false)
		Expect(err).NotTo(HaveOccurred())

		_, err = Build(s, cfg)

		Expect(err).To(BeAssignableToTypeOf(&networking.Error{}))
	})

	It("should report missing ports", func() {
		cfg, err := ParseConfig([]byte(
			"devices: [{name: a, kind: echo, ports: 1}, "+
				"{name: b, kind: echo, ports: 1}]\n"+
				"links: [{a: 'a:3', b: 'b:0', mbps: 10}]"), false)
		Expect(err).NotTo(HaveOccurred())

		_, err = Build(s, cfg)

		Expect(err).To(MatchError(ContainSubstring("no port 3")))
	})

	It("should detect circular references", func() {
		cfg, err := ParseConfig([]byte(
			"devices: [{name: a, kind: slave, sync_destination: b}, "+
				"{name: b, kind: slave, sync_destination: a}]"), false)
		Expect(err).NotTo(HaveOccurred())

		_, err = Build(s, cfg)

		Expect(err).To(MatchError(ContainSubstring("circular")))
	})
})
