package tracing

import (
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/networking/devices"
	"github.com/ft4fttsim/ft4fttsim/sim"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Trace hook", func() {
	var (
		mockCtrl *gomock.Controller
		writer   *MockEventWriter
		s        *sim.Simulation
		pb       *devices.PlaybackDevice
		rec      *devices.RecordingDevice
		events   []Event
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		writer = NewMockEventWriter(mockCtrl)
		writer.EXPECT().Write(gomock.Any()).
			Do(func(e Event) { events = append(events, e) }).
			AnyTimes()
		events = nil

		s = sim.NewSimulation()
		pb = devices.NewPlaybackDevice("pb", s.GetEngine(), 1)
		rec = devices.NewRecordingDevice("rec", s.GetEngine(), 1)
		_, err := networking.NewLink(s.GetEngine(),
			pb.Port(0), rec.Port(0), 100, 0)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should refuse the same writer twice", func() {
		CollectTrace(pb.Port(0), writer)

		Expect(func() { CollectTrace(pb.Port(0), writer) }).To(Panic())
	})

	It("should record a message crossing a link", func() {
		CollectNetworkTrace([]networking.Device{pb, rec}, writer)

		msg, err := networking.MessageBuilder{}.
			WithIDGenerator(s.IDGenerator()).
			WithSource(pb).
			WithDestination(networking.Unicast(rec)).
			WithSizeBytes(64).
			WithType("data").
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(pb.LoadTransmissionCommands([]devices.TransmissionCommand{
			{Time: 0, Port: pb.Port(0), Messages: []*networking.Message{msg}},
		})).To(Succeed())

		Expect(s.GetEngine().Run()).To(Succeed())

		whats := make([]string, 0, len(events))
		for _, e := range events {
			whats = append(whats, e.What)
		}
		Expect(whats).To(Equal([]string{
			networking.HookPosPortMsgSend.Name,
			networking.HookPosSublinkTxStart.Name,
			networking.HookPosPortMsgRecvd.Name,
			networking.HookPosSublinkDeliver.Name,
		}))

		Expect(events[0].Location).To(Equal("pb-port0"))
		Expect(events[1].Location).To(Equal("pb-port0->rec-port0"))
		Expect(events[2].Location).To(Equal("rec-port0"))
		Expect(float64(events[2].Time)).To(BeNumerically("~", 5.76, 1e-9))
		for _, e := range events {
			Expect(e.MsgID).To(Equal(msg.ID()))
			Expect(e.Source).To(Equal("pb"))
			Expect(e.MsgType).To(Equal("data"))
			Expect(e.SizeBytes).To(Equal(64))
		}
	})
})
