package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/ft4fttsim/ft4fttsim/networking/devices"
	"github.com/ft4fttsim/ft4fttsim/sim"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Monitor", func() {
	var (
		engine *sim.SerialEngine
		rec    *devices.RecordingDevice
		pb     *devices.PlaybackDevice
		m      *Monitor
		router *mux.Router
	)

	get := func(url string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

		return w
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		rec = devices.NewRecordingDevice("rec", engine, 1)
		pb = devices.NewPlaybackDevice("pb", engine, 2)

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterDevice(rec)
		m.RegisterDevice(pb)
		router = m.Router()
	})

	It("should register the queues of every port", func() {
		Expect(m.devices).To(HaveLen(2))
		Expect(m.queues).To(HaveLen(6))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(engine.IsPaused()).To(BeTrue())

		rsp := nowRsp{}
		Expect(json.Unmarshal(get("/api/now").Body.Bytes(), &rsp)).
			To(Succeed())
		Expect(rsp).To(Equal(nowRsp{Now: 0, Paused: true}))

		get("/api/continue")
		Expect(engine.IsPaused()).To(BeFalse())
	})

	It("should list devices", func() {
		Expect(get("/api/list_devices").Body.String()).
			To(MatchJSON(`["rec", "pb"]`))
	})

	It("should answer 404 for unknown devices", func() {
		Expect(get("/api/device/nope").Code).To(Equal(http.StatusNotFound))
	})

	It("should describe a device", func() {
		w := get("/api/device/rec")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should reject malformed field requests", func() {
		Expect(get("/api/field/not-json").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should reject unknown sort methods", func() {
		Expect(get("/api/queues?sort=name").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should sort queues by level", func() {
		q := pb.Port(0).InboundQueue()
		q.Put("a", nil)
		q.Put("b", nil)

		rsp := []queueRsp{}
		Expect(json.Unmarshal(get("/api/queues?limit=2").Body.Bytes(), &rsp)).
			To(Succeed())

		Expect(rsp).To(HaveLen(2))
		Expect(rsp[0]).To(Equal(queueRsp{
			Queue: "pb-port0.inbound",
			Level: 2,
		}))
	})

	It("should page queues", func() {
		rsp := []queueRsp{}
		Expect(json.Unmarshal(
			get("/api/queues?offset=4&limit=10").Body.Bytes(), &rsp)).
			To(Succeed())

		Expect(rsp).To(HaveLen(2))
	})

	It("should follow the simulated time", func() {
		bar := m.TrackSimulatedTime("sim", 100)
		noop := sim.HandlerFunc(func(any) error { return nil })

		engine.Schedule(sim.ScheduledEvent{Event: 1, Time: 40, Handler: noop})
		Expect(engine.RunUntil(50)).To(Succeed())
		Expect(bar.snapshot().Finished).To(Equal(uint64(40)))

		engine.Schedule(sim.ScheduledEvent{Event: 2, Time: 250, Handler: noop})
		Expect(engine.Run()).To(Succeed())
		Expect(bar.snapshot().Finished).To(Equal(uint64(100)))

		rsp := []progressRsp{}
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &rsp)).
			To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("sim"))
		Expect(rsp[0].Total).To(Equal(uint64(100)))

		m.CompleteProgressBar(bar)
		Expect(get("/api/progress").Body.String()).To(Equal("[]"))
	})

	It("should serve the page", func() {
		Expect(get("/").Body.String()).To(ContainSubstring("fttsim monitor"))
	})
})
