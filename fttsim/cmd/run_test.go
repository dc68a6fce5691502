package cmd

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/ft4fttsim/ft4fttsim/tracing"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const ft4fttTopology = "../../topology/testdata/ft4ftt.yaml"

var _ = Describe("run", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = new(bytes.Buffer)
	})

	It("should print a summary per recorder", func() {
		n, err := runSimulation(runOptions{
			config:  ft4fttTopology,
			untilUs: -1,
		}, out)

		Expect(err).NotTo(HaveOccurred())
		Expect(float64(n.Simulation().GetEngine().CurrentTime())).
			To(Equal(3000.0))
		Expect(out.String()).To(ContainSubstring(
			"master master0: 3 ECs, 1 sync streams"))
		Expect(out.String()).To(ContainSubstring(
			"recorder rec0: 28 messages, TM=6, random=10, sync=12"))
	})

	It("should let the flag override the simulated time", func() {
		n, err := runSimulation(runOptions{
			config:  ft4fttTopology,
			untilUs: 500,
		}, out)

		Expect(err).NotTo(HaveOccurred())
		Expect(n.Master("master0").ECCount()).To(Equal(1))
	})

	It("should write a trace", func() {
		db := filepath.Join(GinkgoT().TempDir(), "trace")

		_, err := runSimulation(runOptions{
			config:  ft4fttTopology,
			untilUs: 1000,
			traceDB: db,
		}, out)
		Expect(err).NotTo(HaveOccurred())

		r := tracing.NewSQLiteTraceReader(db + ".sqlite3")
		r.Init()
		defer r.Close()

		Expect(r.ListLocations()).To(ContainElements(
			"sw0-port0", "master0", "rec0-port0"))
		Expect(r.ListEvents(tracing.EventQuery{What: "EC Start"})).
			To(HaveLen(1))
	})

	It("should refuse to simulate no time at all", func() {
		cfg := filepath.Join(GinkgoT().TempDir(), "topo.yaml")
		Expect(os.WriteFile(cfg,
			[]byte("devices: [{name: rec0, kind: recorder, ports: 1}]\n"),
			0o600)).To(Succeed())

		_, err := runSimulation(runOptions{config: cfg, untilUs: -1}, out)
		Expect(err).To(MatchError(ContainSubstring("nothing to simulate")))

		_, err = runSimulation(runOptions{config: cfg, untilUs: 10}, out)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should fail on a missing file", func() {
		_, err := runSimulation(runOptions{config: "nope.yaml"}, out)

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("validate", func() {
	It("should describe the network", func() {
		out := new(bytes.Buffer)

		Expect(validateTopology(ft4fttTopology, out)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("5 devices, 4 links"))
	})
})

var _ = Describe("env file", func() {
	AfterEach(func() {
		os.Unsetenv(envTraceDB)
	})

	It("should ignore a missing default file", func() {
		Expect(loadEnvFile("does-not-exist.env", false)).To(Succeed())
	})

	It("should require a file that was asked for", func() {
		Expect(loadEnvFile("does-not-exist.env", true)).NotTo(Succeed())
	})

	It("should load defaults", func() {
		path := filepath.Join(GinkgoT().TempDir(), ".env")
		Expect(os.WriteFile(path, []byte(envTraceDB+"=mytrace\n"), 0o600)).
			To(Succeed())

		Expect(loadEnvFile(path, true)).To(Succeed())
		Expect(envOr(envTraceDB, "")).To(Equal("mytrace"))
	})
})
