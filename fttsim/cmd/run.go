package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"

	"github.com/ft4fttsim/ft4fttsim/monitoring"
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
	"github.com/ft4fttsim/ft4fttsim/topology"
	"github.com/ft4fttsim/ft4fttsim/tracing"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

type runOptions struct {
	config      string
	untilUs     float64
	traceDB     string
	logEvents   bool
	logMessages bool
	monitor     bool
	monitorPort int
	openBrowser bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation of a topology file.",
	Long: `Run the simulation of a topology file and print what every ` +
		`recorder received. --until-us overrides the until_us of the file.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		_, err = runSimulation(opts, cmd.OutOrStdout())

		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("config", "", "Topology file")
	runCmd.Flags().Float64("until-us", -1,
		"Simulated time to run for, in microseconds")
	runCmd.Flags().String("trace-db", "",
		"Record port and link traffic into this SQLite database "+
			"(without the .sqlite3 extension)")
	runCmd.Flags().Bool("log-events", false, "Log every engine event")
	runCmd.Flags().Bool("log-messages", false,
		"Log every message sent or received by a port")
	runCmd.Flags().Bool("monitor", false, "Serve the monitoring page")
	runCmd.Flags().Int("monitor-port", 0, "Port of the monitoring page")
	runCmd.Flags().Bool("open-browser", false,
		"Open the monitoring page in a browser")
	_ = runCmd.MarkFlagRequired("config")
}

func runOptionsFromFlags(cmd *cobra.Command) (runOptions, error) {
	flags := cmd.Flags()
	opts := runOptions{}

	opts.config, _ = flags.GetString("config")
	opts.untilUs, _ = flags.GetFloat64("until-us")
	opts.logEvents, _ = flags.GetBool("log-events")
	opts.logMessages, _ = flags.GetBool("log-messages")
	opts.monitor, _ = flags.GetBool("monitor")
	opts.openBrowser, _ = flags.GetBool("open-browser")

	opts.traceDB, _ = flags.GetString("trace-db")
	if !flags.Changed("trace-db") {
		opts.traceDB = envOr(envTraceDB, "")
	}

	opts.monitorPort, _ = flags.GetInt("monitor-port")
	if !flags.Changed("monitor-port") {
		if v := envOr(envMonitorPort, ""); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return opts, fmt.Errorf("%s: %w", envMonitorPort, err)
			}

			opts.monitorPort = port
		}
	}

	return opts, nil
}

func runSimulation(
	opts runOptions,
	out io.Writer,
) (*topology.Network, error) {
	cfg, err := topology.ReadConfig(opts.config)
	if err != nil {
		return nil, err
	}

	if opts.untilUs >= 0 {
		cfg.UntilUs = opts.untilUs
	}

	if cfg.UntilUs <= 0 {
		return nil, fmt.Errorf("%s: nothing to simulate, set until_us "+
			"or --until-us", opts.config)
	}

	s := sim.NewSimulation()
	n, err := topology.Build(s, cfg)
	if err != nil {
		return nil, err
	}

	engine := s.GetEngine()
	logger := log.New(os.Stdout, "", 0)

	if opts.logEvents {
		engine.AcceptHook(sim.NewEventLogger(logger))
	}

	if opts.logMessages {
		attachPortMsgLogger(n, networking.NewPortMsgLogger(logger))
	}

	var traceWriter *tracing.SQLiteTraceWriter
	if opts.traceDB != "" {
		traceWriter = tracing.NewSQLiteTraceWriter(opts.traceDB)
		traceWriter.Init()
		tracing.CollectNetworkTrace(n.Devices(), traceWriter)
	}

	if opts.monitor {
		startMonitor(n, opts)
	}

	if err := engine.RunUntil(sim.VTimeInUs(cfg.UntilUs)); err != nil {
		return nil, err
	}

	if traceWriter != nil {
		traceWriter.Flush()
		fmt.Fprintf(out, "trace written to %s\n", traceWriter.DBName())
	}

	printSummary(n, out)

	return n, nil
}

func attachPortMsgLogger(n *topology.Network, h *networking.PortMsgLogger) {
	for _, d := range n.Devices() {
		for _, p := range d.Ports() {
			p.AcceptHook(h)
		}
	}
}

func startMonitor(n *topology.Network, opts runOptions) {
	engine := n.Simulation().GetEngine()

	m := monitoring.NewMonitor()
	if opts.monitorPort != 0 {
		m = m.WithPortNumber(opts.monitorPort)
	}

	m.RegisterEngine(engine)
	for _, d := range n.Devices() {
		m.RegisterDevice(d)
	}

	m.TrackSimulatedTime(n.Config().Name, sim.VTimeInUs(n.Config().UntilUs))

	port := m.StartServer()
	if opts.openBrowser {
		err := browser.OpenURL(fmt.Sprintf("http://localhost:%d", port))
		if err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}
}

func printSummary(n *topology.Network, out io.Writer) {
	now := n.Simulation().GetEngine().CurrentTime()
	fmt.Fprintf(out, "%s: simulated %.3f us\n", n.Config().Name, now)

	for _, name := range n.DeviceNames() {
		if m := n.Master(name); m != nil {
			fmt.Fprintf(out, "  master %s: %d ECs, %d sync streams\n",
				name, m.ECCount(), len(m.SyncRequirements()))
		}
	}

	for _, r := range n.Recorders() {
		counts := make(map[networking.MessageType]int)
		for _, msg := range r.RecordedMessages() {
			counts[msg.Type()]++
		}

		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, string(t))
		}
		sort.Strings(types)

		fmt.Fprintf(out, "  recorder %s: %d messages", r.Name(),
			len(r.RecordedMessages()))
		for _, t := range types {
			fmt.Fprintf(out, ", %s=%d", t, counts[networking.MessageType(t)])
		}
		fmt.Fprintln(out)
	}
}
