package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/sim/timing"
	"github.com/sarchlab/a8xio/simulation"
	"github.com/sarchlab/a8xio/xio"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// exitStalled is the exit code of a run that ended with the link stalled.
const exitStalled = 2

var runCmd = &cobra.Command{
	Use:   "run SCENARIO",
	Short: "Run a scenario and print a summary.",
	Long: "`run SCENARIO` plays the host bus cycles of a JSON scenario " +
		"through the bridge and reports the frames seen on the link.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := loadScenario(args[0])
		if err != nil {
			return err
		}

		cfg, err := resolveSettings(cmd.Flags(), sc)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		trace, _ := flags.GetBool("trace")
		output, _ := flags.GetString("output")
		monitor, _ := flags.GetBool("monitor")
		openBrowser, _ := flags.GetBool("open-browser")

		s, err := buildSimulation(sc, cfg, trace, output, monitor)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if monitor && openBrowser {
			if err := browser.OpenURL(s.Monitor().URL()); err != nil {
				log.Printf("cannot open browser: %v", err)
			}
		}

		res, err := s.Run(ctx, cfg.TickBudget)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		printSummary(cmd.OutOrStdout(), s, res)

		if monitor && err == nil {
			fmt.Fprintln(os.Stderr, "Run finished, press Ctrl-C to exit.")
			<-ctx.Done()
		}

		s.Terminate()

		if res.Stalled {
			atexit.Exit(exitStalled)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.Float64("freq-mhz", defaultFreqMHz,
		"System clock in MHz ("+envFreqMHz+")")
	flags.Int("apertures", 8, "Number of aperture slots ("+envApertures+")")
	flags.Int("tick-budget", 0,
		"Maximum number of ticks, 0 for the default ("+envTickBudget+")")
	flags.Bool("trace", false, "Record accesses and frames into SQLite")
	flags.String("output", "", "Name of the trace database, without extension")
	flags.Bool("monitor", false, "Serve the model state over HTTP")
	flags.Int("monitor-port", 0,
		"Port of the monitoring server ("+envMonitorPort+")")
	flags.Bool("open-browser", false, "Open the monitor in a browser")
}

func buildSimulation(
	sc scenario,
	cfg settings,
	trace bool,
	output string,
	monitor bool,
) (s *simulation.Simulation, err error) {
	policy, err := parseDeassert(sc.Deassert)
	if err != nil {
		return nil, err
	}

	if err := sc.checkSlots(cfg.NumApertures); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot build the model: %v", r)
		}
	}()

	bridge := hostbus.MakeBuilder().
		WithFreq(timing.Freq(cfg.FreqMHz) * timing.MHz).
		WithNumApertures(cfg.NumApertures).
		WithDeassertPolicy(policy)
	if sc.KeepConfigOnReset {
		bridge = bridge.WithConfigKeptOnReset()
	}

	peer := xio.MakePeerBuilder().WithAckDelay(sc.Peer.AckDelay)
	if sc.Peer.NeverAck {
		peer = peer.WithoutAck()
	}

	b := simulation.MakeBuilder().
		WithBridge(bridge).
		WithPeer(peer).
		WithApertures(sc.apertureSetups()...).
		WithScript(sc.script(aperture.DefaultLayout))

	if trace {
		b = b.WithTracing().WithOutputFileName(output)
	}

	if monitor {
		b = b.WithMonitoring().WithMonitorPort(cfg.MonitorPort)
	}

	return b.Build("Bridge"), nil
}

func printSummary(w io.Writer, s *simulation.Simulation, res simulation.Result) {
	comp := s.Comp()

	fmt.Fprintf(w, "ticks:              %d (%.3f us)\n",
		res.Ticks, float64(comp.CurrentTime())*1e6)
	fmt.Fprintf(w, "frames submitted:   %d\n", res.FramesSubmitted)
	fmt.Fprintf(w, "frames overwritten: %d\n", res.FramesOverwritten)
	fmt.Fprintf(w, "frames dropped:     %d\n", res.FramesDropped)
	fmt.Fprintf(w, "frames received:    %d\n", res.FramesReceived)
	fmt.Fprintf(w, "handshake errors:   %d\n", s.Peer().Violations())
	fmt.Fprintf(w, "link stalled:       %t\n", res.Stalled)

	if res.BudgetExhausted {
		fmt.Fprintln(w, "tick budget exhausted")
	}

	for _, f := range s.Peer().Frames() {
		fmt.Fprintf(w, "  %s\n", f)
	}

	for _, c := range comp.Bank().Configs() {
		if c.Armed {
			fmt.Fprintf(w, "%s\n", c)
		}
	}
}
