/*
hmitrack drives a simulated second-order cursor plant at a fixed control
rate, evaluates one of three psychophysics tracking tasks, and streams the
per-tick state out as binary UDP datagrams for an external viewer. See
SPEC_FULL.md for the full component breakdown; this file is only the
invocation glue: flags, banner, and exit-code discipline.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/niceyeti/hmitrack/config"
	"github.com/niceyeti/hmitrack/experiment"
	"github.com/niceyeti/hmitrack/loop"
	"github.com/niceyeti/hmitrack/task"
)

var (
	duration   *float64
	taskFlag   *string
	configPath *string
	help       *bool
)

// TODO: per 12-factor rules these could also come from env vars; flags are
// enough for a simulator invoked by hand or by a bridge script.
func init() {
	duration = flag.Float64("duration", 10.0, "run duration in seconds")
	taskFlag = flag.String("task", "sos", "task to run: sos, cit, or fitts")
	configPath = flag.String("config", "", "optional YAML config file path")
	help = flag.Bool("help", false, "print usage and exit")
	flag.BoolVar(help, "h", false, "print usage and exit (shorthand)")
	flag.Parse()
}

func loadConfig() (config.ExperimentConfig, experiment.TaskType) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, taskOK, err := config.LoadYAML(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hmitrack: config load failed: %v\n", err)
			os.Exit(1)
		}
		if !taskOK {
			fmt.Fprintln(os.Stderr, "hmitrack: unknown task in config, falling back to sos")
		}
		cfg = loaded
	}

	t, ok := experiment.ParseTaskType(*taskFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "hmitrack: unknown --task=%q, falling back to sos\n", *taskFlag)
	}
	cfg.Task = t
	return cfg, t
}

func printUsage() {
	fmt.Println("hmitrack: 2D HMI tracking control core")
	flag.PrintDefaults()
}

func runApp() error {
	if *help {
		printUsage()
		return nil
	}

	cfg, t := loadConfig()

	l, err := loop.New(cfg)
	if err != nil {
		return fmt.Errorf("construct loop: %w", err)
	}
	defer l.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		l.Stop()
	}()

	fmt.Printf("hmitrack: running task=%s duration=%.1fs\n", t, *duration)
	stats := l.Run(*duration)

	fmt.Printf(
		"hmitrack: done ticks=%d overruns=%d maxTickUS=%.1f sendErrors=%d errorRate=%.4f\n",
		stats.TotalTicks, stats.OverrunCount, stats.MaxTickUS,
		stats.EmitterStats.ErrorCount, stats.EmitterStats.ErrorRate,
	)
	printMetrics(l.TaskMetrics())
	return nil
}

func printMetrics(m task.Metrics) {
	switch {
	case m.SoS != nil:
		fmt.Printf("hmitrack: sos rmseX=%.5f rmseY=%.5f rmseTotal=%.5f samples=%d\n",
			m.SoS.RMSEx, m.SoS.RMSEy, m.SoS.RMSETotal, m.SoS.Samples)
	case m.CIT != nil:
		fmt.Printf("hmitrack: cit divergenceTime=%.2fs lambdaCritical=%.2f\n",
			m.CIT.DivergenceTime, m.CIT.LambdaCritical)
	case m.Fitts != nil:
		fmt.Printf(
			"hmitrack: fitts amplitude=%.4f id=%.3fbits meanMT=%.3fs throughput=%.3fbits/s errorRate=%.3f movements=%d/%d\n",
			m.Fitts.Amplitude, m.Fitts.IndexOfDifficulty, m.Fitts.MeanMovementTime,
			m.Fitts.ThroughputBitsPerS, m.Fitts.ErrorRate, m.Fitts.MovementsCompleted, m.Fitts.MovementsTotal)
	}
}

func main() {
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
