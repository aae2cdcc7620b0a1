// Command beamplan-demo drives plans against a simulated rig.
//
// The rig is described by a YAML config file (or a built-in default: one
// motor, one Gaussian detector). The demo prints the rig's label index and a
// positioner report, runs the selected plan through the engine and prints the
// committed data rows. With -log, every run event is also written to a CBOR
// log file readable with beamplan-log.
//
// Usage:
//
//	beamplan-demo [flags]
//
// Flags:
//
//	-config string     Rig config file (YAML)
//	-plan string       Plan to run: count, linascan, logascan, lindscan, adaptive (default "linascan")
//	-motor string      Motor name (default "mtr1")
//	-detector string   Detector name (default "det1")
//	-start float       Scan start position (default -5)
//	-stop float        Scan stop position (default 5)
//	-num int           Number of points (default 11)
//	-log string        Write run events to this log file
//	-log-level string  Console log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Linear scan with the default rig, logging the run
//	beamplan-demo -plan linascan -start -5 -stop 5 -num 11 -log run.blog
//
//	# Adaptive scan across the detector peak
//	beamplan-demo -plan adaptive -start -5 -stop 5
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/labels"
	"github.com/beamplan-protocol/beamplan-go/pkg/log"
	"github.com/beamplan-protocol/beamplan-go/pkg/plan"
	"github.com/beamplan-protocol/beamplan-go/pkg/report"
	"github.com/beamplan-protocol/beamplan-go/pkg/run"
)

type options struct {
	ConfigFile string
	Plan       string
	Motor      string
	Detector   string
	Start      float64
	Stop       float64
	Num        int
	LogFile    string
	LogLevel   string
}

func main() {
	var opts options
	flag.StringVar(&opts.ConfigFile, "config", "", "Rig config file (YAML)")
	flag.StringVar(&opts.Plan, "plan", "linascan", "Plan to run: count, linascan, logascan, lindscan, adaptive")
	flag.StringVar(&opts.Motor, "motor", "mtr1", "Motor name")
	flag.StringVar(&opts.Detector, "detector", "det1", "Detector name")
	flag.Float64Var(&opts.Start, "start", -5, "Scan start position")
	flag.Float64Var(&opts.Stop, "stop", 5, "Scan stop position")
	flag.IntVar(&opts.Num, "num", 11, "Number of points")
	flag.StringVar(&opts.LogFile, "log", "", "Write run events to this log file")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Console log level: debug, info, warn, error")
	flag.Parse()

	if err := runDemo(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDemo(opts options) error {
	setupLogging(opts.LogLevel)

	cfg, err := loadRig(opts.ConfigFile)
	if err != nil {
		return err
	}
	ns, err := buildNamespace(cfg)
	if err != nil {
		return err
	}

	printLabelIndex(ns)
	if err := printPositioners(ns); err != nil {
		return err
	}

	p, err := buildPlan(opts, ns)
	if err != nil {
		return err
	}

	engine := run.New()
	logger, closeLog, err := buildRunLogger(opts.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	engine.Logger = logger

	fmt.Printf("Running %s...\n\n", p.PlanName())
	start := time.Now()
	result, err := engine.Run(context.Background(), p)
	if err != nil {
		return fmt.Errorf("run %s aborted: %w", result.RunID, err)
	}

	printRows(result)
	fmt.Printf("\nRun %s completed: %d rows in %s\n",
		result.RunID, len(result.Rows), time.Since(start).Round(time.Millisecond))
	if opts.LogFile != "" {
		fmt.Printf("Run events written to %s\n", opts.LogFile)
	}
	return nil
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// buildRunLogger assembles the engine's event sink: the console adapter,
// plus a file logger when a path is given.
func buildRunLogger(path string) (log.Logger, func(), error) {
	console := log.NewSlogAdapter(slog.Default())
	if path == "" {
		return console, func() {}, nil
	}
	fl, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run log: %w", err)
	}
	return log.NewMultiLogger(console, fl), func() { fl.Close() }, nil
}

func printLabelIndex(ns map[string]device.Device) {
	ix := labels.Find(ns, labels.WithWarnings(func(format string, args ...any) {
		slog.Warn(fmt.Sprintf(format, args...))
	}))

	fmt.Println("Label index:")
	for _, label := range ix.Labels() {
		fmt.Printf("  %s:", label)
		for _, e := range ix[label] {
			fmt.Printf(" %s", e.Name)
		}
		fmt.Println()
	}
	fmt.Println()
}

func printPositioners(ns map[string]device.Device) error {
	var positioners []device.Positioner
	for _, d := range ns {
		if p, ok := d.(device.Positioner); ok {
			positioners = append(positioners, p)
		}
	}
	if err := report.NewFormatter().Positioners(os.Stdout, positioners); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

// buildPlan resolves the selected devices and constructs the requested plan.
func buildPlan(opts options, ns map[string]device.Device) (plan.Plan, error) {
	det, ok := ns[opts.Detector].(device.Readable)
	if !ok {
		return nil, fmt.Errorf("no readable device %q in the rig", opts.Detector)
	}
	dets := []device.Readable{det}

	if opts.Plan == "count" {
		return plan.NewCount(dets, opts.Num, 0), nil
	}

	mtr, ok := ns[opts.Motor].(device.Motor)
	if !ok {
		return nil, fmt.Errorf("no motor %q in the rig", opts.Motor)
	}

	switch opts.Plan {
	case "linascan":
		return plan.NewLinAscan(mtr, dets, opts.Start, opts.Stop, opts.Num), nil
	case "logascan":
		return plan.NewLogAscan(mtr, dets, opts.Start, opts.Stop, opts.Num), nil
	case "lindscan":
		return plan.NewLinDscan(mtr, dets, opts.Start, opts.Stop, opts.Num), nil
	case "adaptive":
		span := opts.Stop - opts.Start
		return plan.NewAdaptiveAscan(mtr, dets, opts.Detector,
			opts.Start, opts.Stop, span/100, span/10, 5), nil
	default:
		return nil, fmt.Errorf("unknown plan %q", opts.Plan)
	}
}

// printRows renders the committed rows as a fixed-width table, fields in
// sorted order.
func printRows(result *run.Result) {
	if len(result.Rows) == 0 {
		fmt.Println("No data rows committed.")
		return
	}

	fields := make([]string, 0, len(result.Rows[0].Data))
	for f := range result.Rows[0].Data {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	fmt.Printf("%-6s", "seq")
	for _, f := range fields {
		fmt.Printf(" %-12s", f)
	}
	fmt.Println()
	for i, row := range result.Rows {
		fmt.Printf("%-6d", i)
		for _, f := range fields {
			fmt.Printf(" %-12.6g", row.Data[f])
		}
		fmt.Println()
	}
}
