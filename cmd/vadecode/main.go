// Package main provides the CLI entry point for vadecode.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vadecode/pkg/adapters/codecdetect"
	"github.com/user/vadecode/pkg/adapters/filesink"
	"github.com/user/vadecode/pkg/adapters/logger"
	"github.com/user/vadecode/pkg/adapters/osfilesystem"
	"github.com/user/vadecode/pkg/config"
	"github.com/user/vadecode/pkg/orchestrator"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/stages/decode"
	"github.com/user/vadecode/pkg/stages/demux"
	"github.com/user/vadecode/pkg/stages/report"
	"github.com/user/vadecode/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:        "vadecode",
		Usage:       l10n.T("Decode video with VA-API hardware acceleration"),
		Description: l10n.T("vadecode demuxes MP4 files and decodes their video tracks on a VA-API device."),
		Version:     version,
		Writer:      out,
		Commands: []*cli.Command{
			decodeCommand(out),
			probeCommand(out),
			devicesCommand(out),
		},
	}
}

// Flag categories
var (
	catConfig  = "Configuration"
	catDevice  = "Device"
	catDecode  = "Decoding"
	catOutput  = "Output"
	catDebug   = "Debug"
	catLogging = "Logging"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("Path to a YAML config file"), Category: l10n.T(catConfig)},
		&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: l10n.T("Accelerator backend (vaapi, nullaccel)"), Category: l10n.T(catDevice)},
		&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: l10n.T("Render node path (default: first usable node)"), Category: l10n.T(catDevice)},
		&cli.StringFlag{Name: "implementation", Usage: l10n.T("Override the detected driver (intel-ihd, mesa-gallium, intel-i965, other)"), Category: l10n.T(catDevice)},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(catLogging)},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(catLogging)},
	}
}

func decodeCommand(out io.Writer) *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{Name: "policy", Aliases: []string{"p"}, Usage: l10n.T("Missing reference policy (invalid, current, fail)"), Category: l10n.T(catDecode)},
		&cli.BoolFlag{Name: "static-pool", Usage: l10n.T("Bind a fixed surface pool at context creation"), Category: l10n.T(catDecode)},
		&cli.IntFlag{Name: "extra-surfaces", Usage: l10n.T("Surfaces allocated beyond the reference window"), Category: l10n.T(catDecode)},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: l10n.T("Number of files decoded at once (0 = CPU count)"), Category: l10n.T(catDecode)},
		&cli.BoolFlag{Name: "fail-fast", Usage: l10n.T("Stop after the first failed file"), Category: l10n.T(catDecode)},
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: l10n.T("Directory for stats and timeline files"), Category: l10n.T(catOutput)},
		&cli.BoolFlag{Name: "timeline", Usage: l10n.T("Render a decode order timeline PNG"), Category: l10n.T(catOutput)},
		&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: l10n.T("Output execution summary to file (Markdown format)"), Category: l10n.T(catOutput)},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"D"}, Usage: l10n.T("Enable debug output"), Category: l10n.T(catDebug)},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T(catDebug)},
	)
	return &cli.Command{
		Name:        "decode",
		Usage:       l10n.T("Decode the video track of MP4 files"),
		Description: l10n.T("Decode the H.264 video track of each MP4 file and report the decoding statistics."),
		ArgsUsage:   "FILE...",
		Flags:       flags,
		Action: func(c *cli.Context) error {
			return runDecode(c, out)
		},
	}
}

func probeCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "probe",
		Usage:       l10n.T("Show the video codec of MP4 files"),
		Description: l10n.T("Detect the codec and format of the first video track of each MP4 file."),
		ArgsUsage:   "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: l10n.T("Print JSON instead of a table"), Category: l10n.T(catOutput)},
		},
		Action: func(c *cli.Context) error {
			return runProbe(c, out)
		},
	}
}

func devicesCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "devices",
		Usage:       l10n.T("List the decoders of each device"),
		Description: l10n.T("Open every render node and list the decoders registered for it."),
		Flags:       commonFlags(),
		Action: func(c *cli.Context) error {
			return runDevices(c, out)
		},
	}
}

// loadConfig reads the config file, if any, and applies the flags over it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	applyFlags(c, &cfg)
	return cfg, cfg.Validate()
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	stringFlags := map[string]*string{
		"backend":        &cfg.Backend,
		"device":         &cfg.Device,
		"implementation": &cfg.Implementation,
		"log-level":      &cfg.LogLevel,
		"policy":         &cfg.MissingRefPolicy,
		"output-dir":     &cfg.OutputDir,
		"debug-dir":      &cfg.DebugDir,
	}
	for name, dst := range stringFlags {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	boolFlags := map[string]*bool{
		"static-pool": &cfg.StaticPool,
		"fail-fast":   &cfg.FailFast,
		"timeline":    &cfg.Timeline,
		"debug":       &cfg.Debug,
	}
	for name, dst := range boolFlags {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}
	if c.IsSet("extra-surfaces") {
		cfg.ExtraSurfaces = c.Int("extra-surfaces")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runDecode(c *cli.Context, out io.Writer) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return errors.New(l10n.T("At least one file argument is required"))
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)
	if path := c.String("config"); path != "" {
		log.Debug("Loading config from %s", path)
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	accel, err := openAccelerator(cfg)
	if err != nil {
		return err
	}
	defer accel.Close()

	registry, err := buildRegistry([]ports.Device{accel.Device}, func(ports.Device) (ports.Accelerator, func(), error) {
		return accel, func() {}, nil
	})
	if err != nil {
		return err
	}
	opts, err := cfg.DecodeOptions(accel.Implementation())
	if err != nil {
		return err
	}

	fs := osfilesystem.New()
	debugSink := func(name string) ports.DebugSink {
		if !cfg.Debug {
			return nil
		}
		return filesink.New(filepath.Join(cfg.DebugDir, report.BaseName(name)), fs)
	}

	orch := orchestrator.New(
		demux.NewStage(fs),
		decode.NewStage(accel.Accelerator, registry, opts, debugSink, log.WithComponent("decode")),
		report.NewStage(fs, debugSink, cfg.ReportOptions(), log.WithComponent("report")),
		log,
	)
	result, runErr := orch.Run(ctx, cfg.ToOrchestratorConfig(files))

	printStats(out, result)

	if path := c.String("summary"); path != "" {
		summary := summarizer.NewBuilder().
			WithSettings(summarizer.Settings{
				Backend:        cfg.Backend,
				Device:         accel.Device.Path,
				Implementation: cfg.ResolveImplementation(accel.Implementation()).String(),
				Policy:         opts.Policy.String(),
				StaticPool:     opts.StaticPool,
				ExtraSurfaces:  opts.ExtraSurfaces,
				Workers:        cfg.Workers,
			}).
			WithRun(result).
			Build()
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := writer.Write(path, summary); err != nil {
			log.Warn("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}
	return runErr
}

func printStats(out io.Writer, result orchestrator.RunResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, l10n.T("FILE\tDECODER\tDECODED\tDROPPED\tOUTPUT\tDUPLICATED\tSTATUS"))
	for _, f := range result.Files {
		status := "ok"
		switch {
		case f.Skipped:
			status = "skipped"
		case f.Err != nil:
			status = "failed"
		}
		s := f.Decode.Stats
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			filepath.Base(f.Path), f.Decode.Factory, s.Decoded, s.Dropped, s.Output, s.Duplicated, l10n.T(status))
	}
	w.Flush()
}

func runProbe(c *cli.Context, out io.Writer) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return errors.New(l10n.T("At least one file argument is required"))
	}

	type probed struct {
		File string `json:"file"`
		codecdetect.Info
		Error string `json:"error,omitempty"`
	}
	var results []probed
	var errs []error
	for _, path := range files {
		info, err := codecdetect.DetectFromFile(path)
		p := probed{File: path, Info: info}
		if err != nil {
			p.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
		results = append(results, p)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
		return errors.Join(errs...)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, l10n.T("FILE\tCODEC\tENTRY\tSIZE\tTIMESCALE\tFRAGMENTED"))
	for _, p := range results {
		if p.Error != "" {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\n", p.File)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%t\n",
			p.File, p.Codec, p.SampleEntry, p.Width, p.Height, p.Timescale, p.Fragmented)
	}
	w.Flush()
	return errors.Join(errs...)
}

func runDevices(c *cli.Context, out io.Writer) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	devices, err := listDevices(cfg)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(devices, func(d ports.Device) (ports.Accelerator, func(), error) {
		accel, err := openDevice(cfg, d)
		if err != nil {
			return nil, nil, err
		}
		return accel, func() { accel.Close() }, nil
	})
	if err != nil {
		log.Warn("%s", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, l10n.T("DECODER\tCODEC\tDEVICE\tVENDOR\tPRIORITY"))
	for _, f := range registry.Factories() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", f.Name, f.Codec, f.Device.Path, f.Device.Vendor, f.Priority)
	}
	return w.Flush()
}
