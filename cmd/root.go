// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"firestige.xyz/flowsniff/internal/capture"
	"firestige.xyz/flowsniff/internal/config"
	"firestige.xyz/flowsniff/internal/core"
	"firestige.xyz/flowsniff/internal/core/decoder"
	"firestige.xyz/flowsniff/internal/log"
	"firestige.xyz/flowsniff/internal/metrics"
	"firestige.xyz/flowsniff/internal/report"
	"firestige.xyz/flowsniff/internal/source"
)

// options holds flag values for one command invocation.
type options struct {
	configFile string
	interval   time.Duration
	format     string
	trace      bool
	pcapFile   string
	bpf        string
}

// NewRootCommand builds the flowsniff command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowsniff [flags] <interface>",
		Short: "flowsniff - per-flow packet counter for a live interface",
		Long: `flowsniff captures Ethernet frames from a network interface, decodes the
IPv4 and TCP/UDP headers, and counts packets per flow.

A summary of every flow seen so far is printed at a fixed interval
(10s by default) and once more when the process is interrupted.
Flows are direction-sensitive: A->B and B->A are reported separately.`,
		Example: `  flowsniff eth0
  flowsniff -i 5s --trace=false eth0
  flowsniff --pcap-file trace.pcap -f json`,
		Version:       "0.1.0",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			return runCapture(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"config file path (optional)")
	rootCmd.Flags().DurationVarP(&opts.interval, "interval", "i", capture.DefaultInterval,
		"report interval")
	rootCmd.Flags().StringVarP(&opts.format, "format", "f", config.FormatText,
		"report format: text, json or yaml")
	rootCmd.Flags().BoolVar(&opts.trace, "trace", true,
		"print a trace block for every classified frame")
	rootCmd.Flags().StringVar(&opts.pcapFile, "pcap-file", "",
		"replay a pcap/pcapng file instead of capturing live")
	rootCmd.Flags().StringVar(&opts.bpf, "bpf", "",
		"BPF filter expression (tcpdump syntax)")

	rootCmd.AddCommand(newValidateCommand(opts))
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig merges the config file, environment and changed flags.
func loadConfig(cmd *cobra.Command, opts *options, args []string) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if len(args) == 1 {
		cfg.Capture.Interface = args[0]
	}
	if opts.pcapFile != "" {
		cfg.Capture.Source = config.SourcePcap
		cfg.Capture.PcapFile = opts.pcapFile
	}
	if flags.Changed("interval") {
		cfg.Report.Interval = opts.interval
	}
	if flags.Changed("format") {
		cfg.Report.Format = opts.format
	}
	if flags.Changed("trace") {
		cfg.Report.Trace = opts.trace
	}
	if flags.Changed("bpf") {
		cfg.Capture.BPFFilter = opts.bpf
	}

	if cfg.Capture.Source == config.SourcePcap && cfg.Capture.Interface == "" {
		cfg.Capture.Interface = filepath.Base(cfg.Capture.PcapFile)
	}
	if cfg.Capture.Interface == "" {
		return nil, fmt.Errorf("%w: an interface argument is required", core.ErrConfigInvalid)
	}

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// runCapture wires logging, metrics, sinks and the capture loop, and blocks
// until the session ends.
func runCapture(parent context.Context, cfg *config.Config, out io.Writer) error {
	sessionID := uuid.NewString()
	closeLog, err := log.Setup(cfg.Log, sessionID)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer closeLog()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		endpoint, err := metrics.Listen(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			endpoint.Shutdown(shutdownCtx)
		}()
	}

	console := report.NewConsole(out, cfg.Report.Format)
	sinks, err := buildSinks(cfg.Report, console)
	if err != nil {
		return err
	}
	fanout := report.NewFanout(sinks...)
	defer fanout.Close()

	loop := capture.New(capture.Config{
		Interface: cfg.Capture.Interface,
		SessionID: sessionID,
		Interval:  cfg.Report.Interval,
		Decoder:   decoder.Options{HonorIHL: cfg.Decoder.HonorIHL},
		Trace:     cfg.Report.Trace,
	}, func() (source.FrameSource, error) {
		return source.Open(cfg.Capture)
	}, fanout, console)

	if cfg.Report.Format == config.FormatText {
		printBanner(out, cfg)
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}

	if cfg.Report.Format == config.FormatText {
		fmt.Fprintln(out, "Exiting....")
	}
	return nil
}

// buildSinks returns the console sink plus any enabled remote sinks.
func buildSinks(cfg config.ReportConfig, console *report.Console) ([]report.Sink, error) {
	sinks := []report.Sink{console}

	if cfg.Kafka.Enabled {
		k, err := report.NewKafkaSink(cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka sink: %w", err)
		}
		sinks = append(sinks, k)
	}

	if cfg.NATS.Enabled {
		n, err := report.NewNATSSink(cfg.NATS)
		if err != nil {
			for _, s := range sinks {
				s.Close()
			}
			return nil, fmt.Errorf("failed to create nats sink: %w", err)
		}
		sinks = append(sinks, n)
	}

	return sinks, nil
}

func printBanner(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "--------------- Start sniffing packets on "+cfg.Capture.Interface+" ---------------")
	fmt.Fprintf(out, "Every %s, the packet count of each flow is printed\n", cfg.Report.Interval)
	fmt.Fprintln(out, "Press Ctrl+C to stop and print the session statistics")
	fmt.Fprintln(out)
}
