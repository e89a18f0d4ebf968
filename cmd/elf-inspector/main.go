package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/raven-betanet/elf-inspector/internal/checks"
	"github.com/raven-betanet/elf-inspector/internal/elfhdr"
	"github.com/raven-betanet/elf-inspector/internal/report"
	"github.com/raven-betanet/elf-inspector/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(afero.NewOsFs()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options is resolved once per invocation from flags, environment and config
// file, and is not modified afterwards.
type options struct {
	format    report.Format
	flags     elfhdr.FlagsPolicy
	decode    elfhdr.Options
	runChecks bool
	checkIDs  []string
	logger    *utils.Logger
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	var (
		configFile string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   utils.AppName + " [flags] <file>",
		Short: "Inspect the ELF header and program header table of a file",
		Long: `elf-inspector reads the 64-byte ELF file header of the given file, checks the
magic number, and prints every header field followed by one block per entry of
the program header table.

Exit codes:
  0 - Report printed, or the file is not an ELF file, or usage was shown
  1 - The file could not be opened, or its header or program headers are truncated`,
		Version:       utils.GetVersionString(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_, err := fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
				return err
			}

			opts, err := loadOptions(cmd, fs, configFile, verbose)
			if err != nil {
				return err
			}
			return inspect(cmd.Context(), cmd.OutOrStdout(), fs, args[0], opts)
		},
	}
	cmd.SetVersionTemplate(utils.VersionTemplate())

	cmd.Flags().StringP("format", "f", "text", "Output format (text, json, table)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().String("flags-mode", "literal", "Segment flags labelling (literal, bitmask)")
	cmd.Flags().String("byte-order", "little", "Byte order of multi-byte fields (little, header)")
	cmd.Flags().String("layout", "fixed64", "Field layout (fixed64, standard)")
	cmd.Flags().Bool("checks", false, "Run header consistency checks")
	cmd.Flags().StringSlice("check", nil, "Run only the named checks, e.g. --check phentsize,flags (implies --checks)")

	return cmd
}

var flagKeys = map[string]string{
	"format":     "output.format",
	"checks":     "output.checks",
	"check":      "output.check_ids",
	"flags-mode": "decode.flags",
	"byte-order": "decode.byte_order",
	"layout":     "decode.layout",
}

func loadOptions(cmd *cobra.Command, fs afero.Fs, configFile string, verbose bool) (*options, error) {
	bootLevel := utils.LogLevelWarn
	if verbose {
		bootLevel = utils.LogLevelDebug
	}

	cm := utils.NewConfigManager(fs)
	cm.SetLogger(utils.NewLogger(utils.LoggerConfig{Level: bootLevel, Output: cmd.ErrOrStderr()}))
	for name, key := range flagKeys {
		if err := cm.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}
	if err := cm.LoadConfig(configFile); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cm.GetConfig()

	level, err := utils.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = utils.LogLevelDebug
	}

	opts := &options{
		runChecks: cfg.Output.Checks || len(cfg.Output.CheckIDs) > 0,
		checkIDs:  cfg.Output.CheckIDs,
		logger: utils.NewLogger(utils.LoggerConfig{
			Level:  level,
			Format: utils.ParseLogFormat(cfg.Log.Format),
			Output: cmd.ErrOrStderr(),
		}),
	}
	if opts.format, err = report.ParseFormat(cfg.Output.Format); err != nil {
		return nil, err
	}
	if opts.flags, err = elfhdr.ParseFlagsPolicy(cfg.Decode.Flags); err != nil {
		return nil, err
	}
	if opts.decode.ByteOrder, err = elfhdr.ParseByteOrderPolicy(cfg.Decode.ByteOrder); err != nil {
		return nil, err
	}
	if opts.decode.Layout, err = elfhdr.ParseLayoutPolicy(cfg.Decode.Layout); err != nil {
		return nil, err
	}

	registry := checks.NewDefaultRegistry(opts.flags)
	for _, id := range opts.checkIDs {
		if _, ok := registry.Get(id); !ok {
			return nil, fmt.Errorf("unknown check %q", id)
		}
	}
	return opts, nil
}

func inspect(ctx context.Context, out io.Writer, fs afero.Fs, path string, opts *options) error {
	log := opts.logger.WithContext(map[string]interface{}{
		"path":       path,
		"layout":     string(opts.decode.Layout),
		"byte_order": string(opts.decode.ByteOrder),
	})
	log.Debug("Parsing ELF headers")

	f, err := elfhdr.ParseFile(ctx, fs, path, opts.decode)
	if err != nil {
		var notELF *elfhdr.NotELFError
		if errors.As(err, &notELF) {
			log.WithField("magic", notELF.Hex()).Debug("Magic mismatch")
			return report.NotELF(out, path, notELF)
		}
		return err
	}
	log.Debugf("Decoded %d program header(s) with the %s layout", len(f.Segments), f.Layout)

	var checkReport *checks.Report
	if opts.runChecks {
		runner := checks.NewRunner(checks.NewDefaultRegistry(opts.flags))
		if len(opts.checkIDs) > 0 {
			checkReport = runner.RunSelected(f, opts.checkIDs)
		} else {
			checkReport = runner.RunAll(f)
		}
		for _, w := range checkReport.Warnings() {
			opts.logger.WithComponent("checks").WithField("check", w.ID).Warn(w.Message)
		}
	}

	return report.Render(out, f, checkReport, report.Options{Format: opts.format, FlagsPolicy: opts.flags})
}
