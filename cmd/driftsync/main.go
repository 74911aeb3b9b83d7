package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/driftsync/driftsync/internal/client/progress"
	"github.com/driftsync/driftsync/internal/client/sim"
	"github.com/driftsync/driftsync/internal/utils"
	"github.com/driftsync/driftsync/internal/version"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var home, _ = os.UserHomeDir()

var rootCmd = &cobra.Command{
	Use:     "driftsync",
	Short:   "DriftSync progress estimation demo",
	Long:    "Replays a synthetic sync run through the DriftSync progress-estimation core and reports bandwidth/ETA once per tick.",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		maxFileSize, err := humanize.ParseBytes(viper.GetString("max_file_size"))
		if err != nil {
			return fmt.Errorf("invalid max-file-size: %w", err)
		}
		bandwidth, err := humanize.ParseBytes(viper.GetString("bandwidth"))
		if err != nil {
			return fmt.Errorf("invalid bandwidth: %w", err)
		}

		opts := sim.Options{
			Files:        viper.GetInt("files"),
			Dirs:         viper.GetInt("dirs"),
			Deletes:      viper.GetInt("deletes"),
			MaxFileSize:  maxFileSize,
			Bandwidth:    bandwidth,
			Parallel:     viper.GetInt("parallel"),
			TickInterval: viper.GetDuration("interval"),
			Seed:         viper.GetInt64("seed"),
		}

		cmd.SilenceUsage = true
		showHeader()

		notifier := progress.NewNotifier()
		defer notifier.Close()
		notifier.Subscribe(sim.LogObserver(slog.Default()))

		runner := sim.NewRunner(opts, notifier)
		if err := runner.Run(cmd.Context()); err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("sync run cancelled", "group", runner.GroupKey())
				return nil
			}
			return err
		}

		if viper.GetBool("json") {
			out, err := json.MarshalIndent(runner.Snapshot(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			fmt.Println(string(out))
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().Int("files", 200, "Number of transferred files in the plan")
	rootCmd.Flags().Int("dirs", 10, "Number of created directories")
	rootCmd.Flags().Int("deletes", 50, "Number of delete operations")
	rootCmd.Flags().String("max-file-size", "8MiB", "Upper bound for random file sizes")
	rootCmd.Flags().String("bandwidth", "4MiB", "Bytes transferred per tick")
	rootCmd.Flags().Int("parallel", 3, "Concurrent transfer slots")
	rootCmd.Flags().Duration("interval", time.Second, "Estimator tick interval")
	rootCmd.Flags().Int64("seed", 0, "Plan RNG seed")
	rootCmd.Flags().Bool("json", false, "Print the final snapshot as JSON")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")
}

func main() {
	// logging must be configured before cobra parses flags, so the
	// log-file flag is picked out of the raw arguments
	var logFile string
	for i, arg := range os.Args {
		if arg == "--log-file" && i+1 < len(os.Args) {
			logFile = os.Args[i+1]
		} else if v, ok := strings.CutPrefix(arg, "--log-file="); ok {
			logFile = v
		}
	}

	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})

	var handler slog.Handler = stdoutHandler
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
			os.Exit(1)
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = utils.NewMultiLogHandler(stdoutHandler, fileHandler)
	}
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	viper.AddConfigPath(filepath.Join(home, ".driftsync"))
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	for _, flag := range []string{
		"files", "dirs", "deletes", "parallel", "interval", "seed", "json",
	} {
		viper.BindPFlag(flag, cmd.Flags().Lookup(flag))
	}
	viper.BindPFlag("max_file_size", cmd.Flags().Lookup("max-file-size"))
	viper.BindPFlag("bandwidth", cmd.Flags().Lookup("bandwidth"))

	viper.SetEnvPrefix("DRIFTSYNC")
	viper.AutomaticEnv()

	return nil
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).
		Printf("%s %s\n", version.AppName, version.Short())
}
