package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xoelrdgz/polystream/internal/adapters/output"
	"github.com/xoelrdgz/polystream/internal/adapters/processor"
	"github.com/xoelrdgz/polystream/internal/app"
	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

var (
	cfgFile   string
	jsonOut   bool
	logLevel  string
	metricsOn bool

	dataFile  string
	demoMode  bool
	demoRate  int
	demoCount int
	tailPath  string
	fromStart bool

	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "polystream",
	Short: "Polymorphic data processors and batch streams",
	Long: `polystream runs heterogeneous data through a family of processors
and batch-oriented streams that share one interface.

Processors validate, process and format single data items (numbers, text,
log lines). Streams aggregate batches, filter them by named criteria and
keep per-stream statistics; an orchestrator drives every stream and
isolates failures.`,
	SilenceUsage: true,
}

var processorsCmd = &cobra.Command{
	Use:   "processors",
	Short: "Run the processor demo",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			return runProcessors(s)
		})
	},
}

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "Run batches through the configured streams",
	Long: `Process a data set through the streams, filter it and print the
stream statistics.

Examples:
  polystream streams
  polystream streams --data ./testdata/streams.yaml
  polystream streams --demo --batches 20 --rate 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			return runStreams(s)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the processor demo followed by the stream demo",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			if err := runProcessors(s); err != nil {
				return err
			}
			return runStreams(s)
		})
	},
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow a log file through the log processor and an event stream",
	Long: `Follow a log file. Every line goes through the log processor; lines
are grouped into event batches, aggregated and filtered with the configured
criteria. Criteria changes in the config file apply without a restart.

Examples:
  polystream tail --log /var/log/app.log
  polystream tail --log ./app.log --from-start --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			return runTail(s)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("polystream %s\n", Version)
		fmt.Printf("Commit:  %s\n", Commit)
		fmt.Printf("Built:   %s\n", BuildTime)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	pf.BoolVar(&jsonOut, "json", false, "write results as JSON lines")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&metricsOn, "metrics", false, "serve Prometheus metrics and stream stats")

	viper.BindPFlag("output.json", pf.Lookup("json"))
	viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	viper.BindPFlag("output.metrics.enabled", pf.Lookup("metrics"))

	streamsCmd.Flags().StringVar(&dataFile, "data", "", "YAML data set to process")
	streamsCmd.Flags().BoolVar(&demoMode, "demo", false, "generate synthetic batches")
	streamsCmd.Flags().IntVar(&demoCount, "batches", 0, "demo mode: number of batch sets (0 uses demo.batches)")
	streamsCmd.Flags().IntVar(&demoRate, "rate", 0, "demo mode: batch sets per second (0 uses demo.rate)")

	tailCmd.Flags().StringVarP(&tailPath, "log", "l", "", "log file to follow")
	tailCmd.Flags().BoolVar(&fromStart, "from-start", false, "read the file from the beginning")

	rootCmd.AddCommand(processorsCmd, streamsCmd, runCmd, tailCmd, versionCmd)
}

func initConfig() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/polystream")
	}

	app.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn().Err(err).Msg("Error reading config file")
		}
	}

	viper.SetEnvPrefix("POLYSTREAM")
	viper.AutomaticEnv()
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch viper.GetString("logging.level") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if viper.GetBool("output.json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}
}

// session is what every command shares: settings, reporters and the
// optional metrics surface.
type session struct {
	ctx      context.Context
	settings app.Settings
	metrics  *domain.RunMetrics
	reporter ports.Reporter
	console  *output.ConsoleReporter
	memory   *output.MemoryReporter
	prom     *output.PrometheusMetrics
}

func withSession(ctx context.Context, fn func(*session) error) error {
	setupLogging()

	settings, err := app.LoadSettings(viper.GetViper())
	if err != nil {
		return err
	}

	s := &session{
		ctx:      ctx,
		settings: settings,
		metrics:  domain.NewRunMetrics(),
	}

	if viper.GetBool("output.json") {
		jsonRep, err := output.NewJSONReporter(output.JSONReporterConfig{Stdout: true})
		if err != nil {
			return fmt.Errorf("failed to create JSON reporter: %w", err)
		}
		defer jsonRep.Close()
		s.reporter = jsonRep
	} else {
		s.console = output.NewConsoleReporter(os.Stdout)
		s.reporter = s.console
	}

	if viper.GetBool("output.metrics.enabled") {
		s.prom = output.NewPrometheusMetrics("polystream", s.metrics)
		s.memory = output.NewMemoryReporter(500)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.prom.StopServer(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to stop metrics server")
			}
		}()
	}

	return fn(s)
}

// startMetrics serves the metrics once the stats source is known.
func (s *session) startMetrics(stats output.StatsSource) {
	if s.prom == nil || s.prom.Addr() != "" {
		return
	}
	cfg := output.DefaultMetricsConfig()
	cfg.Port = viper.GetString("output.metrics.port")
	extra := map[string]http.Handler{"/recent": output.NewRecentHandler(s.memory)}
	if err := s.prom.StartServer(cfg, stats, extra); err != nil {
		log.Warn().Err(err).Msg("Failed to start metrics server")
		return
	}
	log.Debug().Str("addr", s.prom.Addr()).Msg("Metrics server started")
}

func (s *session) note(format string, args ...any) {
	if s.console != nil {
		s.console.Note(format, args...)
	}
}

func (s *session) newRunner() *app.ProcessorRunner {
	runner := app.NewProcessorRunner(s.metrics)
	runner.AddReporter(s.reporter)
	if s.prom != nil {
		runner.AddObserver(s.prom)
		runner.AddReporter(s.memory)
	}
	return runner
}

func (s *session) newStreamProcessor(streams []ports.DataStream) (*app.StreamProcessor, error) {
	sp, err := app.NewStreamProcessor(streams, s.metrics)
	if err != nil {
		return nil, err
	}
	sp.AddReporter(s.reporter)
	if s.prom != nil {
		sp.AddObserver(s.prom)
		sp.AddReporter(s.memory)
	}
	return sp, nil
}

func (s *session) processors() []ports.DataProcessor {
	logCfg := processor.DefaultLogProcessorConfig()
	logCfg.MaxMessage = s.settings.LogMaxMessage
	return []ports.DataProcessor{
		processor.NewNumericProcessor(),
		processor.NewTextProcessor(),
		processor.NewLogProcessor(logCfg),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
