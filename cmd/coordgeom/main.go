package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TFMV/coordgeom/pkg/config"
	"github.com/TFMV/coordgeom/pkg/eval"
	"github.com/TFMV/coordgeom/pkg/metrics"
)

// Version information
var version = "0.1.0" // Set during build

// cli carries the state shared by all commands
type cli struct {
	v          *viper.Viper
	cfgFile    string
	serverURL  string
	jsonOutput bool
	cfg        config.Config
	log        *zap.Logger
	out        io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out}

	rootCmd := &cobra.Command{
		Use:   "coordgeom",
		Short: "coordgeom - coordinate geometry helpers",
		Long: `coordgeom computes distances between parallel lines and vectors,
tests 3-D lines for intersection and vectors for orthogonality.

Vectors are given as JSON arrays, e.g. '[1,2,3]'.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	rootCmd.SetOut(out)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.coordgeom.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&c.serverURL, "server", "", "evaluate on a remote coordgeom server instead of locally")
	rootCmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "print results as JSON")
	if err := c.v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
	}

	rootCmd.AddCommand(
		c.parallelCmd(),
		c.distanceCmd(),
		c.intersectCmd(),
		c.orthogonalCmd(),
		c.batchCmd(),
		c.serveCmd(),
		c.configCmd(),
	)

	return rootCmd
}

// init reads the configuration and builds the logger
func (c *cli) init() error {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}

	issues := config.Validate(cfg)
	if config.HasErrors(issues) {
		return fmt.Errorf("invalid configuration:\n%s", config.FormatValidationIssues(issues))
	}
	c.cfg = cfg

	logger, err := setupLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	c.log = logger

	for _, issue := range issues {
		c.log.Debug("Configuration issue",
			zap.String("field", issue.Field),
			zap.String("severity", issue.Severity.String()),
			zap.String("message", issue.Message),
		)
	}
	return nil
}

// evaluator builds an Evaluator from the loaded configuration.
func (c *cli) evaluator(collector *metrics.Collector) *eval.Evaluator {
	return eval.NewEvaluator(eval.Options{
		DefaultMetric: c.cfg.Geometry.DefaultMetric,
		Concurrency:   c.cfg.Geometry.Concurrency,
	}, c.log, collector)
}

// setupLogger configures and returns a zap logger
func setupLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(lvl)

	// Configure the encoder
	logCfg.EncoderConfig.TimeKey = "time"
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	return logCfg.Build()
}
