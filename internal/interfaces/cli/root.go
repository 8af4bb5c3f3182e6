// Package cli implements racctl, the command-line front end of the descriptor
// service. Commands run the engine in process; only export and graph-store
// commands reach external systems.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/RAC-Descriptors/internal/application/descriptor"
	"github.com/turtacn/RAC-Descriptors/internal/config"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/database/neo4j"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/storage/minio"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputCSV   = "csv"
)

type cliContextKey struct{}

// ExportStore reads and writes exported descriptor tables.
// *minio.TableStore implements it.
type ExportStore interface {
	descriptor.TableStore
	GetTable(ctx context.Context, batchID, format string) (*rac.Table, error)
}

// Dependencies overrides the external systems the CLI would otherwise open
// from configuration.
type Dependencies struct {
	Tables ExportStore
	Loader descriptor.MoleculeLoader
}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	NoColor      bool
	Timeout      time.Duration

	Depth      int
	Properties []string
	AtomStats  []string
	MolStats   []string
	LabelKey   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Service      *descriptor.Service
	Tables       ExportStore
	OutputFormat string
	Timeout      time.Duration

	engine     rac.Config
	serviceOpt []descriptor.Option
	closers    []func() error
}

// NewRootCommand creates racctl with every subcommand registered.
func NewRootCommand(deps Dependencies) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "racctl",
		Short: "Compute revised autocorrelation (RAC) descriptors for molecular graphs",
		Long: "racctl computes RAC descriptor vectors for molecules given as graph documents\n" +
			"or SMILES strings, builds descriptor tables for batches, and manages tables\n" +
			"exported to object storage.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts, deps)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPostRun(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: RAC_* environment and built-in defaults)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputTable, "output format (table, json, csv)")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "overall operation timeout")

	pf.IntVar(&opts.Depth, "depth", rac.DefaultDepth, "maximum topological distance")
	pf.StringSliceVar(&opts.Properties, "properties", nil, "properties to compute (default: all built-in)")
	pf.StringSliceVar(&opts.AtomStats, "atom-stats", nil, "atom statistics: sum, std, min, max")
	pf.StringSliceVar(&opts.MolStats, "mol-stats", nil, "molecular statistics: sum, std, min, max")
	pf.StringVar(&opts.LabelKey, "label-key", "", "node attribute holding the element symbol")

	cmd.AddCommand(
		NewComputeCmd(),
		NewBatchCmd(),
		NewPropertiesCmd(),
		NewElementCmd(),
		NewExportCmd(),
		NewVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, deps Dependencies) error {
	color.NoColor = color.NoColor || opts.NoColor

	switch opts.OutputFormat {
	case OutputTable, OutputJSON, OutputCSV:
	default:
		return apperrors.Newf(apperrors.ErrCodeValidation, "unsupported output format %q, want table, json or csv", opts.OutputFormat)
	}

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if cmd.Flags().Changed("log-level") || opts.ConfigPath == "" {
		cfg.Log.Level = opts.LogLevel
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	engine, err := engineConfig(cmd, cfg, opts)
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Tables:       deps.Tables,
		OutputFormat: opts.OutputFormat,
		Timeout:      opts.Timeout,
	}
	svcOpts := []descriptor.Option{
		descriptor.WithLogger(logger),
		descriptor.WithMaxBatchSize(cfg.RAC.MaxBatchSize),
		descriptor.WithProgress(func(done, total int) {
			logger.Debug("batch progress", logging.Int("done", done), logging.Int("total", total))
		}),
	}

	if cliCtx.Tables == nil && cfg.MinIO.Enabled() {
		client, err := minio.NewClient(cfg.MinIO.Client(), logger)
		if err != nil {
			logger.Warn("object store unavailable, export disabled", logging.Err(err))
		} else {
			cliCtx.Tables = minio.NewTableStore(client, logger)
			cliCtx.closers = append(cliCtx.closers, client.Close)
		}
	}
	if cliCtx.Tables != nil {
		svcOpts = append(svcOpts, descriptor.WithTableStore(cliCtx.Tables))
	}

	loader := deps.Loader
	if loader == nil && cfg.Neo4j.Enabled() {
		driver, err := neo4j.NewDriver(cfg.Neo4j.Driver(), logger)
		if err != nil {
			logger.Warn("graph store unavailable", logging.Err(err))
		} else {
			loader = neo4j.NewMoleculeSource(driver, engine.ElementLabelKey, logger)
			cliCtx.closers = append(cliCtx.closers, driver.Close)
		}
	}
	if loader != nil {
		svcOpts = append(svcOpts, descriptor.WithMoleculeLoader(loader))
	}

	svc, err := descriptor.NewService(engine, svcOpts...)
	if err != nil {
		return err
	}
	cliCtx.Service = svc
	cliCtx.engine = engine
	cliCtx.serviceOpt = svcOpts

	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

func persistentPostRun(cmd *cobra.Command) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil
	}
	for _, c := range cliCtx.closers {
		if err := c(); err != nil {
			cliCtx.Logger.Warn("close failed", logging.Err(err))
		}
	}
	_ = cliCtx.Logger.Sync()
	return nil
}

// engineConfig applies the engine flags the user set on top of the
// configured engine.
func engineConfig(cmd *cobra.Command, cfg *config.Config, opts *RootOptions) (rac.Config, error) {
	engine, err := cfg.RAC.ToEngineConfig()
	if err != nil {
		return rac.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("depth") {
		engine.Depth = opts.Depth
	}
	if flags.Changed("properties") {
		engine.Properties = opts.Properties
	}
	if flags.Changed("atom-stats") {
		if engine.AtomStats, err = rac.ParseStatistics(opts.AtomStats); err != nil {
			return rac.Config{}, err
		}
	}
	if flags.Changed("mol-stats") {
		if engine.MolecularStats, err = rac.ParseStatistics(opts.MolStats); err != nil {
			return rac.Config{}, err
		}
	}
	if flags.Changed("label-key") {
		engine.ElementLabelKey = opts.LabelKey
	}
	return engine, nil
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "CLI context not initialized")
	}
	return cliCtx, nil
}

// serviceWith builds a service like Service with extra options appended.
func (c *CLIContext) serviceWith(extra ...descriptor.Option) (*descriptor.Service, error) {
	opts := append(append([]descriptor.Option(nil), c.serviceOpt...), extra...)
	return descriptor.NewService(c.engine, opts...)
}

// operationContext bounds a command by --timeout.
func (c *CLIContext) operationContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), c.Timeout)
}

// Execute runs racctl with args and returns the process exit code.
func Execute(deps Dependencies, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		PrintError(cmd, err)
		return 1
	}
	return 0
}

// PrintError writes err to stderr, with its error code when it has one.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	prefix := color.New(color.FgRed, color.Bold).Sprint("Error:")
	if code := apperrors.GetCode(err); code != apperrors.CodeUnknown {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%s)\n", prefix, strings.TrimPrefix(err.Error(), "["+string(code)+"] "), code)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", prefix, err.Error())
}
