package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/evolve/internal/adapter/gateway/repair"
	"github.com/YoshitsuguKoike/evolve/internal/adapter/presenter"
	"github.com/YoshitsuguKoike/evolve/internal/app"
	"github.com/YoshitsuguKoike/evolve/internal/app/config"
	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
	appservice "github.com/YoshitsuguKoike/evolve/internal/application/service"
	"github.com/YoshitsuguKoike/evolve/internal/application/usecase/evolve"
	"github.com/YoshitsuguKoike/evolve/internal/buildinfo"
	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
	"github.com/YoshitsuguKoike/evolve/internal/domain/service"
	infraConfig "github.com/YoshitsuguKoike/evolve/internal/infra/config"
	"github.com/YoshitsuguKoike/evolve/internal/infra/persistence/file"
	"github.com/YoshitsuguKoike/evolve/internal/infra/terminal"
)

type rootFlags struct {
	configPath  string
	apiURL      string
	maxAttempts int
	retryDelay  time.Duration
	journal     string
	logLevel    string
	summary     string
	noEcho      bool
}

// NewRoot builds the evolve command
func NewRoot() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   usageLine,
		Short: "Run a script and repair it until it succeeds",
		Long: `evolve runs a script under a pseudo-terminal. When the script fails,
its source and output are sent to a repair service and the corrected
script replaces the original, which is backed up once as <path>.backup.
The loop repeats until a run succeeds.`,
		Version:       buildinfo.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			return runEvolve(c, flags, args)
		},
	}

	// Everything after the script path belongs to the script
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVar(&flags.configPath, "config", "", "settings file (default $EVOLVE_HOME/setting.{json,yaml,yml})")
	cmd.Flags().StringVar(&flags.apiURL, "api-url", "", "repair service endpoint")
	cmd.Flags().IntVar(&flags.maxAttempts, "max-attempts", 0, "stop after this many attempts (0 = unlimited)")
	cmd.Flags().DurationVar(&flags.retryDelay, "retry-delay", 0, "first delay after the repair service is unavailable")
	cmd.Flags().StringVar(&flags.journal, "journal", "", "append one JSON line per attempt to this file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().StringVar(&flags.summary, "summary", presenter.FormatNone, "print a run summary: none, table or json")
	cmd.Flags().BoolVar(&flags.noEcho, "no-echo", false, "do not mirror script output")

	return cmd
}

// Execute runs the root command against os.Args and returns the exit code
func Execute() int {
	return ExecuteArgs(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteArgs runs the root command with explicit arguments and streams
func ExecuteArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	globalLogger = nil

	cmd := NewRoot()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, script.ErrUsage):
		fmt.Fprintf(stderr, "Usage: %s\n", usageLine)
		fmt.Fprint(stderr, cmd.Flags().FlagUsages())
	default:
		logger := globalLogger
		if logger == nil {
			logger = NewLogger(LogLevelInfo, stderr)
		}
		logger.Error("%v", err)
	}
	return ExitCode(err)
}

func runEvolve(c *cobra.Command, flags *rootFlags, args []string) error {
	stdout := c.OutOrStdout()

	cfg, err := infraConfig.LoadSettings(flags.configPath, flags.overrides(c))
	if err != nil {
		return err
	}

	logger := InitializeLoggers(InitGlobalLogger(cfg.LogLevel(), c.ErrOrStderr()))
	logger.Debug("%s", buildinfo.Banner())
	logger.Debug("Configuration loaded from %s %s", cfg.ConfigSource(), cfg.SettingPath())

	summary, err := presenter.NewRunPresenter(flags.summary, stdout)
	if err != nil {
		return fmt.Errorf("%w: %v", script.ErrUsage, err)
	}

	in, err := newTargetResolver(terminal.IsExecutable).resolve(args)
	if err != nil {
		return err
	}
	in.MaxAttempts = cfg.MaxAttempts()
	in.RetryDelay = cfg.RetryDelay()
	in.MaxRetryDelay = cfg.MaxRetryDelay()
	in.BackupSuffix = cfg.BackupSuffix()

	useCase, err := buildUseCase(cfg, logger, stdout)
	if err != nil {
		return err
	}

	ctx, cancel := setupSignalHandler(c.Context())
	defer cancel()

	report, runErr := useCase.Execute(ctx, in)
	if report != nil {
		if err := summary.PresentRun(report); err != nil {
			logger.Warn("Failed to print summary: %v", err)
		}
	}
	return runErr
}

// overrides collects the flags the user actually set
func (f *rootFlags) overrides(c *cobra.Command) *infraConfig.RawSettings {
	o := &infraConfig.RawSettings{}
	changed := c.Flags().Changed
	if changed("api-url") {
		o.APIURL = &f.apiURL
	}
	if changed("max-attempts") {
		o.MaxAttempts = &f.maxAttempts
	}
	if changed("retry-delay") {
		ms := int(f.retryDelay / time.Millisecond)
		o.RetryDelayMs = &ms
	}
	if changed("journal") {
		o.JournalPath = &f.journal
	}
	if changed("log-level") {
		o.LogLevel = &f.logLevel
	}
	if changed("no-echo") {
		echo := !f.noEcho
		o.EchoOutput = &echo
	}
	return o
}

// buildUseCase wires the adapters for one run
func buildUseCase(cfg config.Config, logger app.Logger, stdout io.Writer) (*evolve.RunScriptUseCase, error) {
	fs := afero.NewOsFs()
	store := file.NewScriptStore(fs)

	var resolverOpts []appservice.ResolverOption
	if cfg.RequireInterpreter() {
		resolverOpts = append(resolverOpts, appservice.RequireInterpreterOnPath())
	}
	normalizer := appservice.NewShebangNormalizer(appservice.NewContentTypeResolver(resolverOpts...), store)

	spawner := terminal.NewPTYSpawner()
	spawner.TermName = cfg.TermName()
	spawner.Cols = cfg.TermCols()
	spawner.Rows = cfg.TermRows()
	spawner.DrainTimeout = cfg.DrainTimeout()
	if f, ok := stdout.(*os.File); ok {
		spawner.SizeFrom = f
	}

	var execOpts []appservice.ExecutorOption
	if cfg.EchoOutput() {
		execOpts = append(execOpts, appservice.WithEcho(stdout))
	}
	executor := appservice.NewTerminalExecutor(spawner, terminal.IsExecutable, execOpts...)

	classifier, err := service.NewPatternClassifier(cfg.ErrorPatterns(), cfg.IgnoreCase())
	if err != nil {
		return nil, fmt.Errorf("invalid error pattern: %w", err)
	}

	gateway := repair.NewHTTPRepairGateway(cfg.APIURL(),
		repair.WithAPIKey(cfg.APIKey()),
		repair.WithTimeout(cfg.RequestTimeout()),
	)

	var journal output.AttemptJournal = output.NopJournal{}
	if path := cfg.JournalPath(); path != "" {
		journal = file.NewAttemptJournal(fs, path)
		logger.Debug("Writing attempt journal to %s", path)
	}

	coordinator := evolve.NewRepairCoordinator(gateway, store, logger)
	useCase := evolve.NewRunScriptUseCase(normalizer, executor, classifier, coordinator, journal, logger)
	return useCase, nil
}
