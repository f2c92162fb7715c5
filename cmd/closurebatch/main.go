// Package main is the CLI entry point for closurebatch.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/closurebatch/internal/compiler"
	"github.com/eliteGoblin/closurebatch/internal/config"
	"github.com/eliteGoblin/closurebatch/internal/domain"
	"github.com/eliteGoblin/closurebatch/internal/guard"
	"github.com/eliteGoblin/closurebatch/internal/infra"
	"github.com/eliteGoblin/closurebatch/internal/resolver"
	"github.com/eliteGoblin/closurebatch/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "closurebatch",
	Short: "Compile a directory of JavaScript sources file by file",
	Long: `closurebatch walks an input directory, skips files matching exclude
patterns, and runs a single-shot compiler once per remaining file, writing the
result under the output directory with an optional version suffix.

Compiler exits never terminate closurebatch itself.`,
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile every selected source file",
	Long: `Runs the configured compiler once per selected source file.
Files whose target is up to date are skipped unless --force is given.
Exits non-zero on a configuration error or if any file failed.`,
	SilenceUsage: true,
	RunE:         runCompile,
}

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "Show the work plan without compiling",
	Long:         `Shows which files would be compiled, where their output goes, and which are excluded.`,
	SilenceUsage: true,
	RunE:         runList,
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List compiler backends",
	RunE:  runBackends,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath      string
	inputDir        string
	outputDir       string
	level           string
	versionTag      string
	recursive       bool
	excludes        []string
	extension       string
	backend         string
	compilerCommand string
	stateFile       string
	force           bool
	failFast        bool
	logLevel        string
	showProgress    bool
	jsonOutput      bool
)

func init() {
	for _, cmd := range []*cobra.Command{compileCmd, listCmd} {
		f := cmd.Flags()
		f.StringVarP(&configPath, "config", "c", "", "Config file (default ./"+config.DefaultFile+" if present)")
		f.StringVarP(&inputDir, "input", "i", "", "Directory scanned for source files")
		f.StringVarP(&outputDir, "output", "o", "", "Directory compiled files are written under")
		f.StringVar(&versionTag, "version", "", "Tag inserted into output names (name.js -> name-<version>.js)")
		f.BoolVarP(&recursive, "recursive", "r", true, "Scan subdirectories")
		f.StringArrayVarP(&excludes, "exclude", "e", nil, "Regular expression; matching paths are skipped (repeatable)")
		f.StringVar(&extension, "extension", domain.DefaultExtension, "Source file extension")
		f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	}

	compileCmd.Flags().StringVarP(&level, "level", "l", config.DefaultLevel, "Compilation level passed to the compiler")
	compileCmd.Flags().StringVar(&backend, "backend", compiler.BackendProcess, "Compiler backend (see 'closurebatch backends')")
	compileCmd.Flags().StringVar(&compilerCommand, "compiler-command", "",
		"External compiler command; {level}, {source} and {target} are substituted")
	compileCmd.Flags().StringVar(&stateFile, "state", "", "Stamp database (default: per output directory under the user cache directory)")
	compileCmd.Flags().BoolVar(&force, "force", false, "Recompile files whose target is up to date")
	compileCmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop after the first failed file")
	compileCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig layers explicitly set flags over the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputDir = inputDir
	}
	if f.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if f.Changed("level") {
		cfg.CompilationLevel = level
	}
	if f.Changed("version") {
		cfg.Version = versionTag
	}
	if f.Changed("recursive") {
		cfg.Recursive = recursive
	}
	if f.Changed("exclude") {
		cfg.Excludes = excludes
	}
	if f.Changed("extension") {
		cfg.Extension = extension
	}
	if f.Changed("backend") {
		cfg.Compiler.Backend = backend
	}
	if f.Changed("compiler-command") {
		cfg.Compiler.Command = strings.Fields(compilerCommand)
	}
	if f.Changed("state") {
		cfg.StateFile = stateFile
	}
	if f.Changed("force") {
		cfg.Force = force
	}
	if f.Changed("fail-fast") {
		cfg.FailFast = failFast
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := createLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	// Initialize components
	fs := infra.NewFileSystemManager()
	hook := guard.NewHook(guard.ProcessExit)
	boundary := guard.NewBoundary(hook)

	comp, err := compiler.NewRegistry().Build(cfg.Compiler.Backend, compiler.Env{
		Boundary: boundary,
		Command:  cfg.Compiler.Command,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	store := openStampStore(cfg, fs, logger)
	if store != nil {
		defer store.Close()
	}

	controller := guard.NewController(comp, boundary, guard.NewUpToDate(fs, store, logger), fs, logger)
	res := resolver.New(fs, logger)

	var orchestrator domain.Orchestrator
	if showProgress {
		orchestrator = usecase.NewOrchestratorWithObserver(res, controller, &progressObserver{}, logger)
	} else {
		orchestrator = usecase.NewOrchestrator(res, controller, logger)
	}

	// Stop between files on Ctrl-C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := orchestrator.Run(ctx, cfg.RunConfig())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDirectories) {
			return errors.New("the given directories are not valid or are missing, please check the configuration")
		}
		return err
	}

	printReport(report)

	if err := report.Err(); err != nil {
		return fmt.Errorf("%d of %d files failed", len(report.Failed()), len(report.Files))
	}
	return nil
}

// openStampStore returns nil when no usable store can be opened; every file
// is then compiled.
func openStampStore(cfg *config.Config, fs domain.FileSystemManager, logger *zap.Logger) domain.StampStore {
	// A run against a missing output directory compiles nothing; keep no state for it
	if cfg.StateFile == "" && !fs.IsDir(fs.ExpandHome(cfg.OutputDir)) {
		return nil
	}

	path, err := cfg.StatePath(fs)
	if err != nil {
		logger.Warn("up-to-date checks disabled", zap.Error(err))
		return nil
	}

	store, err := infra.NewSQLiteStampStore(path)
	if err != nil {
		logger.Warn("up-to-date checks disabled", zap.Error(err))
		return nil
	}
	return store
}

func printReport(report *domain.RunReport) {
	fmt.Println("\n=== closurebatch ===")

	if failed := report.Failed(); len(failed) > 0 {
		fmt.Println("Failed:")
		for _, f := range failed {
			fmt.Printf("  - %s: %v\n", f.Request.Source, f.Err)
		}
	}

	var aborted int
	for _, f := range report.Files {
		if f.State == domain.StateAborted {
			aborted++
		}
	}

	fmt.Printf("Compiled: %d, up to date: %d, excluded: %d, failed: %d",
		len(report.Compiled()), len(report.Skipped()), len(report.Excluded), len(report.Failed()))
	if aborted > 0 {
		fmt.Printf(", aborted: %d", aborted)
	}
	fmt.Printf(" (%s)\n", report.Duration.Round(time.Millisecond))
	fmt.Println("====================")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := createLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	plan, err := resolver.New(infra.NewFileSystemManager(), logger).Plan(cfg.RunConfig())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Source", "Target", "Action")
	for _, req := range plan.Requests {
		if err := table.Append([]string{req.Source, req.Target, "compile"}); err != nil {
			return err
		}
	}
	for _, path := range plan.Excluded {
		if err := table.Append([]string{path, "", "excluded"}); err != nil {
			return err
		}
	}
	for _, f := range plan.Internal {
		if err := table.Append([]string{f.Request.Source, "", "error: " + f.Err.Error()}); err != nil {
			return err
		}
	}
	return table.Render()
}

func runBackends(cmd *cobra.Command, args []string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Backend", "Description")
	for _, b := range compiler.NewRegistry().GetAll() {
		if err := table.Append([]string{b.Name(), b.Description()}); err != nil {
			return err
		}
	}
	return table.Render()
}

// progressObserver draws a progress bar over the files of a batch.
type progressObserver struct {
	bar *progressbar.ProgressBar
}

func (p *progressObserver) BatchStarted(total int) {
	p.bar = progressbar.Default(int64(total), "compiling")
}

func (p *progressObserver) FileDone(domain.FileResult) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func createLogger(level string) *zap.Logger {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.DisableStacktrace = true
	zapConfig.EncoderConfig.TimeKey = "time"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// Fallback to defaults if the config cannot be built
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("closurebatch %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
