package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/riadafridishibly/neatfs/cache"
	"github.com/riadafridishibly/neatfs/config"
	"github.com/riadafridishibly/neatfs/logging"
	"github.com/riadafridishibly/neatfs/report"
	"github.com/riadafridishibly/neatfs/scanner"
	"github.com/riadafridishibly/neatfs/tui"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	configPath  string
	filesOnly   bool
	dirsOnly    bool
	exclude     []string
	workers     int
	algorithm   string
	chunkSize   string
	readTimeout string
	useCache    bool
	jsonOutput  bool
	verbose     bool
}

func newRootCommand() *cobra.Command {
	var flags scanFlags

	rootCmd := &cobra.Command{
		Use:   "neatfs [path]",
		Short: "Find duplicate files and directories",
		Long: `neatfs walks a directory tree and reports duplicate files and duplicate
directories.

Files are grouped by size first and only files sharing a size are hashed.
Two directories are duplicates when their immediate files have the same
names, sizes and content.`,
		Example: `  neatfs ~/Documents
  neatfs --files-only /path/to/search
  neatfs --dirs-only --exclude /mnt/backup /mnt
  neatfs browse ~/Pictures`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, &flags, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	pf.BoolVar(&flags.filesOnly, "files-only", false, "Only find duplicate files (skip directory duplicates)")
	pf.BoolVar(&flags.dirsOnly, "dirs-only", false, "Only find duplicate directories (skip file duplicates)")
	pf.StringArrayVar(&flags.exclude, "exclude", nil, "Path to leave out of the walk (repeatable)")
	pf.IntVar(&flags.workers, "workers", 0, "Concurrent hashing workers (default: number of CPUs)")
	pf.StringVar(&flags.algorithm, "algorithm", "", "Hash algorithm: md5, sha1, sha256 or sha512")
	pf.StringVar(&flags.chunkSize, "chunk-size", "", "Read buffer per file, e.g. 64KiB")
	pf.StringVar(&flags.readTimeout, "read-timeout", "", "Give up on a file after this long, e.g. 30s (0 disables)")
	pf.BoolVar(&flags.useCache, "cache", false, "Reuse digests from the hash cache between runs")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Write the report as JSON")

	rootCmd.AddCommand(newBrowseCommand(&flags))

	return rootCmd
}

func newBrowseCommand(flags *scanFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [path]",
		Short: "Browse duplicate sets interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, flags, args)
		},
	}
}

func runScan(cmd *cobra.Command, flags *scanFlags, args []string) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	logOut := cmd.ErrOrStderr()
	if cfg.Logging.File != "" {
		f, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: logOut})
	if err != nil {
		return err
	}

	opts, closeCache, err := buildOptions(cfg, flags, args, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	s, err := scanner.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := s.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		logger.Warn("scan interrupted, report is partial")
	}

	out := cmd.OutOrStdout()
	if flags.jsonOutput {
		err = report.JSON(out, result)
	} else {
		fancy := false
		if f, ok := out.(*os.File); ok {
			fancy = report.IsTerminal(f)
		}
		err = report.Text(out, result, report.Options{Fancy: fancy})
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return runErr
}

func runBrowse(cmd *cobra.Command, flags *scanFlags, args []string) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs always go to a file.
	var logFile *os.File
	if cfg.Logging.File != "" {
		logFile, err = logging.OpenFile(cfg.Logging.File)
	} else {
		logFile, err = os.CreateTemp(tempDir(), "neatfs-*.log")
	}
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer logFile.Close()

	log.SetFlags(log.Lshortfile | log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("[NEATFS] ")
	log.SetOutput(logFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Logfile is being written in:", logFile.Name())

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: logFile})
	if err != nil {
		return err
	}

	opts, closeCache, err := buildOptions(cfg, flags, args, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	// Surface root and mode errors before the screen is taken over.
	if _, err := scanner.New(opts); err != nil {
		return err
	}

	app := tui.NewApp(opts, tui.Config{
		Theme:                cfg.TUI.Theme,
		ReplaceHomeWithTilde: cfg.TUI.ReplaceHomeWithTilde,
	})
	return app.Run()
}

// loadConfig reads the config file and applies flags the user set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command, flags *scanFlags) (*config.Config, error) {
	cfg, _, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("workers") {
		cfg.Scan.Workers = flags.workers
	}
	if changed("algorithm") {
		cfg.Scan.Algorithm = flags.algorithm
	}
	if changed("chunk-size") {
		cfg.Scan.ChunkSize = flags.chunkSize
	}
	if changed("read-timeout") {
		cfg.Scan.ReadTimeout = flags.readTimeout
	}
	if changed("cache") {
		cfg.Cache.Enabled = flags.useCache
	}
	if len(flags.exclude) > 0 {
		cfg.Scan.Exclude = append(cfg.Scan.Exclude, flags.exclude...)
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildOptions turns configuration into scanner options. The returned
// func releases the hash cache, if one was opened.
func buildOptions(cfg *config.Config, flags *scanFlags, args []string, logger *slog.Logger) (scanner.Options, func(), error) {
	noop := func() {}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	chunkSize, err := cfg.ChunkSizeBytes()
	if err != nil {
		return scanner.Options{}, noop, err
	}
	readTimeout, err := cfg.ReadTimeoutDuration()
	if err != nil {
		return scanner.Options{}, noop, err
	}

	opts := scanner.Options{
		Root:        root,
		Exclude:     cfg.Scan.Exclude,
		FilesOnly:   flags.filesOnly,
		DirsOnly:    flags.dirsOnly,
		Workers:     cfg.Scan.Workers,
		ChunkSize:   chunkSize,
		ReadTimeout: readTimeout,
		Algorithm:   cfg.Scan.Algorithm,
		Logger:      logger,
	}
	if opts.FilesOnly && opts.DirsOnly {
		return opts, noop, scanner.ErrConflictingModes
	}

	if !cfg.Cache.Enabled {
		return opts, noop, nil
	}
	c, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		logger.Warn("continuing without hash cache", "dir", cfg.Cache.Dir, "error", err)
		return opts, noop, nil
	}
	if abs, err := filepath.Abs(root); err == nil {
		// cached paths are recorded under the resolved root
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		if n, err := c.Prune(abs); err != nil {
			logger.Warn("failed to prune hash cache", "error", err)
		} else if n > 0 {
			logger.Debug("pruned hash cache", "removed", n)
		}
	}
	opts.Cache = c
	return opts, func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close hash cache", "error", err)
		}
	}, nil
}

func tempDir() string {
	if runtime.GOOS == "darwin" {
		return "/tmp"
	}
	return os.TempDir()
}
