package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fractalic-ai/fractalic/internal/logging"
	"github.com/fractalic-ai/fractalic/internal/snapshot"
	"github.com/fractalic-ai/fractalic/pkg/config"
	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/interp"
	"github.com/fractalic-ai/fractalic/pkg/llmmediator"
	"github.com/fractalic-ai/fractalic/pkg/ops"
	"github.com/fractalic-ai/fractalic/pkg/parser"
	"github.com/fractalic-ai/fractalic/pkg/recorder"
)

var (
	runProvider    string
	runModel       string
	runVerbose     bool
	runChatCommand string
)

func init() {
	runCmd.Flags().StringVar(&runProvider, "provider", "", "override the document's default LLM provider")
	runCmd.Flags().StringVar(&runModel, "model", "", "override the resolved provider's model")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "debug-level logging")
	runCmd.Flags().StringVar(&runChatCommand, "chat-command", "", "external command @llm shells out to for chat completions (see pkg/llmmediator.CLIProvider)")
}

var runCmd = &cobra.Command{
	Use:   "run <doc.md>",
	Short: "Execute a document headlessly",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	baseDir := filepath.Dir(absPath)

	logger, err := logging.New(runVerbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Discover(cfgFile)
	if err != nil {
		printFailure(cmd, err)
		os.Exit(ferr.ExitCode(err))
	}
	if runProvider != "" {
		cfg.DefaultProvider = runProvider
	}
	if runModel != "" {
		if cfg.Providers == nil {
			cfg.Providers = map[string]config.ProviderConfig{}
		}
		pc := cfg.Providers[cfg.DefaultProvider]
		pc.Model = runModel
		cfg.Providers[cfg.DefaultProvider] = pc
	}

	ctx := context.Background()

	data, err := os.ReadFile(absPath)
	if err != nil {
		printFailure(cmd, err)
		os.Exit(ferr.ExitCode(err))
	}
	tr, err := parser.Parse(data)
	if err != nil {
		printFailure(cmd, err)
		os.Exit(ferr.ExitCode(err))
	}

	reg, err := buildRegistry(ctx, cfg, baseDir)
	if err != nil {
		printFailure(cmd, err)
		os.Exit(ferr.ExitCode(err))
	}
	defer reg.Close()

	var chat llmmediator.ChatProvider
	if runChatCommand != "" {
		chat = llmmediator.CLIProvider{Command: runChatCommand}
	}

	var store snapshot.Store
	switch cfg.Snapshot.Backend {
	case "redis":
		store = snapshot.NewRedisStore(cfg.Snapshot.RedisURL, "", 0)
	default:
		dir := cfg.Snapshot.Dir
		if dir == "" {
			dir = filepath.Join(baseDir, ".fractalic", "snapshots")
		}
		fs, err := snapshot.NewFileStore(dir)
		if err != nil {
			printFailure(cmd, err)
			os.Exit(ferr.ExitCode(err))
		}
		store = fs
	}

	runID := recorder.NewRunID()
	rec := recorder.New(runID, absPath, baseDir, store, nil)

	startLabel, err := rec.SnapshotStart(ctx)
	if err != nil {
		printFailure(cmd, err)
		os.Exit(ferr.ExitCode(err))
	}
	logger.Sugar().Infow("run started", "run_id", runID, "snapshot", startLabel)

	eng := interp.New(tr, baseDir, runID, ops.Register(), rec, logger)
	eng.Config = cfg
	eng.Tools = reg
	eng.LLM = chat

	result := eng.Run(ctx)

	if err := rec.Finalize(tr); err != nil {
		logger.Sugar().Warnw("finalize failed", "error", err)
	}
	doneLabel, snapErr := rec.SnapshotComplete(ctx)
	if snapErr != nil {
		logger.Sugar().Warnw("completion snapshot failed", "error", snapErr)
	}

	switch result.Status {
	case interp.StatusCompleted:
		cmd.Printf("%s (snapshot %s)\n", stylize(successStyle, os.Stdout, "completed"), doneLabel)
		return nil
	case interp.StatusHalted:
		cmd.Printf("%s via @return (snapshot %s)\n", stylize(successStyle, os.Stdout, "halted"), doneLabel)
		return nil
	default:
		printFailure(cmd, result.Err)
		os.Exit(ferr.ExitCode(result.Err))
	}
	return nil
}

func printFailure(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", stylize(failureStyle, os.Stderr, "error"), err)
}
