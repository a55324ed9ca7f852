// Command photodupe scans photo/video collections for duplicates and
// exposes the safe bulk file operations (move, rename, trash, undo)
// the engine supports.
//
// Grounded on the teacher's main.go: a cobra root command with
// subcommands, interrupt handling via context cancellation,
// color-styled summaries, and a progressbar-rendered progress stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/user/photodupe/internal/applog"
	"github.com/user/photodupe/internal/collapse"
	"github.com/user/photodupe/internal/config"
	"github.com/user/photodupe/internal/fileops"
	"github.com/user/photodupe/internal/hashcache"
	"github.com/user/photodupe/internal/hasher"
	"github.com/user/photodupe/internal/model"
	"github.com/user/photodupe/internal/orchestrator"
	"github.com/user/photodupe/internal/progress"
	"github.com/user/photodupe/internal/smartselect"
)

func main() {
	var appDataDir, logLevel string

	rootCmd := &cobra.Command{
		Use:   "photodupe",
		Short: "Scan photo/video collections for duplicates and clean them up safely",
		Long: `photodupe indexes large photo/video collections spread across
multiple directories, groups sidecar and preview files with their
primary image, detects duplicate content with a progressive hashing
strategy, and exposes move/rename/trash/undo operations plus a
heuristic "smart selection" of which copies to discard.`,
	}
	rootCmd.PersistentFlags().StringVar(&appDataDir, "app-data", "", "override the app data directory (default ~/.photodupe)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newScanCmd(&appDataDir, &logLevel),
		newMoveCmd(&appDataDir, &logLevel),
		newMoveBatchCmd(&appDataDir, &logLevel),
		newRenameCmd(&appDataDir, &logLevel),
		newTrashCmd(&appDataDir, &logLevel),
		newMkdirCmd(),
		newRevealCmd(),
		newUndoCmd(&appDataDir, &logLevel),
		newConfigShowCmd(&appDataDir),
	)

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveAppDataDir(appDataDir string) string {
	if appDataDir != "" {
		return appDataDir
	}
	return config.DefaultAppDataDir()
}

func newLogger(level string) *applog.Logger {
	return applog.New(level)
}

// extensions is the accepted file allow-list, handed to the
// Discoverer via the Orchestrator.
func extensions() map[string]bool {
	return collapse.AllExtensions()
}

func cancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		color.New(color.FgRed, color.Bold).Println("\nInterrupted. Finishing current file and exiting.")
		cancel()
	}()
	return ctx, cancel
}

func newScanCmd(appDataDir, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [directories...]",
		Short: "Scan directories for photos and report duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := resolveAppDataDir(*appDataDir)
			log := newLogger(*logLevel)

			roots := args
			if len(roots) == 0 {
				loader := config.NewLoader(dataDir)
				cfg, err := loader.Load()
				if err != nil {
					return err
				}
				roots = cfg.EnabledRoots()
			}
			if len(roots) == 0 {
				return fmt.Errorf("no directories to scan: pass directories or enable some in config")
			}

			cache := hashcache.Open(filepath.Join(dataDir, "hash_cache.db"), log)
			defer cache.Close()

			orch := orchestrator.New(extensions(), hasher.New(cache))
			reporter := progress.New()
			events := reporter.Subscribe(16)

			bar := progressbar.NewOptions(0,
				progressbar.OptionSetDescription("Scanning"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionClearOnFinish(),
			)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for ev := range events {
					if ev.Total > 0 {
						bar.ChangeMax(ev.Total)
						bar.Set(ev.Current)
					}
				}
			}()

			ctx, cancel := cancellableContext()
			defer cancel()

			result, err := orch.Scan(ctx, roots, reporter)
			reporter.Close()
			<-done
			if err != nil {
				return err
			}

			printScanSummary(result)
			return nil
		},
	}
}

func printScanSummary(result orchestrator.Result) {
	var totalBytes uint64
	duplicateCount := 0
	for _, p := range result.Photos {
		totalBytes += p.Size
		if p.IsDuplicate {
			duplicateCount++
		}
	}

	green := color.New(color.FgGreen, color.Bold)
	if result.Cancelled {
		color.New(color.FgYellow).Println("Scan cancelled; showing partial results.")
	}
	green.Printf("Scanned %d photos (%s), found %d duplicate groups (%d duplicate files)\n",
		len(result.Photos), humanize.Bytes(totalBytes), len(result.Groups), duplicateCount)
	if len(result.Warnings) > 0 {
		color.New(color.FgYellow).Printf("%d warnings during scan (unreadable files/directories)\n", len(result.Warnings))
	}

	toDelete := smartselect.Select(result.Groups)
	if n := smartselect.SafetyCheckCount(result.Groups, toDelete); n > 0 {
		color.New(color.FgRed).Printf("warning: %d group(s) would be fully deleted by the smart-select recommendation\n", n)
	}
}

func newMoveCmd(appDataDir, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "move <dest-dir> <path> [paths...]",
		Short: "Move files into dest-dir, resolving name collisions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := args[0]
			paths := args[1:]
			ops := fileops.New(currentUnixSeconds)
			moved, err := ops.Move(paths, dest, nil)
			if err != nil {
				return err
			}
			for _, op := range moved {
				fmt.Printf("%s -> %s\n", op.From, op.To)
			}
			return nil
		},
	}
}

func newMoveBatchCmd(appDataDir, logLevel *string) *cobra.Command {
	var fromFlags, toFlags []string
	cmd := &cobra.Command{
		Use:   "move-batch",
		Short: "Replay an explicit from/to list (used internally by undo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fromFlags) != len(toFlags) {
				return fmt.Errorf("--from and --to must be supplied the same number of times")
			}
			var operations []model.MoveOp
			for i := range fromFlags {
				operations = append(operations, model.MoveOp{From: fromFlags[i], To: toFlags[i]})
			}
			ops := fileops.New(currentUnixSeconds)
			return ops.MoveBatch(operations)
		},
	}
	cmd.Flags().StringArrayVar(&fromFlags, "from", nil, "source path (repeatable)")
	cmd.Flags().StringArrayVar(&toFlags, "to", nil, "destination path (repeatable, paired by position with --from)")
	return cmd
}

func newRenameCmd(appDataDir, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := fileops.New(currentUnixSeconds)
			return ops.Rename(args[0], args[1])
		},
	}
}

func newTrashCmd(appDataDir, logLevel *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "trash <path> [paths...]",
		Short: "Send files to the OS recycle facility (not undoable)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("This will delete %d file(s), continue", len(args)),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					return fmt.Errorf("aborted")
				}
			}

			reporter := progress.New()
			events := reporter.Subscribe(16)
			bar := progressbar.NewOptions(len(args),
				progressbar.OptionSetDescription("Trashing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for ev := range events {
					if ev.Phase == progress.PhaseDeleting {
						bar.Set(ev.Current)
					}
				}
			}()

			ops := fileops.New(currentUnixSeconds)
			result, err := ops.Trash(context.Background(), args, reporter, currentUnixSeconds())
			reporter.Close()
			<-done
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Printf("Deleted %d file(s) (%s), %d failed\n",
				result.DeletedCount, humanize.Bytes(result.TotalBytes), result.FailedCount)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder, including parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := fileops.New(currentUnixSeconds)
			return ops.CreateFolder(args[0])
		},
	}
}

func newRevealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <path>",
		Short: "Print the absolute path of a file for the UI collaborator to open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			fmt.Println(abs)
			return nil
		},
	}
}

// newUndoCmd only has anything to undo within the lifetime of a single
// fileops.Ops (spec §3: the undo stack is process-lifetime, not
// persisted). Since every CLI invocation is its own process, `move`
// and `undo` run as separate commands never share a stack and this
// command always reports "nothing to undo"; undo is only meaningful
// to a long-lived caller (the orchestrator's UI collaborator) holding
// one Ops across a session.
func newUndoCmd(appDataDir, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last move operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := fileops.New(currentUnixSeconds)
			if err := ops.Undo(); err != nil {
				return err
			}
			color.New(color.FgGreen).Println("Undo complete")
			return nil
		},
	}
}

func newConfigShowCmd(appDataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config-show",
		Short: "Print the current config.json contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := resolveAppDataDir(*appDataDir)
			loader := config.NewLoader(dataDir)
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			for _, d := range cfg.Directories {
				fmt.Printf("%s\tenabled=%v\t%s\n", d.Path, d.Enabled, d.Name)
			}
			fmt.Printf("viewMode=%s sortField=%s sortOrder=%s filterMode=%s\n",
				cfg.ViewMode, cfg.SortField, cfg.SortOrder, cfg.FilterMode)
			return nil
		},
	}
}

func currentUnixSeconds() int64 {
	return time.Now().Unix()
}
