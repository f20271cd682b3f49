// Command loglayer is the headless session-engine entrypoint: it opens
// the files named on the command line (a directory argument is taken as
// the workspace and is not opened, per spec.md §6), then serves the
// request surface over HTTP/WebSocket until interrupted.
//
// The rootCmd/RunE cobra wiring below follows the idiom used
// elsewhere in the dependency pack for a cobra-based CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loglayer/loglayer/internal/bridge"
	"github.com/loglayer/loglayer/internal/config"
	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/logx"
	"github.com/loglayer/loglayer/internal/substringengine"
	"github.com/loglayer/loglayer/internal/wsserver"
)

var (
	addr        string
	noUI        bool
	spawnEngine string
)

var rootCmd = &cobra.Command{
	Use:   "loglayer [path...]",
	Short: "Session engine for the interactive log viewer",
	Long:  "Opens one or more log files (or a directory) and serves the viewer's session engine over HTTP/WebSocket.",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&addr, "port", ":8787", "address to serve the request surface on")
	rootCmd.Flags().BoolVar(&noUI, "no-ui", false, "skip launching the bundled frontend (engine only)")
	rootCmd.Flags().StringVar(&spawnEngine, "spawn-engine", "", "path to an external grep-compatible binary; empty uses the embedded engine")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logx.StdLogger{}

	registry := layer.NewRegistry()

	var engine substringengine.Engine
	if spawnEngine != "" {
		engine = substringengine.NewSpawnedEngine(spawnEngine)
	} else {
		engine = substringengine.NewEmbeddedEngine()
	}

	hub := wsserver.NewHub(log)
	b := bridge.New(registry, engine, hub, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := openArgs(ctx, b, log, args); err != nil {
		return err
	}

	srv := wsserver.New(b, hub, log)
	log.Log("info", logx.Tagf("SERVE", "listening on %s", addr))
	if err := srv.Start(ctx, addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// openArgs implements spec.md §6's CLI behavior: a file argument opens a
// session; a directory argument is taken as the workspace and is never
// opened as a session (whether or not it already holds a
// .loglayer/config.json only changes what is logged).
func openArgs(ctx context.Context, b *bridge.Bridge, log logx.Logger, args []string) error {
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		if info.IsDir() {
			if _, err := os.Stat(config.WorkspacePath(path)); err == nil {
				log.Log("info", logx.Tagf("WORKSPACE", "using existing workspace at %s", path))
			} else {
				log.Log("info", logx.Tagf("WORKSPACE", "using workspace at %s (no config.json yet)", path))
			}
			continue
		}

		fileID := uuid.NewString()
		if err := b.OpenFile(ctx, fileID, path); err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		log.Log("info", logx.Tagf("OPEN", "%s -> %s", filepath.Clean(path), fileID))
	}
	return nil
}
