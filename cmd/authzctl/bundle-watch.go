package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/fincore-authz/pkg/bundle"
	"github.com/doodlesbykumbi/fincore-authz/pkg/db"
	"github.com/doodlesbykumbi/fincore-authz/pkg/logging"
	gormstore "github.com/doodlesbykumbi/fincore-authz/pkg/server/store/gorm"
)

// editors often write a file in several steps
const reloadDebounce = 500 * time.Millisecond

// bundleWatchCmd represents the bundle watch command
var bundleWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Watch a bundle file and reload it when it changes",
	Long: `Load a rule bundle, then reload it whenever the file is written or
replaced. A bundle that fails to load leaves the store unchanged.

Example:
  authzctl bundle watch /etc/fincore-authz/rules.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := watchBundle(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch bundle: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	bundleCmd.AddCommand(bundleWatchCmd)
}

func watchBundle(filename string) error {
	log := logging.Logger()
	database, err := db.Connect(db.Config{Log: log})
	if err != nil {
		return err
	}
	loader := bundle.NewLoader(gormstore.New(database)).WithLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := func() {
		result, err := loader.LoadFile(ctx, filename)
		if err != nil {
			log.WithError(err).WithField("file", filename).Error("bundle reload failed")
			return
		}
		log.WithField("file", filename).WithField("roles", result.Roles).WithField("policies", result.Policies).Info("bundle loaded")
	}
	reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so atomic replacements (rename over the file)
	// are seen too.
	abs, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	log.WithField("file", abs).Info("watching bundle for changes")

	var debounce <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce = time.After(reloadDebounce)
			}
		case <-debounce:
			debounce = nil
			reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		}
	}
}
