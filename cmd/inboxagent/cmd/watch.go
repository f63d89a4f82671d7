package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/source/eml"
	"github.com/nhle/inbox-agent/internal/store"
	appsync "github.com/nhle/inbox-agent/internal/sync"
)

var (
	watchDir  string
	watchOnce bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Import .eml files dropped into a folder",
	Long: `Poll a drop folder for .eml files and import new ones into the inbox.

New mail is categorized when inbox.auto_tag is set and an API key is
available. Runs until interrupted unless --once is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := watchDir
		if dir == "" {
			dir = cfg.Inbox.WatchDir
		}
		if dir == "" {
			return errors.New("no folder to watch: use --dir or set inbox.watch_dir")
		}

		stopMetrics := startMetrics(cfg.Metrics.Addr)
		defer stopMetrics()

		return withStore(func(st *store.SQLiteStore) error {
			p := appsync.New(dir, cfg.Inbox.PollInterval,
				eml.NewImporter(st, logger.Named("eml")),
				appsync.WithLogger(logger.Named("watch")))

			if cfg.Inbox.AutoTag {
				if inv, err := newClient(secrets()); err != nil {
					logger.Warn("watching without tagging", zap.Error(err))
				} else {
					p.SetTagger(newService(st, inv))
				}
			}

			out := cmd.OutOrStdout()
			if watchOnce {
				res := p.Poll(cmd.Context())
				if res.Imported == 0 && res.Failed == 0 && res.Error == nil {
					fmt.Fprintln(out, "No new mail")
				}
				printSync(out, res)
				return res.Error
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, p, out)
		})
	},
}

// runWatch prints poll results until ctx is cancelled.
func runWatch(ctx context.Context, p *appsync.Poller, out io.Writer) error {
	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", p.Status().Dir)
	next := p.Start()
	for next != nil {
		res, ok := next().(appsync.SyncResultMsg)
		if !ok {
			return nil
		}
		printSync(out, res)
		next = p.WaitForNextResult()
	}
	return nil
}

func printSync(w io.Writer, res appsync.SyncResultMsg) {
	if res.Error != nil {
		fmt.Fprintf(w, "Sync failed: %v\n", res.Error)
		return
	}
	if res.Imported == 0 && res.Failed == 0 {
		return
	}
	fmt.Fprintf(w, "%d new, %d duplicate, %d failed", res.Imported, res.Duplicate, res.Failed)
	if res.Tagged.Total > 0 {
		fmt.Fprintf(w, ", %d tagged", res.Tagged.Tagged)
	}
	fmt.Fprintln(w)
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "folder to watch (default inbox.watch_dir)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "poll once and exit")
	rootCmd.AddCommand(watchCmd)
}
