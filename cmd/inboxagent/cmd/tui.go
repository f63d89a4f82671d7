package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/app"
	"github.com/nhle/inbox-agent/internal/llm"
	"github.com/nhle/inbox-agent/internal/source/eml"
	appsync "github.com/nhle/inbox-agent/internal/sync"
	configview "github.com/nhle/inbox-agent/internal/ui/config"
)

// runTUI opens the terminal UI. Without an API key it starts offline and
// the connection view can supply one.
func runTUI(cmd *cobra.Command, args []string) error {
	stopMetrics := startMetrics(cfg.Metrics.Addr)
	defer stopMetrics()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	keys := secrets()
	sw := llm.NewSwitch(nil)
	provider := ""
	if inv, err := newClient(keys); err != nil {
		logger.Info("starting offline", zap.Error(err))
	} else {
		sw.Set(inv)
		provider = cfg.AI.Provider
	}
	svc := newService(st, sw)

	var poller *appsync.Poller
	if cfg.Inbox.WatchDir != "" {
		poller = appsync.New(cfg.Inbox.WatchDir, cfg.Inbox.PollInterval,
			eml.NewImporter(st, logger.Named("eml")),
			appsync.WithLogger(logger.Named("watch")))
		if cfg.Inbox.AutoTag && sw.Connected() {
			poller.SetTagger(svc)
		}
		defer poller.Stop()
	}

	var keySink configview.Secrets
	if keys != nil {
		keySink = keys
	}

	m := app.New(app.Options{
		Store:    st,
		Service:  svc,
		Switch:   sw,
		Poller:   poller,
		Connect:  configview.Connector(connector),
		Secrets:  keySink,
		Provider: provider,
		AutoTag:  cfg.Inbox.AutoTag,
		Logger:   logger.Named("app"),
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
