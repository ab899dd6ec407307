package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/brianly1003/termsync/internal/host"
)

// sessionsCmd lists the sessions the host currently manages.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions on the process host",
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg)

	client, err := host.Dial(cfg.Host.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to host: %w", err)
	}
	defer func() { _ = client.Shutdown() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Host.ConnectTimeoutSecs)*time.Second)
	defer cancel()

	infos, err := client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tPROJECT\tNAME\tSTATUS")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.ID, info.ProjectID, info.Name, info.Status)
	}
	return w.Flush()
}
