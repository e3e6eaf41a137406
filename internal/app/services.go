package app

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/swarmtail/internal/swarm"
)

// Services prints the log-capable services as a table.
func Services(ctx context.Context, opts Options, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	client, err := swarm.NewClient(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("init swarm client: %w", err)
	}
	services, err := client.FetchServices(ctx)
	if err != nil {
		return fmt.Errorf("fetch services: %w", err)
	}
	if len(services) == 0 {
		_, err := fmt.Fprintln(out, "no services")
		return err
	}
	_, err = fmt.Fprintln(out, servicesTable(services))
	return err
}

func servicesTable(services []swarm.Service) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers("NAME", "ID")
	for _, s := range services {
		t.Row(s.DisplayName(), s.ID)
	}
	return t.Render()
}
