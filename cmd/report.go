package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adoptersbot/adopters/config"
	"github.com/adoptersbot/adopters/internal/registry"
	"github.com/adoptersbot/adopters/internal/report"
)

// NewCmdReport creates the report command.
func NewCmdReport() *cobra.Command {
	var registryPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print yesterday's adoption summary",
		Long: `Reads the adopters registry and prints a plain-text summary of the
entries added yesterday, each assigned a celebration hour spread across
the configured announcement window.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(registryPath)
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", "", "Registry file path (default from config)")
	return cmd
}

func runReport(registryPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if registryPath == "" {
		registryPath = cfg.RegistryPath
	}

	start, end := cfg.CelebrationWindow()
	gen := &report.Generator{
		Store:  registry.NewStore(registryPath),
		Window: report.Window{Start: start, End: end},
	}

	out, err := gen.Generate(time.Now())
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
