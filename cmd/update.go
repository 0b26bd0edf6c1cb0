package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adoptersbot/adopters/config"
	"github.com/adoptersbot/adopters/internal/gh"
	"github.com/adoptersbot/adopters/internal/log"
	"github.com/adoptersbot/adopters/internal/pipeline"
	"github.com/adoptersbot/adopters/internal/registry"
	"github.com/adoptersbot/adopters/internal/retry"
	"github.com/adoptersbot/adopters/internal/verify"
)

// NewCmdUpdate creates the update command.
func NewCmdUpdate(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Run the discovery pipeline (same as root adopters)",
		Long: `Searches GitHub for marker files, verifies submission issues,
fetches repository metadata, and rewrites the adopters registry.
Open submission issues are closed or rejected after a successful write.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdate(cmd, opts)
		},
	}

	addUpdateFlags(cmd, opts)
	return cmd
}

// addUpdateFlags adds the update-specific flags to a command.
func addUpdateFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.Marker, "marker", "", "Marker filename to search for (default from config)")
	cmd.Flags().StringVar(&opts.HomeRepo, "home-repo", "", "Repository where submission issues are filed (owner/name)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "Label identifying submission issues (default from config)")
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Registry file path (default from config)")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Plan everything, write and mutate nothing")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
}

func runUpdate(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg, opts)

	if cfg.HomeRepo == "" {
		return fmt.Errorf("home repository not configured. Set home_repo in the config file or pass --home-repo")
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	client, err := gh.NewClient(ctx, token, cfg.HomeRepo)
	if err != nil {
		return err
	}

	exec := retry.New()
	exec.Policy = retry.Policy{
		Retries:   cfg.GetRetries(),
		BaseDelay: time.Duration(cfg.BaseDelayMS) * time.Millisecond,
	}
	exec.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	pace := time.Duration(cfg.PaceMS) * time.Millisecond
	verifier := verify.NewVerifier(cfg.Marker, client, pace)
	verifier.Exec = exec
	actions := verify.NewActionRunner(client, cfg.SubmissionLabel, pace)
	actions.Exec = exec

	p := &pipeline.Pipeline{
		Source:   client,
		Store:    registry.NewStore(cfg.RegistryPath),
		Exec:     exec,
		Verifier: verifier,
		Actions:  actions,
		Marker:   cfg.Marker,
		Label:    cfg.SubmissionLabel,
		Pace:     pace,
		DryRun:   opts.DryRun,
	}

	summary, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoAdopters) {
			color.Yellow("No adopters discovered; registry left untouched.")
			return err
		}
		return err
	}

	printSummary(summary, cfg.RegistryPath)
	return nil
}

// applyOverrides layers command-line flags over the loaded config.
func applyOverrides(cfg *config.Config, opts *Options) {
	if opts.Marker != "" {
		cfg.Marker = opts.Marker
	}
	if opts.HomeRepo != "" {
		cfg.HomeRepo = opts.HomeRepo
	}
	if opts.Label != "" {
		cfg.SubmissionLabel = opts.Label
	}
	if opts.Registry != "" {
		cfg.RegistryPath = opts.Registry
	}
}

func printSummary(s *pipeline.Summary, registryPath string) {
	bold := color.New(color.Bold)

	if s.DryRun {
		color.Yellow("Dry run: nothing was written.")
	}

	bold.Printf("Adopters: %d", s.Persisted)
	fmt.Printf(" (%d from search, %d from issues)\n", s.Deduped, s.Verified)

	if s.Skipped > 0 {
		color.Yellow("Skipped %d identities whose metadata could not be fetched.", s.Skipped)
	}
	if s.SearchTotal >= gh.SearchResultCap {
		color.Yellow("Search reported %d total results; coverage may be incomplete.", s.SearchTotal)
	}

	if !s.DryRun {
		fmt.Printf("Registry written to %s\n", registryPath)
		if s.ActionsPlanned > 0 {
			fmt.Printf("Issue housekeeping: %d/%d actions completed\n",
				s.ActionsCompleted, s.ActionsPlanned)
		}
	} else if s.ActionsPlanned > 0 {
		fmt.Printf("Issue housekeeping: %d actions planned\n", s.ActionsPlanned)
	}
}
