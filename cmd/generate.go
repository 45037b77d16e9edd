package cmd

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/weaverhq/changelog-weaver/llm"
	"github.com/weaverhq/changelog-weaver/models"
	"github.com/weaverhq/changelog-weaver/platforms"
	"github.com/weaverhq/changelog-weaver/report"
	"github.com/weaverhq/changelog-weaver/work"
)

// generateCmd runs the full pipeline: fetch, hierarchy, summaries, changelog.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch work items and write the release changelog",
	Long: `Fetch work items from the configured platform, rebuild their parent/child
hierarchy grouped by type, summarize them when a model is configured, and
write the changelog to the output folder.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := validateAppConfig(cfg); err != nil {
			return err
		}
		ctx := cmd.Context()
		fs := afero.NewOsFs()

		runID := uuid.NewString()
		slog.Info("starting changelog generation", "run_id", runID, "project", cfg.Project.Name, "version", cfg.Project.Version)

		ref, err := platforms.ParseProjectURL(cfg.Project.URL)
		if err != nil {
			return err
		}

		var overrides map[string]models.WorkItemType
		if cfg.Output.TypesFile != "" {
			overrides, err = models.LoadTypeDefs(fs, cfg.Output.TypesFile)
			if err != nil {
				return err
			}
		}

		client, err := platforms.NewClient(ref, cfg.Project.Query, cfg.Project.AccessToken, overrides)
		if err != nil {
			return err
		}

		summarizer, err := llm.NewSummarizer(&cfg.Model)
		if err != nil {
			return err
		}
		if summarizer == nil {
			slog.Info("no model API key configured, skipping summaries")
		}

		svc := work.New(client, summarizer)
		if err := svc.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize platform client: %w", err)
		}

		byType, err := svc.GenerateOrderedWorkItems(ctx)
		if err != nil {
			return err
		}

		out, err := report.New(fs, cfg.Output.Folder, cfg.Project.Name, cfg.Project.Version, cfg.Output.HTML)
		if err != nil {
			return err
		}
		if err := out.WriteGroups(byType); err != nil {
			return err
		}

		slog.Info("writing final summary and table of contents")
		summary := svc.SummarizeRelease(ctx, cfg.Project.Name, cfg.Project.Brief)
		if err := out.SetSummary(summary); err != nil {
			return err
		}
		if err := out.SetTOC(); err != nil {
			return err
		}
		if err := out.Finalize(); err != nil {
			return err
		}

		slog.Info("changelog written", "path", out.Path(), "run_id", runID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
