package cli

import (
	"fmt"

	"resumescreen/internal/ai"
	"resumescreen/internal/common"
	"resumescreen/internal/policy"
	"resumescreen/internal/screening"

	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen [job-description-file] [resume-pdf...]",
	Short: "Screen a batch of resume PDFs against a job description",
	Long: `Screen one or more resume PDFs against a job description using AI.
The first argument is the path to the job description text file; every
following argument is a resume PDF. The whole batch is scored in a single
AI call and returned as a ranked report.

The scoring weightage depends on the role tier. By default the role is
classified automatically from the job description; use --tier to pin it
to "fresher" or "mid_senior".`,
	Args: cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply defaults for flags that were not specified
		if screenConfig.OutputFormat == "" {
			screenConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if screenConfig.Tier == "" {
			screenConfig.Tier = cfg.Screening.DefaultTier
		}
		if err := common.ValidateOutputFormat(screenConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		if err := common.ValidateFilter(screenConfig.Filter); err != nil {
			return err
		}
		return policy.Validate(policy.Tier(screenConfig.Tier))
	},
	RunE: runScreen,
}

var screenConfig common.CommandConfig

func init() {
	screenCmd.Flags().StringVarP(&screenConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	screenCmd.Flags().StringVar(&screenConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	screenCmd.Flags().StringVar(&screenConfig.Filter, "filter", "", "Candidate filter: all, suitable, or not_suitable")
	screenCmd.Flags().StringVar(&screenConfig.Tier, "tier", "", "Role tier: auto, fresher, or mid_senior")

	// Add completion for format and tier flags
	_ = screenCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = screenCmd.RegisterFlagCompletionFunc("tier", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		tiers := []string{string(policy.TierAuto)}
		for _, t := range policy.KnownTiers() {
			tiers = append(tiers, string(t))
		}
		return tiers, cobra.ShellCompDirectiveNoFileComp
	})
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for the screening run
	aiService, err := ai.NewService(&cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()

	orchestrator := screening.New(aiService.Provider, cfg.Screening, logger)

	err = common.RunScreeningCommand(
		cmd.Context(),
		logger,
		screenConfig,
		args[0],
		args[1:],
		orchestrator.Screen,
	)

	if err != nil {
		return fmt.Errorf("failed to screen resumes: %w", err)
	}
	logger.Info("Resume screening completed successfully")
	return nil
}
