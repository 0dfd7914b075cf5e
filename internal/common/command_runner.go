package common

import (
	"context"
	"fmt"
	"os"

	"resumescreen/internal/errors"
	"resumescreen/internal/types"
)

// ScreeningOperationFunc runs one screening invocation against the AI provider.
type ScreeningOperationFunc func(context.Context, types.ScreeningRequest) (*types.ScreeningResult, error)

// RunScreeningCommand encapsulates the common logic for file-based screening
// commands: read the job description and resume PDFs, run the operation, and
// format the result with the requested filter.
func RunScreeningCommand(
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	jobDescriptionFile string,
	resumeFiles []string,
	operation ScreeningOperationFunc,
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	jobDescription, err := fileProcessor.ReadJobDescription(jobDescriptionFile)
	if err != nil {
		return err
	}

	resumes, err := fileProcessor.ReadResumeFiles(resumeFiles...)
	if err != nil {
		return err
	}

	if logger != nil {
		logger.Info("Starting resume screening",
			"resume_count", len(resumes),
			"jd_chars", len(jobDescription),
			"tier", cmdConfig.Tier,
			"output_format", cmdConfig.OutputFormat)
	}

	result, err := operation(ctx, types.ScreeningRequest{
		JobDescription: jobDescription,
		Resumes:        resumes,
		Tier:           cmdConfig.Tier,
	})
	if err != nil {
		return err
	}

	// Excluded files are reported on stderr so a piped report stays clean.
	for _, warning := range result.Warnings {
		if logger != nil {
			logger.Warn("Resume excluded from screening",
				"filename", warning.FileName, "reason", warning.Reason)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %s excluded: %s\n", warning.FileName, warning.Reason)
		}
	}

	return outputHandler.HandleScreeningResult(result, cmdConfig)
}
