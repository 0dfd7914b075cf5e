package common

import (
	"fmt"

	"resumescreen/internal/errors"
	"resumescreen/internal/formatters"
	"resumescreen/internal/types"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
	Filter       string
	Tier         string
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	logger        *errors.Logger
}

// NewOutputHandler creates a new output handler
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger),
		registry:      formatters.GlobalRegistry,
		logger:        logger,
	}
}

// HandleScreeningResult renders a screening result with the configured
// format and report filter, then writes it to the output file or stdout.
func (oh *OutputHandler) HandleScreeningResult(result *types.ScreeningResult, config CommandConfig) error {
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	filter := config.Filter
	if filter == "" {
		filter = formatters.FilterAll
	}

	output, err := oh.registry.Format(formatters.FilteredResult{Result: result, Filter: filter}, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile != "" {
		if err := oh.fileProcessor.WriteFile(config.OutputFile, output); err != nil {
			return err // Error already wrapped by WriteFile
		}

		oh.logger.Info("Screening report written",
			"file", config.OutputFile,
			"format", config.OutputFormat,
			"filter", filter)
	} else {
		fmt.Print(output)
	}

	return nil
}

// GetSupportedFormats returns all supported output formats
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
