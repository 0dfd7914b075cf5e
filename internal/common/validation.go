package common

import (
	"fmt"
	"slices"

	"resumescreen/internal/formatters"
)

// reportFilters are the candidate filters a report command accepts.
var reportFilters = []string{formatters.FilterAll, formatters.FilterSuitable, formatters.FilterNotSuitable}

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateFilter validates a report candidate filter
func ValidateFilter(filter string) error {
	if filter == "" {
		return nil // defaults to "all"
	}

	if slices.Contains(reportFilters, filter) {
		return nil
	}

	return fmt.Errorf("unsupported filter '%s'. Supported filters: %v",
		filter, reportFilters)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
