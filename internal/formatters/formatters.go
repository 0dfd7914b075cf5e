package formatters

import (
	"encoding/json"
	"fmt"

	"resumescreen/internal/types"
)

// Filter selects which candidates a report includes.
const (
	FilterAll         = "all"
	FilterSuitable    = "suitable"
	FilterNotSuitable = "not_suitable"
)

// FilteredResult pairs a screening result with a report filter.
type FilteredResult struct {
	Result *types.ScreeningResult
	Filter string
}

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScreeningResult", &ScreeningTextFormatter{})
	registry.RegisterFormatter("markdown", "ScreeningResult", &ScreeningMarkdownFormatter{})

	return registry
}

// GlobalRegistry is the default formatter registry instance
var GlobalRegistry = NewFormatterRegistry()

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScreeningResult, *types.ScreeningResult, FilteredResult:
		return "ScreeningResult"
	default:
		return "any"
	}
}

// normalizeResult unwraps the supported input shapes to a result plus filter.
func normalizeResult(data any) (*types.ScreeningResult, string, error) {
	switch v := data.(type) {
	case FilteredResult:
		filter := v.Filter
		if filter == "" {
			filter = FilterAll
		}
		return v.Result, filter, nil
	case *types.ScreeningResult:
		return v, FilterAll, nil
	case types.ScreeningResult:
		return &v, FilterAll, nil
	default:
		return nil, "", fmt.Errorf("expected ScreeningResult, got %T", data)
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	// Unwrap the filter wrapper so JSON output stays schema-shaped.
	if fr, ok := data.(FilteredResult); ok {
		data = fr.Result
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}
