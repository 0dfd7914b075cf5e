package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"resumescreen/internal/ai"
	appErrors "resumescreen/internal/errors"
	"resumescreen/internal/formatters"
	"resumescreen/internal/observability"
	"resumescreen/internal/policy"
	"resumescreen/internal/screening"
	"resumescreen/internal/types"
	"resumescreen/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// createScreenHandler wraps the screening handler with observability.
// The endpoint accepts a multipart form with a "job_description" field,
// an optional "tier" field, and one or more "resumes" file parts.
func (s *Server) createScreenHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumescreen.api")
		ctx, span := tracer.Start(ctx, "api.screen")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		req, errResp := s.parseScreenRequest(r)
		if errResp != nil {
			span.RecordError(fmt.Errorf("%s", errResp.Error))
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, errResp.Error, errResp.Message, http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_count", len(req.Resumes)),
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("request.tier", req.Tier),
			attribute.String("operation", "screen"),
		)

		// Create AI service for the screening run
		aiService, err := ai.NewService(&s.AppConfig.AI, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := aiService.Close(); err != nil {
				s.Logger.Warn("Failed to close AI service", "error", err)
			}
		}()

		orchestrator := screening.New(aiService.Provider, s.AppConfig.Screening, s.Logger, s.orchestratorOpts...)

		// Track the screening run with metrics
		metrics := om.GetMetrics()
		var result *types.ScreeningResult
		err = metrics.TrackAIOperationWithTokens(ctx, "screen", func(ctx context.Context) *observability.AIOperationResult {
			var screenErr error
			result, screenErr = orchestrator.Screen(ctx, *req)
			return &observability.AIOperationResult{Error: screenErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "screening"))
			metrics.RecordBusinessMetric(ctx, "batch_screened", false,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to screen resumes", err.Error(), screeningErrorStatus(err))
			return
		}

		// Record success metrics
		metrics.RecordBusinessMetric(ctx, "batch_screened", true,
			attribute.Int("candidates", len(result.Evaluations)),
			attribute.String("role_type", result.RoleTier))
		for range result.Evaluations {
			metrics.RecordBusinessMetric(ctx, "resume_screened", true)
		}
		for _, warning := range result.Warnings {
			metrics.RecordBusinessMetric(ctx, "extraction_failed", false,
				attribute.String("filename", warning.FileName))
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("response.role_type", result.RoleTier),
			attribute.Int("response.candidates", len(result.Evaluations)),
			attribute.Int("response.warnings", len(result.Warnings)),
		)

		if err := s.writeScreeningResult(w, r, result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// writeScreeningResult renders the result as JSON, or as the plain-text
// report when the caller asks for text/plain
func (s *Server) writeScreeningResult(w http.ResponseWriter, r *http.Request, result *types.ScreeningResult) error {
	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		report, err := formatters.GlobalRegistry.Format(formatters.FilteredResult{Result: result, Filter: formatters.FilterAll}, "text")
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err = io.WriteString(w, report)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// parseScreenRequest parses and validates the multipart screening request
func (s *Server) parseScreenRequest(r *http.Request) (*types.ScreeningRequest, *ErrorResponse) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, &ErrorResponse{
				Error:   "Request too large",
				Message: fmt.Sprintf("request body exceeds limit of %s", utils.FormatFileSize(maxBytesErr.Limit)),
			}
		}
		return nil, &ErrorResponse{
			Error:   "Invalid request body",
			Message: "expected multipart/form-data: " + err.Error(),
		}
	}

	jobDescription := strings.TrimSpace(r.FormValue("job_description"))
	if jobDescription == "" {
		return nil, &ErrorResponse{
			Error:   "Missing job description",
			Message: "job_description field is required",
		}
	}

	tier := r.FormValue("tier")
	if tier != "" {
		if err := policy.Validate(policy.Tier(tier)); err != nil {
			return nil, &ErrorResponse{
				Error:   "Unknown role tier",
				Message: err.Error(),
			}
		}
	}

	fileHeaders := r.MultipartForm.File["resumes"]
	if len(fileHeaders) == 0 {
		return nil, &ErrorResponse{
			Error:   "Missing resumes",
			Message: "at least one resume file part named 'resumes' is required",
		}
	}
	if maxResumes := s.AppConfig.Screening.MaxResumes; maxResumes > 0 && len(fileHeaders) > maxResumes {
		return nil, &ErrorResponse{
			Error:   "Too many resumes",
			Message: fmt.Sprintf("got %d resumes, limit is %d per request", len(fileHeaders), maxResumes),
		}
	}

	resumes := make([]types.NamedFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		if s.MaxFileSize > 0 && header.Size > s.MaxFileSize {
			return nil, &ErrorResponse{
				Error:   "Resume too large",
				Message: fmt.Sprintf("%s is %s, limit is %s per file", header.Filename, utils.FormatFileSize(header.Size), utils.FormatFileSize(s.MaxFileSize)),
			}
		}

		data, err := readMultipartFile(header)
		if err != nil {
			return nil, &ErrorResponse{
				Error:   "Failed to read resume",
				Message: fmt.Sprintf("%s: %v", header.Filename, err),
			}
		}
		resumes = append(resumes, types.NamedFile{Name: header.Filename, Data: data})
	}

	return &types.ScreeningRequest{
		JobDescription: jobDescription,
		Resumes:        resumes,
		Tier:           tier,
	}, nil
}

// screeningErrorStatus maps a screening error to an HTTP status code
func screeningErrorStatus(err error) int {
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	// Upstream model faults surface as 502, caller faults as 400
	switch appErr.Code {
	case appErrors.ErrCodeMalformedOutput, appErrors.ErrCodeSchemaViolation,
		appErrors.ErrCodeIDMismatch, appErrors.ErrCodeScoreOutOfRange,
		appErrors.ErrCodeProviderUnavailable, appErrors.ErrCodeUnexpectedResponse:
		return http.StatusBadGateway
	}

	if appErr.Type == appErrors.ErrorTypeValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// readMultipartFile reads one uploaded file part fully into memory
func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	return io.ReadAll(file)
}
