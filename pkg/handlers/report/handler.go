package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/de-tools/report-deck/pkg/adapters"
	"github.com/de-tools/report-deck/pkg/models/api"
	"github.com/de-tools/report-deck/pkg/models/domain"
	"github.com/de-tools/report-deck/pkg/pptx"
	reportsvc "github.com/de-tools/report-deck/pkg/services/report"
)

const (
	AttachmentName        = "informe_generado.pptx"
	HeaderDiagnostics     = "X-Report-Diagnostics"
	maxRequestBodyBytes   = 1 << 20
	statusValidationError = http.StatusUnprocessableEntity
)

type Generator interface {
	Generate(ctx context.Context, in domain.ReportInput) (*reportsvc.Result, error)
}

type Archiver interface {
	Store(ctx context.Context, localPath string) (string, error)
}

type Handler struct {
	generator Generator
	archiver  Archiver
}

// NewHandler builds the report handler. archiver may be nil to disable archiving.
func NewHandler(generator Generator, archiver Archiver) *Handler {
	return &Handler{
		generator: generator,
		archiver:  archiver,
	}
}

func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.ReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeValidationErrors(w, logger, []api.FieldError{decodeError(err)})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, logger, errs)
		return
	}

	res, err := h.generator.Generate(ctx, adapters.MapReportRequestApiToDomain(req))
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to generate report")
		writeError(w, logger, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() {
		if err := os.Remove(res.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", res.Path).Msg("failed to remove report")
		}
	}()

	f, err := os.Open(res.Path)
	if err != nil {
		logger.Error().
			Err(err).
			Str("path", res.Path).
			Msg("failed to open generated report")
		writeError(w, logger, http.StatusInternalServerError, "failed to read generated report")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", pptx.ContentTypePresentation)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, AttachmentName))
	w.Header().Set(HeaderDiagnostics, strconv.Itoa(len(res.Diagnostics)))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		logger.Error().
			Err(err).
			Str("path", res.Path).
			Msg("failed to stream report")
	}

	if h.archiver != nil {
		if _, err := h.archiver.Store(context.WithoutCancel(ctx), res.Path); err != nil {
			logger.Warn().
				Err(err).
				Str("path", res.Path).
				Msg("failed to archive report")
		}
	}
}

func decodeError(err error) api.FieldError {
	var fieldErr api.FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return api.TypeError([]string{"body"}, typeErr)
	}
	return api.FieldError{
		Loc:  []string{"body"},
		Msg:  err.Error(),
		Type: "value_error.jsondecode",
	}
}

func writeValidationErrors(w http.ResponseWriter, logger *zerolog.Logger, errs []api.FieldError) {
	logger.Info().
		Int("errors", len(errs)).
		Msg("rejected report request")
	writeJSON(w, logger, statusValidationError, api.ValidationErrorResponse{Detail: errs})
}

func writeError(w http.ResponseWriter, logger *zerolog.Logger, status int, detail string) {
	writeJSON(w, logger, status, api.ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, logger *zerolog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode response")
	}
}
