package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/report-deck/pkg/adapters"
	"github.com/de-tools/report-deck/pkg/models/api"
	"github.com/de-tools/report-deck/pkg/runtime/app"
	"github.com/de-tools/report-deck/pkg/runtime/terminal/export"
)

// AppLoader builds the application services, typically from a config file.
type AppLoader func(ctx context.Context) (*app.App, error)

func NewRenderCmd(load AppLoader, reporter *export.Reporter) *cobra.Command {
	var inputPath, outputPath, templatePath string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a report from a JSON request body",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			req, err := readRequest(inputPath)
			if err != nil {
				return err
			}
			if errs := req.Validate(); len(errs) > 0 {
				joined := make([]error, 0, len(errs))
				for _, e := range errs {
					joined = append(joined, e)
				}
				return fmt.Errorf("invalid input: %w", errors.Join(joined...))
			}

			a, err := load(ctx)
			if err != nil {
				return err
			}
			generator := a.Generator
			if templatePath != "" {
				generator = generator.WithTemplate(templatePath)
			}

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			res, err := generator.Render(ctx, adapters.MapReportRequestApiToDomain(req), out)
			if closeErr := out.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(outputPath)
				return fmt.Errorf("failed to render report: %w", err)
			}

			return reporter.HandleRender(export.Rendered{Output: outputPath, Result: res})
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the JSON report request")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "informe_generado.pptx", "Path of the generated .pptx")
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Override the configured template")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func readRequest(path string) (api.ReportRequest, error) {
	var req api.ReportRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read input: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse input: %w", err)
	}
	return req, nil
}
