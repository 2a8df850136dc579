package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/report-deck/pkg/runtime/terminal/export"
	"github.com/de-tools/report-deck/pkg/services/report"
)

func NewInspectCmd(reporter *export.Reporter) *cobra.Command {
	var templatePath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the markers of a template and locate its prototype slide",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inspection, err := report.Inspect(templatePath)
			if err != nil {
				return fmt.Errorf("failed to inspect template: %w", err)
			}
			return reporter.HandleInspection(inspection)
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Path to the .pptx template")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}
