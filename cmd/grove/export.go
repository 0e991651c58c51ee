package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(cfgPath *string) *cobra.Command {
	var formID, out, sheetID, sheetName string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a form's responses to an XLSX file or a Google Sheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if formID == "" {
				return errors.New("--form is required")
			}
			if (out == "") == (sheetID == "") {
				return errors.New("exactly one of --out or --sheet-id is required")
			}
			e, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if sheetID != "" {
				res, err := e.app.Exports.SyncSheets(cmd.Context(), operator, formID, sheetID, sheetName)
				if err != nil {
					return err
				}
				cmd.Printf("wrote %d rows to %s!%s\n", res.Rows, res.SpreadsheetID, res.Sheet)
				return nil
			}
			dl, err := e.app.Exports.XLSX(operator, formID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, dl.Data, 0o644); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&formID, "form", "", "form id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write an XLSX file to this path")
	cmd.Flags().StringVar(&sheetID, "sheet-id", "", "Google spreadsheet id to sync into")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "sheet tab name (default Responses)")
	return cmd
}
