package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/storage/minio"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	dto "github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

// NewExportCmd creates the export command group.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Work with descriptor tables exported to the object store",
	}
	cmd.AddCommand(newExportGetCmd())
	return cmd
}

func newExportGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "get <batch-id>",
		Short:   "Download an exported descriptor table",
		Example: "  racctl export get 3f0c... -o csv > table.csv",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cliCtx.Tables == nil {
				return apperrors.New(apperrors.ErrCodeServiceUnavailable, "no object store is configured")
			}

			ctx, cancel := cliCtx.operationContext(cmd)
			defer cancel()

			table, err := cliCtx.Tables.GetTable(ctx, args[0], format)
			if err != nil {
				return err
			}
			resp := &dto.BatchResponse{
				BatchID:     args[0],
				Columns:     table.Columns,
				MoleculeIDs: table.MoleculeIDs,
				Rows:        table.NullableRows(),
				NaNColumns:  table.NaNColumns(),
			}
			return PrintResult(cmd, &tableView{BatchResponse: resp, table: table})
		},
	}
	cmd.Flags().StringVar(&format, "format", minio.FormatCSV, "stored format: csv or json")
	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "racctl %s\n  commit:  %s\n  built:   %s\n  go:      %s\n",
				Version, GitCommit, BuildDate, runtime.Version())
			return nil
		},
	}
}
