package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/RAC-Descriptors/internal/application/descriptor"
	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/storage/minio"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	dto "github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

type batchOptions struct {
	skipFailures bool
	export       bool
	exportFormat string
	fromGraph    []string
	format       string
	progress     bool
}

// NewBatchCmd creates the batch subcommand.
func NewBatchCmd() *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch [files...]",
		Short: "Compute a descriptor table over many molecules",
		Long: "Compute a RAC descriptor table over every molecule in the given documents,\n" +
			"or over molecules stored in the graph database with --from-graph. Each file\n" +
			"may hold one document, a list, or an object with a \"molecules\" key.",
		Example: `  racctl batch set.json -o csv > table.csv
  racctl batch a.json b.yaml --skip-failures --export
  racctl batch --from-graph mol-1,mol-2 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.skipFailures, "skip-failures", false, "drop failing molecules and report them instead of aborting")
	flags.BoolVar(&opts.export, "export", false, "upload the table to the object store")
	flags.StringVar(&opts.exportFormat, "export-format", minio.FormatCSV, "export format: csv or json")
	flags.StringSliceVar(&opts.fromGraph, "from-graph", nil, "molecule ids to load from the graph database")
	flags.StringVar(&opts.format, "format", "", "input document format: json or yaml (default: from file extension)")
	flags.BoolVar(&opts.progress, "progress", false, "report progress on stderr")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string, opts *batchOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if len(opts.fromGraph) > 0 && len(args) > 0 {
		return apperrors.New(apperrors.ErrCodeValidation, "--from-graph and input files are mutually exclusive")
	}
	if len(opts.fromGraph) == 0 && len(args) == 0 {
		return apperrors.New(apperrors.ErrCodeValidation, "no input: pass document files or --from-graph ids")
	}
	if opts.export && len(opts.fromGraph) > 0 {
		return apperrors.New(apperrors.ErrCodeValidation, "--export is not supported with --from-graph")
	}

	svc := cliCtx.Service
	if opts.progress {
		out := cmd.ErrOrStderr()
		if svc, err = cliCtx.serviceWith(descriptor.WithProgress(func(done, total int) {
			fmt.Fprintf(out, "\r%d/%d molecules", done, total)
			if done == total {
				fmt.Fprintln(out)
			}
		})); err != nil {
			return err
		}
	}

	ctx, cancel := cliCtx.operationContext(cmd)
	defer cancel()

	var res *descriptor.BatchResult
	if len(opts.fromGraph) > 0 {
		res, err = svc.ComputeFromGraphStore(ctx, opts.fromGraph, dto.Options{}, opts.skipFailures)
	} else {
		var docs []dto.MoleculeDocument
		for _, path := range args {
			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			parsed, err := molecule.ParseDocuments(data, inputFormat(path, opts.format))
			if err != nil {
				return apperrors.Wrap(err, apperrors.GetCode(err), "parsing input").WithDetail(path)
			}
			docs = append(docs, parsed...)
		}
		res, err = svc.ComputeBatch(ctx, dto.BatchRequest{
			Molecules:    docs,
			SkipFailures: opts.skipFailures,
			Export:       opts.export,
			ExportFormat: opts.exportFormat,
		})
	}
	if err != nil {
		return err
	}

	printFailures(cmd, res.Table.Failures)
	if nan := len(res.Table.NaNColumns()); nan > 0 {
		PrintWarning(cmd, rac.NaNColumnsMessage(nan, len(res.Table.Columns)))
	}
	if res.Export != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s batch %s exported to %s\n", color.GreenString("OK:"), res.BatchID, res.Export.URI)
	}
	return PrintResult(cmd, &tableView{BatchResponse: res.Response(), table: res.Table})
}

func printFailures(cmd *cobra.Command, failures []rac.Failure) {
	for _, f := range failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s molecule %d (%s): %v\n",
			color.RedString("FAILED"), f.Index, f.MoleculeID, f.Err)
	}
}

// tableView renders a descriptor table. The table form is transposed so that
// molecules are columns.
type tableView struct {
	*dto.BatchResponse
	table *rac.Table
}

func (v *tableView) TableHeaders() []string {
	return append([]string{"Feature"}, v.table.MoleculeIDs...)
}

func (v *tableView) TableRows() [][]string {
	rows := make([][]string, len(v.table.Columns))
	for j, label := range v.table.Columns {
		row := make([]string, 0, v.table.NumRows()+1)
		row = append(row, label)
		for i := range v.table.Rows {
			row = append(row, formatValue(v.table.Rows[i][j]))
		}
		rows[j] = row
	}
	return rows
}

func (v *tableView) WriteCSV(cmd *cobra.Command) error {
	return v.table.WriteCSV(cmd.OutOrStdout())
}
