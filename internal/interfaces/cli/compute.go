package cli

import (
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	dto "github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

type computeOptions struct {
	smiles string
	id     string
	format string
}

// NewComputeCmd creates the compute subcommand.
func NewComputeCmd() *cobra.Command {
	opts := &computeOptions{}

	cmd := &cobra.Command{
		Use:   "compute [file|-]",
		Short: "Compute the descriptor vector of one molecule",
		Long: "Compute the RAC descriptor vector of a single molecule read from a JSON or\n" +
			"YAML graph document (file path or - for stdin), or given inline with --smiles.",
		Example: `  racctl compute --smiles CCO
  racctl compute water.json -o json
  cat mol.yaml | racctl compute - --format yaml --depth 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.smiles, "smiles", "", "SMILES string of the molecule")
	cmd.Flags().StringVar(&opts.id, "id", "", "molecule identifier")
	cmd.Flags().StringVar(&opts.format, "format", "", "input document format: json or yaml (default: from file extension)")
	return cmd
}

func runCompute(cmd *cobra.Command, args []string, opts *computeOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	var doc dto.MoleculeDocument
	switch {
	case opts.smiles != "" && len(args) > 0:
		return apperrors.New(apperrors.ErrCodeValidation, "--smiles and an input file are mutually exclusive")
	case opts.smiles != "":
		doc.SMILES = opts.smiles
	default:
		path := "-"
		if len(args) > 0 {
			path = args[0]
		}
		data, err := readInput(cmd, path)
		if err != nil {
			return err
		}
		if doc, err = molecule.ParseDocument(data, inputFormat(path, opts.format)); err != nil {
			return err
		}
	}
	if opts.id != "" {
		doc.ID = opts.id
	}

	ctx, cancel := cliCtx.operationContext(cmd)
	defer cancel()

	resp, err := cliCtx.Service.Compute(ctx, dto.ComputeRequest{Molecule: doc})
	if err != nil {
		return err
	}
	return PrintResult(cmd, &vectorView{resp})
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "reading stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "input file not found").WithDetail(path)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "reading input file").WithDetail(path)
	}
	return data, nil
}

func inputFormat(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if path == "-" {
		return molecule.FormatJSON
	}
	return molecule.FormatFromPath(path)
}

// vectorView renders a ComputeResponse.
type vectorView struct {
	*dto.ComputeResponse
}

func (v *vectorView) TableHeaders() []string { return []string{"Feature", "Value"} }

func (v *vectorView) TableRows() [][]string {
	rows := make([][]string, len(v.Labels))
	for i, l := range v.Labels {
		rows[i] = []string{l, formatNullable(v.Values[i])}
	}
	return rows
}

// WriteCSV writes the vector as a one-row descriptor table.
func (v *vectorView) WriteCSV(cmd *cobra.Command) error {
	vec := rac.FeatureVector{Labels: v.Labels, Values: make([]float64, len(v.Values))}
	for i, val := range v.Values {
		vec.Values[i] = math.NaN()
		if val != nil {
			vec.Values[i] = *val
		}
	}
	return rac.NewTable([]string{v.MoleculeID}, []rac.FeatureVector{vec}).WriteCSV(cmd.OutOrStdout())
}
