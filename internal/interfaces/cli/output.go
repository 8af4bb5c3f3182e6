package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// tableProvider is implemented by results that have a tabular rendering.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// csvProvider is implemented by results that have a CSV rendering.
type csvProvider interface {
	WriteCSV(cmd *cobra.Command) error
}

// PrintResult writes data in the output format selected by --output.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch cliCtx.OutputFormat {
	case OutputJSON:
		return printJSON(cmd, data)
	case OutputCSV:
		if cp, ok := data.(csvProvider); ok {
			return cp.WriteCSV(cmd)
		}
		return printJSON(cmd, data)
	default:
		return printTable(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printTable(cmd *cobra.Command, data interface{}) error {
	tp, ok := data.(tableProvider)
	if !ok {
		return printJSON(cmd, data)
	}
	out, err := FormatTable(tp.TableHeaders(), tp.TableRows())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// FormatTable renders headers and rows as a bordered table.
func FormatTable(headers []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.Header(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return "", err
		}
	}
	if err := table.Render(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PrintSuccess writes a confirmation line to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("OK:"), msg)
}

// PrintWarning writes a warning line to stderr.
func PrintWarning(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.YellowString("Warning:"), msg)
}

// formatValue renders a descriptor value; NaN prints as "NaN".
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatValue(*v)
}
