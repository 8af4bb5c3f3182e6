package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/RAC-Descriptors/internal/domain/periodic"
	dto "github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

// NewPropertiesCmd creates the properties subcommand.
func NewPropertiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "List the atomic properties descriptors can be computed for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return PrintResult(cmd, propertyList(cliCtx.Service.Properties()))
		},
	}
}

type propertyList []dto.PropertyInfo

func (p propertyList) TableHeaders() []string { return []string{"Name", "Label", "Source"} }

func (p propertyList) TableRows() [][]string {
	rows := make([][]string, len(p))
	for i, info := range p {
		rows[i] = []string{info.Name, info.Label, info.Source}
	}
	return rows
}

// NewElementCmd creates the element subcommand.
func NewElementCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "element <symbol>",
		Short:   "Show the periodic-table data of an element",
		Example: "  racctl element Fe -o json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			el, err := cliCtx.Service.Element(args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, newElementView(el))
		},
	}
}

// elementView adds the table position to the wire form.
type elementView struct {
	dto.ElementInfo
	Row   int `json:"row"`
	Group int `json:"group"`
}

func newElementView(el *periodic.Element) *elementView {
	v := dto.NullableFloats([]float64{el.AtomicMass, el.Electronegativity, el.ElectronAffinity, el.IonizationEnergy, el.AtomicRadius})
	return &elementView{
		ElementInfo: dto.ElementInfo{
			Symbol:            el.Symbol,
			Name:              el.Name,
			Z:                 el.Z,
			AtomicMass:        v[0],
			Electronegativity: v[1],
			ElectronAffinity:  v[2],
			IonizationEnergy:  v[3],
			MinOxidationState: el.MinOxidationState,
			MaxOxidationState: el.MaxOxidationState,
			AtomicRadius:      v[4],
		},
		Row:   el.Row(),
		Group: el.Group(),
	}
}

func (e *elementView) TableHeaders() []string { return []string{"Field", "Value"} }

func (e *elementView) TableRows() [][]string {
	return [][]string{
		{"symbol", e.Symbol},
		{"name", e.Name},
		{"z", strconv.Itoa(e.Z)},
		{"row", strconv.Itoa(e.Row)},
		{"group", strconv.Itoa(e.Group)},
		{"atomic_mass", formatNullable(e.AtomicMass)},
		{"electronegativity", formatNullable(e.Electronegativity)},
		{"electron_affinity", formatNullable(e.ElectronAffinity)},
		{"ionization_energy", formatNullable(e.IonizationEnergy)},
		{"min_oxidation_state", strconv.Itoa(e.MinOxidationState)},
		{"max_oxidation_state", strconv.Itoa(e.MaxOxidationState)},
		{"atomic_radius", formatNullable(e.AtomicRadius)},
	}
}
