package rac

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"github.com/turtacn/RAC-Descriptors/internal/domain/periodic"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RAC-Descriptors/internal/testutil"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// withDefaults returns DefaultConfig with mod applied.
func withDefaults(mod func(*Config)) Config {
	cfg := DefaultConfig()
	mod(&cfg)
	return cfg
}

func newTestComputer(t *testing.T, cfg Config, opts ...Option) *Computer {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNopLogger())}, opts...)
	c, err := NewComputer(cfg, opts...)
	require.NoError(t, err)
	return c
}

func loadCHFixture(t *testing.T) FeatureVector {
	t.Helper()
	data, err := os.ReadFile("testdata/ch_depth4.json")
	require.NoError(t, err)
	var fx FeatureVector
	var raw struct {
		Labels []string  `json:"labels"`
		Values []float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	fx.Labels, fx.Values = raw.Labels, raw.Values
	return fx
}

func TestMoleculeAutocorrelation_CHRegression(t *testing.T) {
	want := loadCHFixture(t)
	require.Len(t, want.Labels, 240)

	c := newTestComputer(t, DefaultConfig())
	got, err := c.MoleculeAutocorrelation(graphOf([]string{"C", "H"}, [2]int{0, 1}))
	require.NoError(t, err)

	assert.Equal(t, want.Labels, got.Labels)
	assert.InDeltaSlice(t, want.Values, got.Values, 1e-9)

	chi0, _ := got.Get("chi-0-sum")
	assert.InDelta(t, 11.3425, chi0, 1e-12)
	chi1, _ := got.Get("chi-1-sum")
	assert.InDelta(t, 11.22, chi1, 1e-12)
	for _, l := range []string{"T-0-sum", "T-1-sum", "I-0-sum", "I-1-sum"} {
		v, ok := got.Get(l)
		require.True(t, ok, l)
		assert.Equal(t, 2.0, v, l)
	}
}

func TestMoleculeAutocorrelation_Alignment(t *testing.T) {
	g := graphOf([]string{"C", "C", "O", "H"}, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3})
	cases := []Config{
		DefaultConfig(),
		{Depth: 0, Properties: []string{"ident"}, AtomStats: []Statistic{StatSum}, MolecularStats: []Statistic{StatSum}},
		{Depth: 2, Properties: []string{"topology", "row"}, AtomStats: []Statistic{StatSum, StatStdDev, StatMin}, MolecularStats: []Statistic{StatMax, StatMin}},
		{Depth: 6, AtomStats: []Statistic{StatMin, StatMax}},
	}
	for _, cfg := range cases {
		c := newTestComputer(t, cfg)
		fv, err := c.MoleculeAutocorrelation(g)
		require.NoError(t, err)

		eff := c.Config()
		want := len(eff.Properties) * (eff.Depth + 1) * len(eff.AtomStats) * len(eff.MolecularStats)
		assert.Equal(t, want, eff.FeatureCount())
		assert.Len(t, fv.Values, want)
		assert.Len(t, fv.Labels, want)
	}
}

func TestMoleculeAutocorrelation_IdentDepthZero(t *testing.T) {
	g := graphOf([]string{"C", "C", "N", "H", "H"}, [2]int{0, 1}, [2]int{1, 2}, [2]int{0, 3}, [2]int{0, 4})
	c := newTestComputer(t, Config{Depth: 3, Properties: []string{"ident"}})

	fv, err := c.MoleculeAutocorrelation(g)
	require.NoError(t, err)
	got := fv.Map()
	assert.Equal(t, 1.0, got["I-0-min"])
	assert.Equal(t, 1.0, got["I-0-max"])
	assert.Equal(t, 0.0, got["I-0-std"])
	assert.Equal(t, 5.0, got["I-0-sum"])
}

func TestMoleculeAutocorrelation_ZeroPaddingBeyondDiameter(t *testing.T) {
	g := graphOf([]string{"C", "O"}, [2]int{0, 1})
	c := newTestComputer(t, Config{
		Depth:          5,
		AtomStats:      []Statistic{StatSum, StatStdDev, StatMin, StatMax},
		MolecularStats: []Statistic{StatSum, StatStdDev, StatMin, StatMax},
	})

	fv, err := c.MoleculeAutocorrelation(g)
	require.NoError(t, err)
	for i, l := range fv.Labels {
		parts := strings.Split(l, "-")
		require.Len(t, parts, 4, l)
		depth, err := strconv.Atoi(parts[1])
		require.NoError(t, err)
		if depth >= 2 {
			assert.Equal(t, 0.0, fv.Values[i], l)
		}
	}
}

func TestMoleculeAutocorrelation_Deterministic(t *testing.T) {
	g, err := molecule.ParseSMILES("CC(=O)Oc1ccccc1C(=O)O", "")
	require.NoError(t, err)
	c := newTestComputer(t, DefaultConfig())

	first, err := c.MoleculeAutocorrelation(g)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := c.MoleculeAutocorrelation(g)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMoleculeAutocorrelation_PermutationInvariance(t *testing.T) {
	labels := []string{"C", "O", "N", "H", "C"}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 4}}
	base := graphOf(labels, edges...)

	perm := []int{30, 10, 40, 20, 0}
	permuted := molecule.NewGraph()
	for i, l := range labels {
		permuted.AddNode(molecule.IntKey(perm[i]), molecule.Attrs{molecule.DefaultLabelKey: l})
	}
	for _, e := range edges {
		permuted.AddEdge(molecule.IntKey(perm[e[1]]), molecule.IntKey(perm[e[0]]), nil)
	}

	c := newTestComputer(t, DefaultConfig())
	a, err := c.MoleculeAutocorrelation(base)
	require.NoError(t, err)
	b, err := c.MoleculeAutocorrelation(permuted)
	require.NoError(t, err)

	assert.Equal(t, a.Labels, b.Labels)
	assert.InDeltaSlice(t, a.Values, b.Values, 1e-9)
}

func TestMoleculeAutocorrelation_PropertySubsetInCallerOrder(t *testing.T) {
	g := graphOf([]string{"C", "H"}, [2]int{0, 1})
	c := newTestComputer(t, DefaultConfig())

	fv, err := c.MoleculeAutocorrelation(g, "topology", "electronegativity")
	require.NoError(t, err)
	require.Len(t, fv.Labels, 40)
	assert.Equal(t, "T-0-sum", fv.Labels[0])
	assert.Equal(t, "chi-0-sum", fv.Labels[20])
}

func TestMoleculeAutocorrelation_InvalidPropertyFailsFirst(t *testing.T) {
	g := molecule.NewGraph()
	g.AddNode(molecule.IntKey(0), molecule.Attrs{"element": "C"})
	c := newTestComputer(t, DefaultConfig())

	_, err := c.MoleculeAutocorrelation(g, "ident", "polarizability")
	assert.ErrorIs(t, err, ErrInvalidProperty)

	_, err = c.MoleculeAutocorrelation(g, "ident")
	assert.ErrorIs(t, err, molecule.ErrMissingLabel)
}

func TestMoleculeAutocorrelation_UnknownElement(t *testing.T) {
	c := newTestComputer(t, DefaultConfig())
	_, err := c.MoleculeAutocorrelation(graphOf([]string{"C", "Qq"}, [2]int{0, 1}))
	assert.ErrorIs(t, err, periodic.ErrUnknownElement)
}

func TestMoleculeAutocorrelation_LowercaseLabelIsUnknown(t *testing.T) {
	c := newTestComputer(t, DefaultConfig())
	_, err := c.MoleculeAutocorrelation(graphOf([]string{"c", "O"}, [2]int{0, 1}))
	var unknown *periodic.UnknownElementError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "c", unknown.Symbol)
}

func TestMoleculeAutocorrelation_FBlockElements(t *testing.T) {
	c := newTestComputer(t, DefaultConfig())
	for _, sym := range []string{"Ce", "Eu", "Gd", "Lu", "Fr", "Th", "U"} {
		fv, err := c.MoleculeAutocorrelation(graphOf([]string{sym, "O"}, [2]int{0, 1}))
		require.NoError(t, err, sym)
		assert.Equal(t, 240, fv.Len(), sym)
	}
}

func TestMoleculeAutocorrelation_AttributeProperty(t *testing.T) {
	g := molecule.NewGraph()
	g.AddNode(molecule.IntKey(0), molecule.Attrs{molecule.DefaultLabelKey: "C", "charge": 0.5})
	g.AddNode(molecule.IntKey(1), molecule.Attrs{molecule.DefaultLabelKey: "H", "charge": 0.1})
	g.AddEdge(molecule.IntKey(0), molecule.IntKey(1), nil)

	c := newTestComputer(t, Config{Depth: 1, AttributeProperties: []string{"charge"}})
	fv, err := c.MoleculeAutocorrelation(g, "charge")
	require.NoError(t, err)

	got := fv.Map()
	assert.InDelta(t, 0.26, got["charge-0-sum"], 1e-12)
	assert.InDelta(t, 0.1, got["charge-1-sum"], 1e-12)
}

func TestNewComputer_Validation(t *testing.T) {
	_, err := NewComputer(Config{Depth: -1})
	assert.Equal(t, apperrors.ErrCodeInvalidDepth, apperrors.GetCode(err))

	_, err = NewComputer(Config{Properties: []string{"chi"}})
	assert.ErrorIs(t, err, ErrInvalidProperty)

	_, err = NewComputer(Config{AtomStats: []Statistic{Statistic(7)}})
	assert.ErrorIs(t, err, ErrInvalidStatistic)

	c, err := NewComputer(Config{})
	require.NoError(t, err)
	cfg := c.Config()
	assert.Equal(t, 0, cfg.Depth)
	assert.Equal(t, PropertyNames(), cfg.Properties)
	assert.Equal(t, []Statistic{StatSum}, cfg.AtomStats)
	assert.Equal(t, []Statistic{StatSum, StatStdDev, StatMin, StatMax}, cfg.MolecularStats)
	assert.Equal(t, molecule.DefaultLabelKey, cfg.ElementLabelKey)
	assert.Positive(t, cfg.Concurrency)
	assert.Equal(t, 48, cfg.FeatureCount())
	assert.Equal(t, 240, DefaultConfig().FeatureCount())
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FailFast, p)
	p, err = ParseFailurePolicy("skip_and_report")
	require.NoError(t, err)
	assert.Equal(t, SkipAndReport, p)
	assert.Equal(t, "skip_and_report", p.String())
	_, err = ParseFailurePolicy("retry")
	assert.Error(t, err)
}

func batchMolecules() []*molecule.Graph {
	ch := graphOf([]string{"C", "H"}, [2]int{0, 1})
	ch.ID = "ch"
	water := graphOf([]string{"O", "H", "H"}, [2]int{0, 1}, [2]int{0, 2})
	water.ID = "water"
	ethane := graphOf([]string{"C", "C"}, [2]int{0, 1})
	return []*molecule.Graph{ch, water, ethane}
}

func TestComputeDescriptors_Table(t *testing.T) {
	logger := testutil.NewMockLogger()
	c := newTestComputer(t, withDefaults(func(c *Config) { c.Concurrency = 2 }), WithLogger(logger))

	table, err := c.ComputeDescriptors(context.Background(), batchMolecules())
	require.NoError(t, err)

	assert.Equal(t, []string{"ch", "water", "2"}, table.MoleculeIDs)
	assert.Len(t, table.Columns, 240)
	require.Equal(t, 3, table.NumRows())
	assert.Empty(t, table.NaNColumns())
	assert.Empty(t, logger.MessagesAt("warn"))

	want := loadCHFixture(t)
	for i, l := range want.Labels {
		v, ok := table.Value(0, l)
		require.True(t, ok)
		assert.InDelta(t, want.Values[i], v, 1e-9, l)
	}
}

func TestComputeDescriptors_MatchesSequential(t *testing.T) {
	mols := batchMolecules()
	parallel := newTestComputer(t, withDefaults(func(c *Config) { c.Concurrency = 8 }))
	serial := newTestComputer(t, withDefaults(func(c *Config) { c.Concurrency = 1 }))

	a, err := parallel.ComputeDescriptors(context.Background(), mols)
	require.NoError(t, err)
	b, err := serial.ComputeDescriptors(context.Background(), mols)
	require.NoError(t, err)
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, a.Columns, b.Columns)
}

func TestComputeDescriptors_NaNDiagnostic(t *testing.T) {
	table, err := periodic.LoadTable([]byte(`
elements:
  - {symbol: "C", z: 6, electronegativity: 2.55}
  - {symbol: "Q", z: 119, electronegativity: .nan}
`))
	require.NoError(t, err)

	logger := testutil.NewMockLogger()
	c := newTestComputer(t, Config{
		Depth:      1,
		Properties: []string{"electronegativity", "ident"},
	}, WithSource(table), WithLogger(logger))

	mols := []*molecule.Graph{graphOf([]string{"C"}), graphOf([]string{"Q", "C"}, [2]int{0, 1})}
	out, err := c.ComputeDescriptors(context.Background(), mols)
	require.NoError(t, err)

	nan := out.NaNColumns()
	assert.Len(t, nan, 8)
	assert.Contains(t, nan, "chi-0-sum")
	assert.NotContains(t, nan, "I-0-sum")

	v, _ := out.Value(0, "chi-0-sum")
	assert.InDelta(t, 6.5025, v, 1e-12)

	warns := logger.MessagesAt("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "8 of 16 calculated features have NaN values for some molecules!", warns[0].Message)
	cols, ok := warns[0].Field("columns")
	require.True(t, ok)
	assert.Equal(t, nan, cols)
}

func TestComputeDescriptors_FailFast(t *testing.T) {
	mols := batchMolecules()
	bad := molecule.NewGraph()
	bad.ID = "unlabeled"
	bad.AddNode(molecule.IntKey(0), molecule.Attrs{})
	mols = append(mols[:1], append([]*molecule.Graph{bad}, mols[1:]...)...)

	c := newTestComputer(t, DefaultConfig())
	_, err := c.ComputeDescriptors(context.Background(), mols)
	require.Error(t, err)

	var molErr *MoleculeError
	require.True(t, errors.As(err, &molErr))
	assert.Equal(t, 1, molErr.Index)
	assert.Equal(t, "unlabeled", molErr.MoleculeID)
	assert.ErrorIs(t, err, molecule.ErrMissingLabel)
	assert.Equal(t, apperrors.ErrCodeMissingNodeLabel, apperrors.GetCode(err))
}

func TestComputeDescriptors_SkipAndReport(t *testing.T) {
	mols := append(batchMolecules(), graphOf([]string{"Zz"}))

	c := newTestComputer(t, withDefaults(func(c *Config) { c.FailurePolicy = SkipAndReport }))
	table, err := c.ComputeDescriptors(context.Background(), mols)
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())
	require.Len(t, table.Failures, 1)
	assert.Equal(t, 3, table.Failures[0].Index)
	assert.Equal(t, "3", table.Failures[0].MoleculeID)
	assert.ErrorIs(t, table.Failures[0].Err, periodic.ErrUnknownElement)

	wire := table.BatchFailures()
	require.Len(t, wire, 1)
	assert.Equal(t, string(apperrors.ErrCodeUnknownElement), wire[0].Code)
}

func TestComputeDescriptors_Progress(t *testing.T) {
	var (
		mu    sync.Mutex
		calls [][2]int
	)
	c := newTestComputer(t, Config{Concurrency: 3}, WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	}))

	_, err := c.ComputeDescriptors(context.Background(), batchMolecules())
	require.NoError(t, err)
	require.Len(t, calls, 3)
	for i, call := range calls {
		assert.Equal(t, [2]int{i + 1, 3}, call)
	}
}

func TestComputeDescriptors_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestComputer(t, DefaultConfig())
	_, err := c.ComputeDescriptors(ctx, batchMolecules())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeComputationAborted, apperrors.GetCode(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeDescriptors_Empty(t *testing.T) {
	c := newTestComputer(t, DefaultConfig())
	table, err := c.ComputeDescriptors(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.NumRows())
	assert.Empty(t, table.Columns)
}

func TestNaNColumnsMessage(t *testing.T) {
	assert.Equal(t, "3 of 240 calculated features have NaN values for some molecules!", NaNColumnsMessage(3, 240))
}
