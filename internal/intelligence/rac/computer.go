// Package rac computes Revised Autocorrelation (RAC) descriptors: atomic
// properties propagated through graph-distance convolutions and reduced
// first per atom, then per molecule, into a labeled feature vector.
package rac

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"github.com/turtacn/RAC-Descriptors/internal/domain/periodic"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// Defaults for Config.
const (
	DefaultDepth = 4
)

// FailurePolicy decides what ComputeDescriptors does when a molecule fails.
type FailurePolicy int

const (
	// FailFast aborts the batch on the first failing molecule.
	FailFast FailurePolicy = iota
	// SkipAndReport drops failing molecules and lists them in Table.Failures.
	SkipAndReport
)

func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	case SkipAndReport:
		return "skip_and_report"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy accepts "fail_fast" (or "") and "skip_and_report".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "fail_fast":
		return FailFast, nil
	case "skip_and_report":
		return SkipAndReport, nil
	}
	return 0, apperrors.Newf(apperrors.ErrCodeValidation, "unknown failure policy %q", s)
}

// Config is the engine configuration. It is validated by NewComputer and not
// changed afterwards.
type Config struct {
	Depth           int
	Properties      []string
	AtomStats       []Statistic
	MolecularStats  []Statistic
	ElementLabelKey string

	// AttributeProperties names node attributes usable as properties.
	AttributeProperties []string

	FailurePolicy FailurePolicy
	// Concurrency bounds parallel molecules in a batch; 0 means GOMAXPROCS.
	Concurrency int
}

// DefaultConfig returns depth 4, all built-in properties, atom stats [sum] and
// molecular stats [sum, std, min, max].
func DefaultConfig() Config {
	return Config{
		Depth:           DefaultDepth,
		Properties:      PropertyNames(),
		AtomStats:       []Statistic{StatSum},
		MolecularStats:  []Statistic{StatSum, StatStdDev, StatMin, StatMax},
		ElementLabelKey: molecule.DefaultLabelKey,
		FailurePolicy:   FailFast,
	}
}

// withDefaults fills empty fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Properties) == 0 {
		c.Properties = d.Properties
	}
	if len(c.AtomStats) == 0 {
		c.AtomStats = d.AtomStats
	}
	if len(c.MolecularStats) == 0 {
		c.MolecularStats = d.MolecularStats
	}
	if c.ElementLabelKey == "" {
		c.ElementLabelKey = d.ElementLabelKey
	}
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.GOMAXPROCS(0)
	}
	c.Properties = append([]string(nil), c.Properties...)
	c.AtomStats = append([]Statistic(nil), c.AtomStats...)
	c.MolecularStats = append([]Statistic(nil), c.MolecularStats...)
	c.AttributeProperties = append([]string(nil), c.AttributeProperties...)
	return c
}

// FeatureCount is the vector length for this configuration.
func (c Config) FeatureCount() int {
	return len(c.Properties) * (c.Depth + 1) * len(c.AtomStats) * len(c.MolecularStats)
}

// Option customizes a Computer.
type Option func(*Computer)

// WithLogger sets the diagnostics logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Computer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSource sets the element data source.
func WithSource(s periodic.Source) Option {
	return func(c *Computer) {
		if s != nil {
			c.source = s
		}
	}
}

// WithProgress sets a batch progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Computer) { c.progress = fn }
}

// Computer runs the RAC pipeline. It holds no per-molecule state and is safe
// for concurrent use.
type Computer struct {
	cfg      Config
	source   periodic.Source
	resolver *Resolver
	logger   logging.Logger
	progress ProgressFunc
}

// NewComputer validates cfg and builds a Computer.
func NewComputer(cfg Config, opts ...Option) (*Computer, error) {
	cfg = cfg.withDefaults()
	if cfg.Depth < 0 {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidDepth, "depth must be non-negative, got %d", cfg.Depth)
	}
	for _, stats := range [][]Statistic{cfg.AtomStats, cfg.MolecularStats} {
		for _, s := range stats {
			if s < StatSum || s > StatMax {
				return nil, &InvalidStatisticError{Name: s.String()}
			}
		}
	}

	c := &Computer{
		cfg:    cfg,
		source: periodic.DefaultTable(),
		logger: logging.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.resolver = NewResolver(c.source, cfg.ElementLabelKey, cfg.AttributeProperties)
	if err := c.resolver.Validate(cfg.Properties); err != nil {
		return nil, err
	}
	return c, nil
}

// Config returns a copy of the effective configuration.
func (c *Computer) Config() Config {
	cfg := c.cfg
	cfg.Properties = append([]string(nil), cfg.Properties...)
	cfg.AtomStats = append([]Statistic(nil), cfg.AtomStats...)
	cfg.MolecularStats = append([]Statistic(nil), cfg.MolecularStats...)
	cfg.AttributeProperties = append([]string(nil), cfg.AttributeProperties...)
	return cfg
}

// Resolver returns the property resolver.
func (c *Computer) Resolver() *Resolver { return c.resolver }

// Source returns the element data source.
func (c *Computer) Source() periodic.Source { return c.source }

// MoleculeAutocorrelation computes the descriptor vector of g for properties,
// or for the configured properties when none are given. Every property is
// validated before any computation; the graph is canonicalized once and the
// per-property vectors are concatenated in request order.
func (c *Computer) MoleculeAutocorrelation(g *molecule.Graph, properties ...string) (FeatureVector, error) {
	if len(properties) == 0 {
		properties = c.cfg.Properties
	}
	if err := c.resolver.Validate(properties); err != nil {
		return FeatureVector{}, err
	}

	cg, err := molecule.Canonicalize(g, c.cfg.ElementLabelKey, c.logger)
	if err != nil {
		return FeatureVector{}, err
	}

	size := len(properties) * (c.cfg.Depth + 1) * len(c.cfg.AtomStats) * len(c.cfg.MolecularStats)
	out := FeatureVector{
		Values: make([]float64, 0, size),
		Labels: make([]string, 0, size),
	}
	for _, p := range properties {
		vec, label, err := c.resolver.Resolve(cg, p)
		if err != nil {
			return FeatureVector{}, err
		}
		out.Append(Aggregate(cg, vec, label, c.cfg.Depth, c.cfg.AtomStats, c.cfg.MolecularStats))
	}
	return out, nil
}

// MoleculeError ties a batch failure to its molecule.
type MoleculeError struct {
	Index      int
	MoleculeID string
	Err        error
}

func (e *MoleculeError) Error() string {
	if e.MoleculeID != "" {
		return fmt.Sprintf("molecule %d (%s): %v", e.Index, e.MoleculeID, e.Err)
	}
	return fmt.Sprintf("molecule %d: %v", e.Index, e.Err)
}

func (e *MoleculeError) Unwrap() error { return e.Err }

// MoleculeID returns g.ID, or the index when g has no ID.
func MoleculeID(g *molecule.Graph, index int) string {
	if g != nil && g.ID != "" {
		return g.ID
	}
	return strconv.Itoa(index)
}

// ComputeDescriptors runs MoleculeAutocorrelation on every molecule, in
// parallel, and assembles the results in input order. Under FailFast the
// first failure aborts the batch with a *MoleculeError; under SkipAndReport
// failing molecules are left out of the rows and listed in Failures. Any
// column holding a NaN is reported with a WARN diagnostic.
func (c *Computer) ComputeDescriptors(ctx context.Context, molecules []*molecule.Graph) (*Table, error) {
	start := time.Now()
	failFast := c.cfg.FailurePolicy == FailFast

	results := runBounded(ctx, molecules, c.cfg.Concurrency, failFast,
		func(_ context.Context, g *molecule.Graph) (FeatureVector, error) {
			return c.MoleculeAutocorrelation(g)
		}, c.progress)

	var (
		ids      []string
		vectors  []FeatureVector
		failures []Failure
	)
	for i, r := range results {
		id := MoleculeID(molecules[i], i)
		if r.skipped {
			continue
		}
		if r.err != nil {
			if failFast {
				return nil, &MoleculeError{Index: i, MoleculeID: id, Err: r.err}
			}
			failures = append(failures, Failure{Index: i, MoleculeID: id, Err: r.err})
			c.logger.Debug("molecule skipped", logging.Int("index", i), logging.String("molecule", id), logging.Err(r.err))
			continue
		}
		ids = append(ids, id)
		vectors = append(vectors, r.value)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeComputationAborted, "descriptor batch interrupted")
	}

	table := NewTable(ids, vectors)
	table.Failures = failures
	if nan := table.NaNColumns(); len(nan) > 0 {
		c.logger.Warn(NaNColumnsMessage(len(nan), len(table.Columns)), logging.Strings("columns", nan))
	}
	logging.LogOperationDuration(c.logger, "compute_descriptors", start,
		logging.Int("molecules", len(molecules)),
		logging.Int("failed", len(failures)),
		logging.Int("columns", len(table.Columns)))
	return table, nil
}

// NaNColumnsMessage is the batch NaN diagnostic.
func NaNColumnsMessage(nan, total int) string {
	return fmt.Sprintf("%d of %d calculated features have NaN values for some molecules!", nan, total)
}
