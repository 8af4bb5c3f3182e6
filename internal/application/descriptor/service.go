// Package descriptor provides the application service behind the HTTP API,
// the CLI and the streaming worker. It turns molecule documents into RAC
// descriptor vectors and tables, with per-request option overrides, optional
// export to the object store and loading from the graph database.
package descriptor

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"github.com/turtacn/RAC-Descriptors/internal/domain/periodic"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	monitoring "github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/storage/minio"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	dto "github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

// DefaultMaxBatchSize caps the molecules accepted by one batch call.
const DefaultMaxBatchSize = 10000

// Property sources reported by Properties.
const (
	SourcePeriodicTable = "periodic_table"
	SourceGraph         = "graph"
	SourceNodeAttribute = "node_attribute"
)

// TableStore persists exported tables. *minio.TableStore implements it.
type TableStore interface {
	PutTable(ctx context.Context, batchID string, table *rac.Table, format string) (*minio.ExportResult, error)
}

// MoleculeLoader loads stored molecules by id. *neo4j.MoleculeSource
// implements it.
type MoleculeLoader interface {
	Load(ctx context.Context, id string) (*molecule.Graph, error)
}

// BatchResult is a computed descriptor table.
type BatchResult struct {
	BatchID  string
	Table    *rac.Table
	Export   *minio.ExportResult
	Duration time.Duration
}

// Response renders the result in wire form.
func (r *BatchResult) Response() *dto.BatchResponse {
	resp := &dto.BatchResponse{
		BatchID:     r.BatchID,
		Columns:     r.Table.Columns,
		MoleculeIDs: r.Table.MoleculeIDs,
		Rows:        r.Table.NullableRows(),
		NaNColumns:  r.Table.NaNColumns(),
		Failures:    r.Table.BatchFailures(),
		DurationMs:  r.Duration.Milliseconds(),
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	if resp.MoleculeIDs == nil {
		resp.MoleculeIDs = []string{}
	}
	if r.Export != nil {
		resp.ExportURI = r.Export.URI
	}
	return resp
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records computations on m under the given source label
// ("http", "worker", "cli").
func WithMetrics(m *monitoring.RACMetrics, source string) Option {
	return func(s *Service) {
		s.metrics = m
		if source != "" {
			s.source = source
		}
	}
}

// WithTableStore enables batch export.
func WithTableStore(ts TableStore) Option {
	return func(s *Service) { s.tables = ts }
}

// WithMoleculeLoader enables ComputeFromGraphStore.
func WithMoleculeLoader(l MoleculeLoader) Option {
	return func(s *Service) { s.loader = l }
}

// WithElementSource replaces the built-in periodic table.
func WithElementSource(src periodic.Source) Option {
	return func(s *Service) { s.elements = src }
}

// WithProgress reports batch progress.
func WithProgress(fn rac.ProgressFunc) Option {
	return func(s *Service) { s.progress = fn }
}

// WithMaxBatchSize caps batch size; n <= 0 keeps the default.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// Service computes descriptors. It is safe for concurrent use.
type Service struct {
	computer *rac.Computer
	elements periodic.Source
	tables   TableStore
	loader   MoleculeLoader
	metrics  *monitoring.RACMetrics
	logger   logging.Logger
	progress rac.ProgressFunc
	source   string
	maxBatch int
}

// NewService builds the base computer from cfg.
func NewService(cfg rac.Config, opts ...Option) (*Service, error) {
	s := &Service{
		logger:   logging.Default(),
		source:   "api",
		maxBatch: DefaultMaxBatchSize,
	}
	for _, o := range opts {
		o(s)
	}
	c, err := s.newComputer(cfg)
	if err != nil {
		return nil, err
	}
	s.computer = c
	s.elements = c.Source()
	return s, nil
}

func (s *Service) newComputer(cfg rac.Config) (*rac.Computer, error) {
	opts := []rac.Option{rac.WithLogger(s.logger), rac.WithSource(s.elements)}
	if s.progress != nil {
		opts = append(opts, rac.WithProgress(s.progress))
	}
	return rac.NewComputer(cfg, opts...)
}

// Config returns the base engine configuration.
func (s *Service) Config() rac.Config { return s.computer.Config() }

// computerFor applies per-request overrides. The base computer is reused
// when nothing changes.
func (s *Service) computerFor(o dto.Options, skipFailures bool) (*rac.Computer, error) {
	if o.IsZero() && (!skipFailures || s.computer.Config().FailurePolicy == rac.SkipAndReport) {
		return s.computer, nil
	}
	cfg := s.computer.Config()
	if o.Depth != nil {
		cfg.Depth = *o.Depth
	}
	if len(o.Properties) > 0 {
		cfg.Properties = o.Properties
	}
	if len(o.AtomStats) > 0 {
		stats, err := rac.ParseStatistics(o.AtomStats)
		if err != nil {
			return nil, err
		}
		cfg.AtomStats = stats
	}
	if len(o.MolecularStats) > 0 {
		stats, err := rac.ParseStatistics(o.MolecularStats)
		if err != nil {
			return nil, err
		}
		cfg.MolecularStats = stats
	}
	if o.ElementLabelKey != "" {
		cfg.ElementLabelKey = o.ElementLabelKey
	}
	if skipFailures {
		cfg.FailurePolicy = rac.SkipAndReport
	}
	return s.newComputer(cfg)
}

// Compute returns the descriptor vector of one molecule.
func (s *Service) Compute(ctx context.Context, req dto.ComputeRequest) (*dto.ComputeResponse, error) {
	start := time.Now()
	resp, err := s.compute(ctx, req)
	s.metrics.RecordMolecule(s.source, failureCode(err), time.Since(start))
	if err != nil {
		s.logger.Debug("descriptor computation failed",
			logging.String("molecule_id", req.Molecule.ID),
			logging.Err(err))
		return nil, err
	}
	resp.DurationMs = time.Since(start).Milliseconds()
	return resp, nil
}

func (s *Service) compute(ctx context.Context, req dto.ComputeRequest) (*dto.ComputeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeComputationAborted, "computation cancelled")
	}
	c, err := s.computerFor(req.Options, false)
	if err != nil {
		return nil, err
	}
	g, err := molecule.FromDocument(req.Molecule, c.Config().ElementLabelKey)
	if err != nil {
		return nil, err
	}
	vec, err := c.MoleculeAutocorrelation(g)
	if err != nil {
		return nil, err
	}
	return &dto.ComputeResponse{
		MoleculeID: req.Molecule.ID,
		Labels:     vec.Labels,
		Values:     dto.NullableFloats(vec.Values),
	}, nil
}

// ComputeBatch computes a descriptor table over req.Molecules and, when
// req.Export is set, uploads it to the object store.
func (s *Service) ComputeBatch(ctx context.Context, req dto.BatchRequest) (*BatchResult, error) {
	if err := s.checkBatchSize(len(req.Molecules)); err != nil {
		return nil, err
	}
	start := time.Now()
	c, err := s.computerFor(req.Options, req.SkipFailures)
	if err != nil {
		return nil, err
	}
	labelKey := c.Config().ElementLabelKey
	docs := req.Molecules

	table, err := s.runBatch(ctx, c, len(docs),
		func(i int) (*molecule.Graph, error) { return molecule.FromDocument(docs[i], labelKey) },
		func(i int) string { return docID(docs[i].ID, i) })
	return s.finishBatch(ctx, table, err, req.Export, req.ExportFormat, start)
}

// ComputeFromGraphStore loads ids from the graph database and computes their
// descriptor table. Load failures follow the same policy as computation
// failures.
func (s *Service) ComputeFromGraphStore(ctx context.Context, ids []string, opts dto.Options, skipFailures bool) (*BatchResult, error) {
	if s.loader == nil {
		return nil, apperrors.New(apperrors.ErrCodeServiceUnavailable, "graph store is not configured")
	}
	if err := s.checkBatchSize(len(ids)); err != nil {
		return nil, err
	}
	start := time.Now()
	c, err := s.computerFor(opts, skipFailures)
	if err != nil {
		return nil, err
	}

	table, err := s.runBatch(ctx, c, len(ids),
		func(i int) (*molecule.Graph, error) {
			g, err := s.loader.Load(ctx, ids[i])
			s.metrics.RecordGraphLoad(err)
			return g, err
		},
		func(i int) string { return ids[i] })
	return s.finishBatch(ctx, table, err, false, "", start)
}

func (s *Service) checkBatchSize(n int) error {
	if n == 0 {
		return apperrors.New(apperrors.ErrCodeEmptyBatch, "batch contains no molecules")
	}
	if n > s.maxBatch {
		return apperrors.Newf(apperrors.ErrCodeValidation, "batch of %d molecules exceeds limit %d", n, s.maxBatch)
	}
	return nil
}

// runBatch builds n graphs with load and computes them with c. Graphs that
// fail to build count as failing molecules at their input index.
func (s *Service) runBatch(ctx context.Context, c *rac.Computer, n int, load func(int) (*molecule.Graph, error), idOf func(int) string) (*rac.Table, error) {
	failFast := c.Config().FailurePolicy == rac.FailFast

	var (
		graphs   []*molecule.Graph
		orig     []int
		failures []rac.Failure
	)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeComputationAborted, "descriptor batch interrupted")
		}
		g, err := load(i)
		if err != nil {
			if failFast {
				return nil, &rac.MoleculeError{Index: i, MoleculeID: idOf(i), Err: err}
			}
			failures = append(failures, rac.Failure{Index: i, MoleculeID: idOf(i), Err: err})
			continue
		}
		if g.ID == "" {
			g.ID = strconv.Itoa(i)
		}
		graphs = append(graphs, g)
		orig = append(orig, i)
	}

	table, err := c.ComputeDescriptors(ctx, graphs)
	if err != nil {
		var me *rac.MoleculeError
		if errors.As(err, &me) {
			me.Index = orig[me.Index]
		}
		return nil, err
	}
	for _, f := range table.Failures {
		f.Index = orig[f.Index]
		failures = append(failures, f)
	}
	sort.SliceStable(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
	table.Failures = failures
	return table, nil
}

func (s *Service) finishBatch(ctx context.Context, table *rac.Table, err error, export bool, format string, start time.Time) (*BatchResult, error) {
	if err != nil {
		s.metrics.RecordMolecule(s.source, failureCode(err), time.Since(start))
		s.logger.Warn("descriptor batch failed", logging.Err(err))
		return nil, err
	}

	res := &BatchResult{BatchID: uuid.NewString(), Table: table}
	if export {
		if format == "" {
			format = minio.FormatCSV
		}
		if res.Export, err = s.export(ctx, res.BatchID, table, format); err != nil {
			return nil, err
		}
	}
	res.Duration = time.Since(start)

	codes := make([]string, len(table.Failures))
	for i, f := range table.Failures {
		codes[i] = string(apperrors.GetCode(f.Err))
	}
	s.metrics.RecordBatch(s.source, table.NumRows(), len(table.NaNColumns()), len(table.Columns), codes, res.Duration)
	s.logger.Info("descriptor batch computed",
		logging.String("batch_id", res.BatchID),
		logging.Int("molecules", table.NumRows()),
		logging.Int("failures", len(table.Failures)),
		logging.Int("columns", len(table.Columns)),
		logging.Duration("duration", res.Duration))
	return res, nil
}

func (s *Service) export(ctx context.Context, batchID string, table *rac.Table, format string) (*minio.ExportResult, error) {
	if s.tables == nil {
		return nil, apperrors.New(apperrors.ErrCodeServiceUnavailable, "export requested but no object store is configured")
	}
	res, err := s.tables.PutTable(ctx, batchID, table, format)
	s.metrics.RecordExport(format, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Properties lists every property name the base computer resolves.
func (s *Service) Properties() []dto.PropertyInfo {
	resolver := s.computer.Resolver()
	names := resolver.ValidNames()
	out := make([]dto.PropertyInfo, 0, len(names))
	for _, name := range names {
		if p, err := rac.ParseProperty(name); err == nil {
			src := SourcePeriodicTable
			if p.Structural() {
				src = SourceGraph
			}
			out = append(out, dto.PropertyInfo{Name: name, Label: p.Label(), Source: src})
			continue
		}
		out = append(out, dto.PropertyInfo{Name: name, Label: name, Source: SourceNodeAttribute})
	}
	return out
}

// Element returns the element data for symbol.
func (s *Service) Element(symbol string) (*periodic.Element, error) {
	return s.elements.Lookup(symbol)
}

func docID(id string, index int) string {
	if id != "" {
		return id
	}
	return strconv.Itoa(index)
}

func failureCode(err error) string {
	if err == nil {
		return ""
	}
	return string(apperrors.GetCode(err))
}
