package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/RAC-Descriptors/internal/application/descriptor"
	"github.com/turtacn/RAC-Descriptors/internal/domain/periodic"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	dto "github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

// DescriptorService is the application surface served over HTTP.
// *descriptor.Service implements it.
type DescriptorService interface {
	Compute(ctx context.Context, req dto.ComputeRequest) (*dto.ComputeResponse, error)
	ComputeBatch(ctx context.Context, req dto.BatchRequest) (*descriptor.BatchResult, error)
	ComputeFromGraphStore(ctx context.Context, ids []string, opts dto.Options, skipFailures bool) (*descriptor.BatchResult, error)
	Properties() []dto.PropertyInfo
	Element(symbol string) (*periodic.Element, error)
}

// Batch output formats selected with ?format=.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Response headers set on CSV batch responses.
const (
	HeaderBatchID  = "X-Batch-ID"
	HeaderFailures = "X-Failed-Molecules"
)

// DescriptorHandler serves the descriptor endpoints.
type DescriptorHandler struct {
	svc    DescriptorService
	logger logging.Logger
}

// NewDescriptorHandler creates a DescriptorHandler.
func NewDescriptorHandler(svc DescriptorService, logger logging.Logger) *DescriptorHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DescriptorHandler{svc: svc, logger: logger}
}

// Compute handles POST /api/v1/descriptors.
func (h *DescriptorHandler) Compute(c *gin.Context) {
	var req dto.ComputeRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Compute(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ComputeBatch handles POST /api/v1/descriptors/batch. ?format=csv returns
// the table as CSV instead of JSON.
func (h *DescriptorHandler) ComputeBatch(c *gin.Context) {
	format, ok := batchFormat(c)
	if !ok {
		return
	}
	var req dto.BatchRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.ComputeBatch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.writeBatch(c, res, format)
}

// ComputeFromGraphStore handles POST /api/v1/descriptors/graph.
func (h *DescriptorHandler) ComputeFromGraphStore(c *gin.Context) {
	format, ok := batchFormat(c)
	if !ok {
		return
	}
	var req dto.GraphStoreRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.ComputeFromGraphStore(c.Request.Context(), req.IDs, req.Options, req.SkipFailures)
	if err != nil {
		writeError(c, err)
		return
	}
	h.writeBatch(c, res, format)
}

func (h *DescriptorHandler) writeBatch(c *gin.Context, res *descriptor.BatchResult, format string) {
	if format == FormatJSON {
		c.JSON(http.StatusOK, res.Response())
		return
	}
	c.Header(HeaderBatchID, res.BatchID)
	c.Header(HeaderFailures, strconv.Itoa(len(res.Table.Failures)))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := res.Table.WriteCSV(c.Writer); err != nil {
		// headers are gone; the truncated body is all the client gets
		h.logger.Error("failed to stream descriptor table",
			logging.String("batch_id", res.BatchID),
			logging.Err(err))
	}
}

func batchFormat(c *gin.Context) (string, bool) {
	switch f := c.DefaultQuery("format", FormatJSON); f {
	case FormatJSON, FormatCSV:
		return f, true
	default:
		writeError(c, apperrors.Newf(apperrors.ErrCodeValidation, "unsupported format %q, want json or csv", f))
		return "", false
	}
}

// ListProperties handles GET /api/v1/properties.
func (h *DescriptorHandler) ListProperties(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"properties": h.svc.Properties()})
}

// GetElement handles GET /api/v1/elements/:symbol.
func (h *DescriptorHandler) GetElement(c *gin.Context) {
	el, err := h.svc.Element(c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newElementResponse(el))
}

func newElementResponse(el *periodic.Element) dto.ElementInfo {
	v := dto.NullableFloats([]float64{el.AtomicMass, el.Electronegativity, el.ElectronAffinity, el.IonizationEnergy, el.AtomicRadius})
	return dto.ElementInfo{
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
	}
}
