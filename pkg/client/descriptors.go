package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	dto "github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

// DescriptorsClient covers the /api/v1 descriptor endpoints.
type DescriptorsClient struct {
	client *Client
}

// CSVTable is a batch table rendered by the server as CSV.
type CSVTable struct {
	BatchID  string
	Failures int
	Data     []byte
}

// Health is the liveness payload of /healthz.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Compute computes the descriptor vector of one molecule.
func (d *DescriptorsClient) Compute(ctx context.Context, req dto.ComputeRequest) (*dto.ComputeResponse, error) {
	if req.Molecule.SMILES == "" && len(req.Molecule.Nodes) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "molecule needs smiles or nodes")
	}
	var resp dto.ComputeResponse
	if err := d.client.do(ctx, http.MethodPost, "/api/v1/descriptors", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ComputeBatch computes a descriptor table for a set of molecules.
func (d *DescriptorsClient) ComputeBatch(ctx context.Context, req dto.BatchRequest) (*dto.BatchResponse, error) {
	if len(req.Molecules) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "at least one molecule is required")
	}
	var resp dto.BatchResponse
	if err := d.client.do(ctx, http.MethodPost, "/api/v1/descriptors/batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ComputeBatchCSV is ComputeBatch with the table returned as CSV.
func (d *DescriptorsClient) ComputeBatchCSV(ctx context.Context, req dto.BatchRequest) (*CSVTable, error) {
	if len(req.Molecules) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "at least one molecule is required")
	}
	return d.csv(ctx, "/api/v1/descriptors/batch", req)
}

// ComputeFromGraphStore computes a table for molecules stored in the graph
// database by ID.
func (d *DescriptorsClient) ComputeFromGraphStore(ctx context.Context, req dto.GraphStoreRequest) (*dto.BatchResponse, error) {
	if len(req.IDs) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "at least one molecule id is required")
	}
	var resp dto.BatchResponse
	if err := d.client.do(ctx, http.MethodPost, "/api/v1/descriptors/graph", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (d *DescriptorsClient) csv(ctx context.Context, path string, body interface{}) (*CSVTable, error) {
	q := url.Values{"format": {"csv"}}
	raw, header, err := d.client.doRaw(ctx, http.MethodPost, path+"?"+q.Encode(), body, "text/csv")
	if err != nil {
		return nil, err
	}
	failures, _ := strconv.Atoi(header.Get("X-Failed-Molecules"))
	return &CSVTable{
		BatchID:  header.Get("X-Batch-ID"),
		Failures: failures,
		Data:     raw,
	}, nil
}

// Properties lists the atomic properties the server can use.
func (d *DescriptorsClient) Properties(ctx context.Context) ([]dto.PropertyInfo, error) {
	var resp struct {
		Properties []dto.PropertyInfo `json:"properties"`
	}
	if err := d.client.do(ctx, http.MethodGet, "/api/v1/properties", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Properties, nil
}

// Element returns the periodic-table entry for symbol.
func (d *DescriptorsClient) Element(ctx context.Context, symbol string) (*dto.ElementInfo, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "element symbol is required")
	}
	var el dto.ElementInfo
	if err := d.client.do(ctx, http.MethodGet, "/api/v1/elements/"+url.PathEscape(symbol), nil, &el); err != nil {
		return nil, err
	}
	return &el, nil
}

// Health calls the liveness endpoint.
func (d *DescriptorsClient) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := d.client.do(ctx, http.MethodGet, "/healthz", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
