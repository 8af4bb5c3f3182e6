package molecule

import (
	"errors"
	"fmt"

	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// Sentinels for errors.Is.
var (
	ErrMissingLabel     = errors.New("missing element label")
	ErrEmptyGraph       = errors.New("molecular graph has no atoms")
	ErrInvalidGraph     = errors.New("invalid molecular graph")
	ErrCanonicalization = errors.New("graph canonicalization postcondition violated")
	ErrInvalidSMILES    = errors.New("invalid SMILES")
	ErrInvalidDocument  = errors.New("invalid molecule document")
)

// MissingLabelError reports a node without the element-label attribute.
type MissingLabelError struct {
	LabelKey string
	Node     NodeKey
}

func (e *MissingLabelError) Error() string {
	return fmt.Sprintf("Could not find node labels in graph specifying the atom type. Expected label: %s", e.LabelKey)
}

// Is matches ErrMissingLabel.
func (e *MissingLabelError) Is(target error) bool { return target == ErrMissingLabel }

// ErrorCode implements apperrors.Coder.
func (e *MissingLabelError) ErrorCode() apperrors.ErrorCode { return apperrors.ErrCodeMissingNodeLabel }

// SMILESError reports a SMILES string that cannot be read.
type SMILESError struct {
	SMILES   string
	Position int
	Reason   string
}

func (e *SMILESError) Error() string {
	return fmt.Sprintf("invalid SMILES %q at position %d: %s", e.SMILES, e.Position, e.Reason)
}

// Is matches ErrInvalidSMILES.
func (e *SMILESError) Is(target error) bool { return target == ErrInvalidSMILES }

// ErrorCode implements apperrors.Coder.
func (e *SMILESError) ErrorCode() apperrors.ErrorCode { return apperrors.ErrCodeMoleculeInvalidSMILES }

// codedError attaches an error code to a sentinel-wrapping error.
type codedError struct {
	err  error
	code apperrors.ErrorCode
}

func (e *codedError) Error() string                  { return e.err.Error() }
func (e *codedError) Unwrap() error                  { return e.err }
func (e *codedError) ErrorCode() apperrors.ErrorCode { return e.code }

func graphError(sentinel error, format string, args ...interface{}) error {
	code := apperrors.ErrCodeInvalidGraph
	switch sentinel {
	case ErrCanonicalization:
		code = apperrors.ErrCodeCanonicalization
	case ErrInvalidDocument:
		code = apperrors.ErrCodeMoleculeInvalidFormat
	}
	if format == "" {
		return &codedError{err: sentinel, code: code}
	}
	return &codedError{err: fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...), code: code}
}
