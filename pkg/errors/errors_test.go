package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"invalid depth", errors.ErrCodeInvalidDepth, "depth must be >= 0"},
		{"invalid param", errors.CodeInvalidParam, "SMILES must not be empty"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.Contains(t, ae.Stack, "errors_test.go")
		})
	}
}

func TestNewf(t *testing.T) {
	ae := errors.Newf(errors.ErrCodeInvalidDepth, "depth %d out of range", -1)
	assert.Equal(t, "depth -1 out of range", ae.Message)
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	wrapped := errors.Wrap(root, errors.CodeStorageError, "put table")

	require.NotNil(t, wrapped)
	assert.True(t, stderrors.Is(wrapped, root))
	assert.Equal(t, errors.CodeStorageError, wrapped.Code)
}

func TestWrap_UnknownCodeKeepsOriginal(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeUnknownElement, "unknown element Xx")
	outer := errors.Wrap(inner, errors.CodeUnknown, "resolve property")

	assert.Equal(t, errors.ErrCodeUnknownElement, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Error() formatting
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeInvalidProperty, "invalid property")
	assert.Equal(t, "[RAC_002] invalid property", ae.Error())

	withDetail := ae.WithDetail("foo")
	assert.Equal(t, "[RAC_002] invalid property: foo", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestWithDetail_NilReceiver(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

func TestWithCause(t *testing.T) {
	cause := stderrors.New("boom")
	ae := errors.Internal("failed").WithCause(cause)
	assert.ErrorIs(t, ae, cause)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

type codedErr struct{ code errors.ErrorCode }

func (e *codedErr) Error() string               { return "coded" }
func (e *codedErr) ErrorCode() errors.ErrorCode { return e.code }

func TestIsCode(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeMissingNodeLabel, "missing label")
	wrapped := fmt.Errorf("canonicalize: %w", ae)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeMissingNodeLabel))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeInvalidProperty))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInvalidProperty))

	typed := fmt.Errorf("resolve: %w", &codedErr{code: errors.ErrCodeUnknownElement})
	assert.True(t, errors.IsCode(typed, errors.ErrCodeUnknownElement))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeInvalidStatistic,
		errors.GetCode(fmt.Errorf("x: %w", errors.New(errors.ErrCodeInvalidStatistic, "bad"))))
	assert.Equal(t, errors.ErrCodeUnknownElement,
		errors.GetCode(&codedErr{code: errors.ErrCodeUnknownElement}))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, errors.IsNotFound(errors.NotFound("nope")))
	assert.True(t, errors.IsNotFound(errors.New(errors.CodeMoleculeNotFound, "mol-1")))
	assert.False(t, errors.IsNotFound(errors.InvalidParam("bad")))
}

func TestValidationFactory(t *testing.T) {
	ae := errors.Validation("depth must be >= 0")
	assert.Equal(t, errors.ErrCodeValidation, ae.Code)
	assert.Equal(t, 422, errors.HTTPStatusForCode(ae.Code))
}
