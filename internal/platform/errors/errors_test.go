package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus_Mapping(t *testing.T) {
	cases := map[ErrorType]int{
		TypeValidation:   http.StatusBadRequest,
		TypeUnauthorized: http.StatusUnauthorized,
		TypeForbidden:    http.StatusForbidden,
		TypeNotFound:     http.StatusNotFound,
		TypeConflict:     http.StatusConflict,
		TypeInternal:     http.StatusInternalServerError,
		TypeExternal:     http.StatusBadGateway,
	}
	for typ, status := range cases {
		err := &Error{Type: typ, Message: "msg"}
		assert.Equal(t, status, err.HTTPStatus(), "type %s", typ)
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := InternalError("wrapper", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestWithField_ChainsContext(t *testing.T) {
	err := ValidationError("bad input").WithField("field", "amount").WithField("value", -1)
	assert.Equal(t, "amount", err.Context["field"])
	assert.Equal(t, -1, err.Context["value"])
}

func TestAsStructuredError_PassesThrough(t *testing.T) {
	original := NotFoundError("missing")
	got := AsStructuredError(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, got)
}

func TestAsStructuredError_WrapsPlainErrors(t *testing.T) {
	got := AsStructuredError(errors.New("plain"))
	require.NotNil(t, got)
	assert.Equal(t, TypeInternal, got.Type)
}

func TestAsStructuredError_Nil(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))
}

func TestToResponse(t *testing.T) {
	err := ConflictError("already exists").WithField("id", "abc")
	resp := err.ToResponse()
	assert.Equal(t, "already exists", resp.Error)
	assert.Equal(t, TypeConflict, resp.Type)
	assert.Equal(t, "abc", resp.Context["id"])
}
