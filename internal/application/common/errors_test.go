package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapServiceError(t *testing.T) {
	assert.NoError(t, WrapServiceError(OpUpsertDocument, nil))

	cause := errors.New("connection reset")
	err := WrapServiceError(OpUpsertDocument+" d1", cause)

	assert.EqualError(t, err, "failed to upsert document d1: connection reset")
	assert.ErrorIs(t, err, cause)

	var serviceErr ServiceError
	assert.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "upsert document d1", serviceErr.Operation)
}
