package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	assert.Equal(t, ErrNotFound, Code(NotFound("patient")))
	assert.Equal(t, ErrConflict, Code(Conflict("appointment")))

	// Codes survive wrapping.
	wrapped := fmt.Errorf("loading record: %w", NotFound("doctor"))
	assert.Equal(t, ErrNotFound, Code(wrapped))

	assert.Equal(t, ErrInternal, Code(errors.New("boom")))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestValidationErrors(t *testing.T) {
	v := ValidationErrors{}
	assert.True(t, v.Empty())

	v.Add("appointment_date", "the appointment date cannot be in the past")
	v.Add("doctor_conflict", "the doctor already has an appointment within 30 minutes of this time")
	assert.False(t, v.Empty())

	// Fields render sorted so the message is stable.
	assert.Equal(t,
		"validation failed: appointment_date: the appointment date cannot be in the past; "+
			"doctor_conflict: the doctor already has an appointment within 30 minutes of this time",
		v.Error())
}

func TestAsValidation(t *testing.T) {
	v := ValidationErrors{"document_number": "a patient with this document already exists"}

	got, ok := AsValidation(fmt.Errorf("creating patient: %w", v))
	require.True(t, ok)
	assert.Equal(t, v, got)

	_, ok = AsValidation(NotFound("patient"))
	assert.False(t, ok)
}
