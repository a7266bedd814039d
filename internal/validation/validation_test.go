package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
)

type address struct {
	City string `json:"city" validate:"required"`
}

type sample struct {
	Name    string  `json:"fullName" validate:"required"`
	Rating  float64 `json:"rating" validate:"gte=0,lte=5"`
	Gender  string  `json:"gender" validate:"omitempty,oneof=male female"`
	Address address `json:"address"`
}

func TestStructValid(t *testing.T) {
	err := Struct(sample{Name: "Ali", Rating: 4.5, Gender: "male", Address: address{City: "Toshkent"}})
	assert.NoError(t, err)
}

func TestStructReportsWireNames(t *testing.T) {
	err := Struct(sample{Rating: 7, Gender: "other"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrValidationFailed)

	var verr *apiclient.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []apiclient.FieldError{
		{Field: "fullName", Rule: "required"},
		{Field: "rating", Rule: "lte=5"},
		{Field: "gender", Rule: "oneof=male female"},
		{Field: "address.city", Rule: "required"},
	}, verr.Fields)
}

func TestStructMergesExtraFailures(t *testing.T) {
	extra := apiclient.FieldError{Field: "workTime", Rule: "start_before_end"}

	err := Struct(sample{Name: "Ali", Address: address{City: "x"}}, extra)
	var verr *apiclient.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []apiclient.FieldError{extra}, verr.Fields)

	err = Struct(sample{Address: address{City: "x"}}, extra)
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Equal(t, "fullName", verr.Fields[0].Field)
}
