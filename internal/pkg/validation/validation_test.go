package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

type sample struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Outcome string `json:"outcome" validate:"required,oneof=a b"`
}

func TestStruct(t *testing.T) {
	v := New()
	require.NoError(t, v.Struct(sample{Rating: 3, Outcome: "a"}))

	err := v.Struct(sample{Rating: 0, Outcome: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "rating must be at least 1")
	assert.Contains(t, err.Error(), "outcome must be one of [a b]")
}
