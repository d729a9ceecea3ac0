package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridwalk/core/grid"
)

func TestResultAccessors(t *testing.T) {
	res := NewResult("greedy", 4)
	res.Append(grid.Cell{Row: 0, Col: 0}, 0)
	res.Append(grid.Cell{Row: 1, Col: 1}, 8)
	res.Append(grid.Cell{Row: 0, Col: 0}, 2)

	assert.Equal(t, grid.Reward(10), res.Score())
	assert.Equal(t, 3, res.Len())
	assert.True(t, res.Truncated())
	assert.Equal(t, []grid.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 0, Col: 0}}, res.Path())

	at := res.StepsAt(grid.Cell{Row: 0, Col: 0})
	require.Len(t, at, 2)
	assert.Equal(t, 1, at[0].Index)
	assert.Equal(t, 3, at[1].Index)
	assert.Empty(t, res.StepsAt(grid.Cell{Row: 2, Col: 2}))
}

func TestRequestValidate(t *testing.T) {
	g := grid.New(3)
	assert.NoError(t, Request{Start: grid.Cell{Row: 2, Col: 2}, StepBudget: 3, RecoveryRate: 1}.Validate(g))

	bad := []Request{
		{Start: grid.Cell{Row: 3, Col: 0}, StepBudget: 1},
		{Start: grid.Cell{Row: 0, Col: -1}, StepBudget: 1},
		{Start: grid.Cell{Row: 0, Col: 0}, StepBudget: -1},
		{Start: grid.Cell{Row: 0, Col: 0}, StepBudget: 1, RecoveryRate: -2},
	}
	for _, r := range bad {
		assert.ErrorIs(t, r.Validate(g), ErrInvalidInput, "%+v", r)
	}
	assert.ErrorIs(t, Request{}.Validate(nil), ErrInvalidInput)
}
