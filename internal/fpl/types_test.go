package fpl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legalSquad builds a pool and squad in the legal 2-5-5-3 shape, spread
// across enough clubs to stay under the per-club limit.
func legalSquad() (*Squad, map[int]*Player) {
	shape := []Position{
		PositionGK, PositionGK,
		PositionDEF, PositionDEF, PositionDEF, PositionDEF, PositionDEF,
		PositionMID, PositionMID, PositionMID, PositionMID, PositionMID,
		PositionFWD, PositionFWD, PositionFWD,
	}

	pool := make(map[int]*Player, len(shape))
	ids := make([]int, 0, len(shape))
	for i, pos := range shape {
		id := i + 1
		pool[id] = &Player{ID: id, Position: pos, TeamID: i/3 + 1}
		ids = append(ids, id)
	}
	return &Squad{TeamID: 7, PlayerIDs: ids}, pool
}

func TestValidateComposition(t *testing.T) {
	squad, pool := legalSquad()
	assert.NoError(t, squad.ValidateComposition(pool))
}

func TestValidateCompositionWrongPositionCount(t *testing.T) {
	squad, pool := legalSquad()
	// A third goalkeeper at a defender's expense.
	pool[3].Position = PositionGK

	err := squad.ValidateComposition(pool)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConstraintViolation))
}

func TestValidateCompositionClubLimit(t *testing.T) {
	squad, pool := legalSquad()
	// Four players from club 1.
	pool[4].TeamID = 1

	err := squad.ValidateComposition(pool)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConstraintViolation))
}

func TestValidateCompositionMissingFromPool(t *testing.T) {
	squad, pool := legalSquad()
	delete(pool, 15)

	err := squad.ValidateComposition(pool)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConstraintViolation))
}
