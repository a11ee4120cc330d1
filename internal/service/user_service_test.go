package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nevermore-backend/internal/entity"
)

func TestCheckPassword(t *testing.T) {
	assert.NoError(t, CheckPassword("Str0ngpass"))
	assert.NoError(t, CheckPassword("A1bcdefg"))

	assert.ErrorIs(t, CheckPassword("Sh0rt"), entity.ErrValidation)
	assert.ErrorIs(t, CheckPassword("alllower1"), entity.ErrValidation)
	assert.ErrorIs(t, CheckPassword("NoDigitsHere"), entity.ErrValidation)
}
