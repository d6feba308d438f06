package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "invalid option").WithDetail("extraction.strategy")
	assert.Equal(t, "[COMMON_004] invalid option: extraction.strategy", err.Error())

	wrapped := Wrap(fmt.Errorf("boom"), ErrCodeIO, "read failed")
	assert.Equal(t, "[COMMON_002] read failed: boom", wrapped.Error())
}

func TestAppError_IsByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeInvalidMapping, "line 3"))
	assert.True(t, Is(err, New(ErrCodeInvalidMapping, "")))
	assert.False(t, Is(err, New(ErrCodeIO, "")))
	assert.Equal(t, ErrCodeInvalidMapping, CodeOf(err))
}

func TestHasCode_WalksChain(t *testing.T) {
	inner := New(ErrCodeInvalidRelation, "unknown relation ?")
	outer := Wrap(inner, ErrCodeInvalidMapping, "line 1")
	assert.True(t, HasCode(outer, ErrCodeInvalidRelation))
	assert.True(t, HasCode(outer, ErrCodeInvalidMapping))
	assert.False(t, HasCode(outer, ErrCodeIO))
	assert.False(t, HasCode(nil, ErrCodeIO))
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeIO, "x"))
	assert.Equal(t, ErrCodeInternal, CodeOf(fmt.Errorf("plain")))
}
