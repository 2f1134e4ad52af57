package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAddToContextAccumulatesFields(t *testing.T) {
	lc := NewLogContext()
	ctx := WithLogContext(context.Background(), lc)

	AddToContext(ctx, zap.String(FieldStore, "store1"))
	AddToContext(ctx, zap.String(FieldCategory, "configuration"), zap.Bool(FieldChanged, true))

	assert.Len(t, lc.Fields(), 3)
}

func TestAddToContextWithoutLogContextIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		AddToContext(context.Background(), zap.String(FieldStore, "store1"))
	})
	assert.Nil(t, GetLogContext(context.Background()))
}

func TestCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "cycle-1")

	assert.Equal(t, "cycle-1", GetCorrelationID(ctx))
	assert.Empty(t, GetCorrelationID(context.Background()))
}
