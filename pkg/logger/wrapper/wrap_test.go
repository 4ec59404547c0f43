package wrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithLogCtx_MergesFields(t *testing.T) {
	ctx := WithLogCtx(context.Background(), LogCtx{Action: "a", RequestID: "r"})
	ctx = WithLogCtx(ctx, LogCtx{UserID: "u"})

	lc := FromContext(ctx)
	assert.Equal(t, LogCtx{Action: "a", UserID: "u", RequestID: "r"}, lc)
}

func TestError_KeepsSentinel(t *testing.T) {
	sentinel := errors.New("not found")
	ctx := WithAction(context.Background(), "get")

	err := Error(ctx, sentinel)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "not found", err.Error())

	again := Error(WithAction(ctx, "outer"), err)
	assert.ErrorIs(t, again, sentinel)
	assert.Equal(t, "outer", FromContext(ErrorCtx(context.Background(), again)).Action)
}

func TestError_Nil(t *testing.T) {
	assert.NoError(t, Error(context.Background(), nil))
}
