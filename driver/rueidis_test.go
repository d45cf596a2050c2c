package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRueidisConn_Do(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "post_idx", "@status:{open}", "LIMIT", "0", "10")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("post:1"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("Hello")),
		)))

	res, err := WrapRueidis(c).Do(context.Background(), "FT.SEARCH", "post_idx", "@status:{open}", "LIMIT", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "post:1", []any{"title", "Hello"}}, res)
}

func TestRueidisConn_DoMapsServerErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "gone_idx", "*")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	_, err := WrapRueidis(c).Do(context.Background(), "FT.SEARCH", "gone_idx", "*")
	require.ErrorIs(t, err, ErrIndexNotFound)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, OpSearch, de.Op)
}

func TestRueidisConn_DoRejectsEmptyCommand(t *testing.T) {
	_, err := WrapRueidis(nil).Do(context.Background())
	assert.EqualError(t, err, "driver: empty command")
}

func TestRueidisConn_Pipeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.ErrorResult(context.DeadlineExceeded),
		})

	out, err := WrapRueidis(c).Pipeline(context.Background(), [][]interface{}{
		{"HSET", "post:1", "id", 1, "title", "a"},
		{"HSET", "post:2", "id", 2, "title", "b"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0])

	failed, ok := out[1].(error)
	require.True(t, ok)
	assert.ErrorIs(t, failed, context.DeadlineExceeded)
	assert.EqualError(t, failed, "HSET: context deadline exceeded")
}

func TestRueidisConn_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	err := WrapRueidis(c).Ping(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
