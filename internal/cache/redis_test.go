package cache

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// answerHook answers commands in process instead of sending them to a server.
type answerHook struct {
	answer func(cmd redis.Cmder) error
	seen   [][]interface{}
}

func (h *answerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("no server in tests")
	}
}

func (h *answerHook) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.seen = append(h.seen, cmd.Args())
		err := h.answer(cmd)
		if err != nil {
			cmd.SetErr(err)
		}
		return err
	}
}

func (h *answerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newAnsweredRedis(t *testing.T, answer func(cmd redis.Cmder) error) (*Redis, *answerHook) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	hook := &answerHook{answer: answer}
	client.AddHook(hook)
	return NewRedis(client, "factorylink:", zap.NewNop()), hook
}

func TestRedisGetMissMapsToErrMiss(t *testing.T) {
	r, hook := newAnsweredRedis(t, func(redis.Cmder) error { return redis.Nil })
	_, err := r.Get(context.Background(), "revoked:abc")
	assert.ErrorIs(t, err, ErrMiss)
	require.Len(t, hook.seen, 1)
	assert.Equal(t, []interface{}{"get", "factorylink:revoked:abc"}, hook.seen[0])
}

func TestRedisGetReturnsValue(t *testing.T) {
	r, _ := newAnsweredRedis(t, func(cmd redis.Cmder) error {
		cmd.(*redis.StringCmd).SetVal("1")
		return nil
	})
	value, err := r.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)
}

func TestRedisGetWrapsOtherErrors(t *testing.T) {
	down := errors.New("connection refused")
	r, _ := newAnsweredRedis(t, func(redis.Cmder) error { return down })
	_, err := r.Get(context.Background(), "k")
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestRedisSetAndDeletePrefixKeys(t *testing.T) {
	r, hook := newAnsweredRedis(t, func(redis.Cmder) error { return nil })
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, "k", []byte("v"), -time.Second))
	require.NoError(t, r.Delete(ctx, "a", "b"))
	require.NoError(t, r.Delete(ctx))

	require.Len(t, hook.seen, 2)
	assert.Equal(t, "factorylink:k", hook.seen[0][1])
	assert.Equal(t, []interface{}{"del", "factorylink:a", "factorylink:b"}, hook.seen[1])
}
