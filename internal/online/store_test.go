package online

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCodeFromSkipsBiasedBytes(t *testing.T) {
	src := bytes.NewReader([]byte{
		252, 253, 254, 255, 0, 1, 2, 3,
		35, 36, 251, 71, 255, 255, 255, 255,
	})
	code, err := codeFrom(src)
	require.NoError(t, err)
	require.Equal(t, "ABCD9A99", code)

	_, err = codeFrom(bytes.NewReader([]byte{255, 255, 255, 255, 255, 255, 255, 255}))
	require.Error(t, err)
}

func TestCodeGenAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := codeGen()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, c := range code {
			require.Contains(t, codeLetters, string(c))
		}
	}
}

// failPublish rejects PUBLISH and passes every other command through.
type failPublish struct{}

func (failPublish) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failPublish) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "publish" {
			err := errors.New("publish unavailable")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (failPublish) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisUpdateLogsPublishFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	rdb.AddHook(failPublish{})

	core, logs := observer.New(zapcore.WarnLevel)
	s := NewRedisStore(rdb, time.Hour, zap.New(core))
	ctx := context.Background()

	ok, err := s.Create(ctx, &Game{Code: "PUBFAIL1"})
	require.NoError(t, err)
	require.True(t, ok)

	g, err := s.Update(ctx, "PUBFAIL1", func(g *Game) error {
		g.Round = 3
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, g.Round)

	entries := logs.FilterMessage("online_publish_failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "PUBFAIL1", entries[0].ContextMap()["code"])
}
