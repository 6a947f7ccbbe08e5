package sender

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

var errTransient = errors.New("transient")

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	d := NewDispatcher(Options{
		Workers:      1,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Retryable:    func(err error) bool { return errors.Is(err, errTransient) },
	})

	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return errTransient
		}
		return nil
	}))
	d.Close()

	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, d.Failures())
}

func TestDispatcherCountsPermanentFailure(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "", func() error {
		calls.Add(1)
		return errors.New("bad request")
	}))
	d.Close()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.Failures())
}

func TestDispatcherQueueLimits(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})

	require.NoError(t, d.Enqueue(context.Background(), "a", "", func() error {
		close(started)
		<-block
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "b", "", func() error { return nil }))
	assert.ErrorIs(t, d.Enqueue(context.Background(), "c", "", func() error { return nil }), ErrQueueFull)

	close(block)
	d.Close()
	assert.ErrorIs(t, d.Enqueue(context.Background(), "d", "", func() error { return nil }), ErrQueueClosed)
	d.Close()
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("wrap: %w", &tele.Error{Code: 403, Description: "forbidden"}), "http_4xx"},
		{&tele.Error{Code: 502}, "http_5xx"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err))
	}
}

func TestRedact(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:AA-bb_cc/sendMessage": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, Redact(err))
	assert.Empty(t, Redact(nil))
}
