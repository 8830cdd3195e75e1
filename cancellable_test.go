package vfs

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"gotest.tools/v3/assert"
)

var randomBytes = func() []byte {
	b := make([]byte, 64*1024)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}()

func TestCancellable(t *testing.T) {
	buf := make([]byte, 1024)
	t.Run("read all", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancellable := NewCancellable(ctx, bytes.NewReader(randomBytes))
		bin, err := io.ReadAll(cancellable)
		assert.NilError(t, err)
		assert.Assert(t, bytes.Equal(randomBytes, bin))
		cancel()
		// first error encountered is remembered.
		n, err := cancellable.Read(buf)
		assert.Equal(t, n, 0)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancellable := NewCancellable(ctx, bytes.NewReader(randomBytes))
		_, err := cancellable.Read(buf)
		assert.NilError(t, err)
		cancel()
		for range 5 {
			_, err = cancellable.Read(buf)
			assert.ErrorIs(t, err, context.Canceled)
			assert.ErrorIs(t, err, ErrCanceled)
		}
	})
}

func TestCopyContext(t *testing.T) {
	var dst bytes.Buffer
	n, err := CopyContext(context.Background(), &dst, bytes.NewReader(randomBytes))
	assert.NilError(t, err)
	assert.Equal(t, n, int64(len(randomBytes)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dst.Reset()
	_, err = CopyContext(ctx, &dst, bytes.NewReader(randomBytes))
	assert.Assert(t, errors.Is(err, ErrCanceled))
	assert.Equal(t, dst.Len(), 0)
}
