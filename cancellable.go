package vfs

import (
	"context"
	"fmt"
	"io"

	"github.com/ngicks/go-fsys-helper/vfs/internal/bufpool"
)

// Cancellable is an io.Reader which stops reading once ctx is done.
//
// The first error encountered, whether from ctx or from the underlying reader,
// is remembered and returned from every subsequent Read.
type Cancellable struct {
	ctx context.Context
	r   io.Reader
	err error
}

func NewCancellable(ctx context.Context, r io.Reader) *Cancellable {
	return &Cancellable{ctx: ctx, r: r}
}

func (c *Cancellable) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if err := c.ctx.Err(); err != nil {
		c.err = canceled(c.ctx)
		return 0, c.err
	}
	n, err := c.r.Read(p)
	if err != nil {
		c.err = err
	}
	return n, err
}

// canceled returns an error matching both ErrCanceled and the cause of ctx.
func canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCanceled, context.Cause(ctx))
}

// CopyContext is like [io.Copy] but stops between chunks once ctx is done.
func CopyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, canceled(ctx)
	}
	return bufpool.Copy(dst, NewCancellable(ctx, src))
}
