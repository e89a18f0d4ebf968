package elfhdr

import (
	"context"
	"io"

	"github.com/spf13/afero"
)

// Open opens path on fs for reading.
func Open(fs afero.Fs, path string) (afero.File, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return f, nil
}

// ParseFile opens path on fs, parses it and closes it again on every path.
func ParseFile(ctx context.Context, fs afero.Fs, path string, opts Options) (*File, error) {
	f, err := Open(fs, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewParser(opts).Parse(WithContext(ctx, f))
}

type ctxReadSeeker struct {
	ctx context.Context
	rs  io.ReadSeeker
}

// WithContext wraps rs so that Read and Seek fail with ctx.Err() once ctx
// is done.
func WithContext(ctx context.Context, rs io.ReadSeeker) io.ReadSeeker {
	return &ctxReadSeeker{ctx: ctx, rs: rs}
}

func (r *ctxReadSeeker) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.rs.Read(p)
}

func (r *ctxReadSeeker) Seek(offset int64, whence int) (int64, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.rs.Seek(offset, whence)
}
