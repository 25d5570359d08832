package las

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

const defaultChunkSize = 65536

type options struct {
	parallelism int
	chunkSize   int
}

// Option configures a Reader.
type Option func(*options)

// WithParallelism bounds the number of point chunks decoded at once.
// Values below one mean runtime.GOMAXPROCS(0).
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// WithChunkSize sets how many points each decode task covers.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// Reader reads a LAS file. Points are exposed once, in file order,
// through the stream returned by Points.
type Reader struct {
	r      io.ReaderAt
	closer io.Closer
	header *Header
	opts   options

	mu       sync.Mutex
	consumed bool
	stream   *PointStream
}

// Open opens the LAS file at path and reads its header.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	rd, err := NewReader(f, fi.Size(), opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	rd.closer = f
	return rd, nil
}

// NewReader reads the header from r, which holds size bytes.
func NewReader(r io.ReaderAt, size int64, opts ...Option) (*Reader, error) {
	o := options{chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parallelism < 1 {
		o.parallelism = runtime.GOMAXPROCS(0)
	}
	if o.chunkSize < 1 {
		o.chunkSize = defaultChunkSize
	}
	h, err := readHeader(r, size)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, header: h, opts: o}, nil
}

func (rd *Reader) Header() *Header {
	return rd.header
}

// Points returns the point stream. Only the first call yields points;
// later calls return a stream whose Err is ErrConsumed.
func (rd *Reader) Points() *PointStream {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	if rd.consumed {
		return &PointStream{err: ErrConsumed}
	}
	rd.consumed = true
	if rd.header.compressed {
		return &PointStream{err: ErrCompressed}
	}
	rd.stream = newPointStream(rd)
	return rd.stream
}

// Close stops any running stream and releases the underlying file.
func (rd *Reader) Close() error {
	rd.mu.Lock()
	s := rd.stream
	rd.consumed = true
	rd.mu.Unlock()
	if s != nil {
		_ = s.Close()
	}
	if rd.closer != nil {
		c := rd.closer
		rd.closer = nil
		return c.Close()
	}
	return nil
}

type chunk struct {
	points []Point
	err    error
}

// PointStream is a forward-only sequence of points. It is not safe for
// concurrent use.
type PointStream struct {
	slots  chan chan chunk
	cancel context.CancelFunc
	done   chan struct{}
	// waitErr is the first error a task returned. It is written before
	// done is closed.
	waitErr error

	cur   []Point
	idx   int
	point Point
	err   error
	eof   bool
}

func newPointStream(rd *Reader) *PointStream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PointStream{
		slots:  make(chan chan chunk, rd.opts.parallelism),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.dispatch(ctx, rd)
	return s
}

// dispatch hands chunk tasks to a bounded pool. Each task gets its own
// result slot, queued in file order, so the consumer sees points in
// order regardless of which task finishes first.
func (s *PointStream) dispatch(ctx context.Context, rd *Reader) {
	defer close(s.done)
	defer close(s.slots)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rd.opts.parallelism)
	total := rd.header.PointCount
	size := uint64(rd.opts.chunkSize)
queue:
	for first := uint64(0); first < total; first += size {
		n := min(size, total-first)
		out := make(chan chunk, 1)
		select {
		case s.slots <- out:
		case <-gctx.Done():
			break queue
		}
		g.Go(func() error {
			points, err := rd.decodeChunk(gctx, first, n)
			out <- chunk{points: points, err: err}
			return err
		})
	}
	s.waitErr = g.Wait()
}

func (rd *Reader) decodeChunk(ctx context.Context, first, n uint64) ([]Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := rd.header
	stride := uint64(h.PointRecordLength)
	buf := make([]byte, n*stride)
	off := int64(uint64(h.PointDataOffset) + first*stride)
	if m, err := rd.r.ReadAt(buf, off); m < len(buf) {
		return nil, fmtErr("reading points %d-%d: %w", first, first+n-1, eofIsUnexpected(err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	points := make([]Point, n)
	for i := range points {
		decodePoint(buf[uint64(i)*stride:], h.PointFormat, &h.Transform, &points[i])
	}
	return points, nil
}

// Next advances to the next point. It returns false at the end of the
// data or on error; check Err afterwards.
func (s *PointStream) Next() bool {
	for s.idx >= len(s.cur) {
		if s.err != nil || s.eof {
			return false
		}
		out, ok := <-s.slots
		if !ok {
			s.eof = true
			return false
		}
		c := <-out
		if c.err != nil {
			s.err = c.err
			_ = s.Close()
			// An earlier chunk can see the cancellation caused by a
			// later chunk's failure. Report the failure instead.
			if errors.Is(s.err, context.Canceled) && s.waitErr != nil {
				s.err = s.waitErr
			}
			return false
		}
		s.cur, s.idx = c.points, 0
	}
	s.point = s.cur[s.idx]
	s.idx++
	return true
}

// Point returns the point loaded by the last successful Next.
func (s *PointStream) Point() Point {
	return s.point
}

func (s *PointStream) Err() error {
	return s.err
}

// Close stops decoding and waits for in-flight tasks. Safe to call more
// than once.
func (s *PointStream) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	for range s.slots {
	}
	<-s.done
	s.cur = nil
	s.eof = true
	return nil
}
