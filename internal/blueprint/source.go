package blueprint

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/seantiz/hivegrid/internal/model"
)

// ErrNotReady is returned by streaming sources when no record is available
// yet but the source is not exhausted.
var ErrNotReady = errors.New("no initialization data ready")

// DataSource produces initialization records lazily. Bounded sources hold
// every record up front; streaming sources deliver them over time.
type DataSource interface {
	// Streaming reports whether records arrive over time with an unknown
	// total count.
	Streaming() bool

	// Next returns the next record. io.EOF signals exhaustion. Streaming
	// sources return ErrNotReady when nothing is available yet.
	Next(ctx context.Context) (*model.InitializationData, error)
}

// SliceSource is a bounded source over records known up front.
type SliceSource struct {
	mu      sync.Mutex
	records []*model.InitializationData
	pos     int
}

// NewSliceSource creates a bounded source that yields the given records in order.
func NewSliceSource(records ...*model.InitializationData) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Streaming() bool {
	return false
}

func (s *SliceSource) Next(ctx context.Context) (*model.InitializationData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// ChannelSource is a streaming source fed through a channel. Close signals
// exhaustion once buffered records are drained.
type ChannelSource struct {
	ch chan *model.InitializationData
}

// NewChannelSource creates a streaming source with the given buffer size.
func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{ch: make(chan *model.InitializationData, buffer)}
}

// Publish enqueues one record. Blocks if the buffer is full.
func (c *ChannelSource) Publish(rec *model.InitializationData) {
	c.ch <- rec
}

// Close marks the source exhausted. Records already buffered are still
// delivered before Next reports io.EOF.
func (c *ChannelSource) Close() {
	close(c.ch)
}

func (c *ChannelSource) Streaming() bool {
	return true
}

func (c *ChannelSource) Next(ctx context.Context) (*model.InitializationData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case rec, ok := <-c.ch:
		if !ok {
			return nil, io.EOF
		}
		return rec, nil
	default:
		return nil, ErrNotReady
	}
}
