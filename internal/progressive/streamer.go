package progressive

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"
)

// Snapshot is one emitted frame: the stage name and the accumulated value so far.
// Data is a complete JSON document owned by the receiver.
type Snapshot struct {
	Stage string          `json:"stage"`
	Data  json.RawMessage `json:"data"`
}

// Sink receives snapshots in emission order. Returning an error stops the stream.
type Sink func(Snapshot) error

// streamer holds the per-call accumulator. It is never shared between calls.
type streamer struct {
	ctx   context.Context
	stage string
	sink  Sink
	delay time.Duration
	root  *Value
	buf   bytes.Buffer
	count int
}

// Stream walks value depth-first and emits a full snapshot after every container
// open, every scalar and every appended character of a string. delay is waited
// after each character emission and may be zero. It returns the number of
// snapshots emitted.
func Stream(ctx context.Context, stage string, value any, sink Sink, delay time.Duration) (int, error) {
	s := &streamer{
		ctx:   ctx,
		stage: stage,
		sink:  sink,
		delay: delay,
	}
	src := FromAny(value)

	switch src.Kind {
	case KindObject, KindArray:
		s.root = &Value{Kind: src.Kind}
		if err := s.fill(src, s.root); err != nil {
			return s.count, err
		}
	case KindString:
		s.root = &Value{Kind: KindString}
		if err := s.growString(src, s.root); err != nil {
			return s.count, err
		}
	default:
		s.root = &Value{Kind: KindScalar, Scalar: src.Scalar}
		if err := s.emit(); err != nil {
			return s.count, err
		}
	}
	return s.count, nil
}

// fill copies the children of src into the empty container dst, emitting as it goes.
func (s *streamer) fill(src, dst *Value) error {
	for i, child := range src.Items {
		var node *Value
		switch child.Kind {
		case KindObject, KindArray:
			node = &Value{Kind: child.Kind}
		case KindString:
			node = &Value{Kind: KindString}
		default:
			node = &Value{Kind: KindScalar, Scalar: child.Scalar}
		}

		if src.Kind == KindObject {
			dst.Keys = append(dst.Keys, src.Keys[i])
		}
		dst.Items = append(dst.Items, node)

		switch child.Kind {
		case KindObject, KindArray:
			if err := s.emit(); err != nil {
				return err
			}
			if err := s.fill(child, node); err != nil {
				return err
			}
		case KindString:
			if err := s.growString(child, node); err != nil {
				return err
			}
		default:
			if err := s.emit(); err != nil {
				return err
			}
		}
	}
	return nil
}

// growString emits the empty string and then one frame per rune.
// dst.Str always holds a prefix of src.Str, so no per-rune allocation is needed.
func (s *streamer) growString(src, dst *Value) error {
	if err := s.emit(); err != nil {
		return err
	}
	for i := 0; i < len(src.Str); {
		_, size := utf8.DecodeRuneInString(src.Str[i:])
		i += size
		dst.Str = src.Str[:i]
		if err := s.emit(); err != nil {
			return err
		}
		if err := s.wait(); err != nil {
			return err
		}
	}
	return nil
}

func (s *streamer) emit() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	s.buf.Reset()
	if err := s.root.writeJSON(&s.buf); err != nil {
		return err
	}
	s.count++
	return s.sink(Snapshot{
		Stage: s.stage,
		Data:  bytes.Clone(s.buf.Bytes()),
	})
}

func (s *streamer) wait() error {
	if s.delay <= 0 {
		return s.ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-timer.C:
		return nil
	}
}
