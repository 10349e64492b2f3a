package sse

import (
	"io"
	"iter"
)

// readChunkSize bounds how much of the response body one read pulls in.
// Decoding never looks ahead of the bytes already delivered.
const readChunkSize = 4096

// Stream decodes reply fragments from a raw response body as bytes
// arrive. It owns the framing buffer, the malformed-record recovery and
// the terminator handling; callers range over Deltas and apply fragments
// in order.
type Stream struct {
	r      io.Reader
	framer *Framer
	done   bool
}

// NewStream wraps a response body in a fragment decoder.
func NewStream(r io.Reader) *Stream {
	return &Stream{r: r, framer: NewFramer()}
}

// Deltas yields content fragments in arrival order. The sequence ends at
// the terminator record, at end of stream, or with the first read error.
// After the terminator nothing further is read or applied, even if more
// bytes are available. A malformed record is pushed back onto the buffer
// and retried as more bytes arrive; one that is still malformed when the
// stream ends is dropped after a final attempt. The iterator is
// single-use.
func (s *Stream) Deltas() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if s.done {
			return
		}
		buf := make([]byte, readChunkSize)
		for {
			n, err := s.r.Read(buf)
			if n > 0 {
				records := s.framer.Feed(string(buf[:n]))
			batch:
				for i, record := range records {
					ev := Decode(record)
					switch ev.Kind {
					case EventData:
						if !yield(ev.Content, nil) {
							return
						}
					case EventDone:
						s.done = true
						return
					case EventMalformed:
						// Park the record and everything framed behind
						// it; order must hold, so nothing later may be
						// applied before this record is resolved.
						for j := len(records) - 1; j >= i; j-- {
							s.framer.Requeue(records[j])
						}
						break batch
					}
				}
			}
			if err != nil {
				s.finish(err, yield)
				return
			}
		}
	}
}

// finish drains the buffer once the body has ended. Malformed records get
// their final attempt here and are discarded if still bad; the residual
// is framed as a last record. A read error other than EOF surfaces after
// whatever could be salvaged.
func (s *Stream) finish(readErr error, yield func(string, error) bool) {
	for _, record := range s.framer.Flush() {
		ev := Decode(record)
		switch ev.Kind {
		case EventData:
			if !yield(ev.Content, nil) {
				return
			}
		case EventDone:
			s.done = true
			return
		}
	}
	if readErr != io.EOF {
		yield("", readErr)
	}
}
