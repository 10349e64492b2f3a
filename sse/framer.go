// Package sse decodes the line-delimited event feed of a streaming chat
// completion: framing raw bytes into records, classifying records into
// events, and iterating content fragments in arrival order.
package sse

import "bytes"

// Framer splits an incremental byte feed into newline-delimited records.
// Chunks may cut records at arbitrary byte positions; bytes after the last
// newline stay buffered until more input arrives. No byte is ever lost or
// duplicated, and no record is emitted before its delimiter.
type Framer struct {
	buf []byte
}

// NewFramer returns an empty framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends a chunk to the buffer and returns every record that is now
// complete, in arrival order. The terminating newline is consumed and a
// single trailing carriage return stripped, so CRLF feeds frame the same
// as LF feeds.
func (f *Framer) Feed(chunk string) []string {
	f.buf = append(f.buf, chunk...)
	return f.drain()
}

// Requeue pushes a record back onto the front of the buffer, restoring
// the newline that framing consumed. The record comes out again on the
// next Feed or Flush, ahead of everything buffered behind it.
func (f *Framer) Requeue(record string) {
	merged := make([]byte, 0, len(record)+1+len(f.buf))
	merged = append(merged, record...)
	merged = append(merged, '\n')
	merged = append(merged, f.buf...)
	f.buf = merged
}

// Flush drains the buffer at end of stream: complete records first, then
// any unterminated residual as a best-effort final record. The framer is
// empty afterwards.
func (f *Framer) Flush() []string {
	records := f.drain()
	if len(f.buf) > 0 {
		records = append(records, string(trimCR(f.buf)))
		f.buf = nil
	}
	return records
}

// Pending returns the bytes buffered but not yet delimited.
func (f *Framer) Pending() string {
	return string(f.buf)
}

func (f *Framer) drain() []string {
	var records []string
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			return records
		}
		records = append(records, string(trimCR(f.buf[:i])))
		f.buf = f.buf[i+1:]
	}
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
