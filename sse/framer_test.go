package sse

import (
	"strings"
	"testing"
)

func TestFramerFeedCompleteRecords(t *testing.T) {
	f := NewFramer()

	records := f.Feed("data: a\ndata: b\n")

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0] != "data: a" || records[1] != "data: b" {
		t.Errorf("Unexpected records: %q", records)
	}
	if f.Pending() != "" {
		t.Errorf("Expected empty residual, got %q", f.Pending())
	}
}

func TestFramerHoldsPartialRecord(t *testing.T) {
	f := NewFramer()

	if records := f.Feed("data: hel"); len(records) != 0 {
		t.Fatalf("Expected no records for partial input, got %q", records)
	}
	if f.Pending() != "data: hel" {
		t.Errorf("Expected residual to keep partial bytes, got %q", f.Pending())
	}

	records := f.Feed("lo\n")
	if len(records) != 1 || records[0] != "data: hello" {
		t.Errorf("Expected reassembled record, got %q", records)
	}
}

func TestFramerStripsCarriageReturn(t *testing.T) {
	f := NewFramer()

	records := f.Feed("data: a\r\ndata: b\r\n")

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0] != "data: a" || records[1] != "data: b" {
		t.Errorf("Expected CR stripped, got %q", records)
	}
}

func TestFramerKeepsInteriorCarriageReturn(t *testing.T) {
	f := NewFramer()

	records := f.Feed("a\rb\n")

	if len(records) != 1 || records[0] != "a\rb" {
		t.Errorf("Expected interior CR preserved, got %q", records)
	}
}

func TestFramerEmptyRecords(t *testing.T) {
	f := NewFramer()

	records := f.Feed("\n\ndata: x\n")

	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0] != "" || records[1] != "" || records[2] != "data: x" {
		t.Errorf("Unexpected records: %q", records)
	}
}

func TestFramerChunkBoundaryInvariance(t *testing.T) {
	feed := "data: one\n: keep-alive\r\n\ndata: two\ndata: three\n"

	whole := NewFramer()
	want := whole.Feed(feed)
	want = append(want, whole.Flush()...)

	for _, size := range []int{1, 2, 3, 5, 7, 11} {
		f := NewFramer()
		var got []string
		for start := 0; start < len(feed); start += size {
			end := start + size
			if end > len(feed) {
				end = len(feed)
			}
			got = append(got, f.Feed(feed[start:end])...)
		}
		got = append(got, f.Flush()...)

		if len(got) != len(want) {
			t.Fatalf("Chunk size %d: expected %d records, got %d", size, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Chunk size %d: record %d = %q, want %q", size, i, got[i], want[i])
			}
		}
	}
}

func TestFramerLossless(t *testing.T) {
	feed := "alpha\nbeta\ngam"

	f := NewFramer()
	records := f.Feed(feed)

	rebuilt := strings.Join(records, "\n") + "\n" + f.Pending()
	if rebuilt != feed {
		t.Errorf("Expected records+residual to rebuild input, got %q", rebuilt)
	}
}

func TestFramerRequeue(t *testing.T) {
	f := NewFramer()
	f.Feed("data: tail")

	f.Requeue("data: head")

	records := f.Feed("-end\n")
	if len(records) != 2 {
		t.Fatalf("Expected 2 records after requeue, got %q", records)
	}
	if records[0] != "data: head" {
		t.Errorf("Expected requeued record first, got %q", records[0])
	}
	if records[1] != "data: tail-end" {
		t.Errorf("Expected buffered bytes to follow requeued record, got %q", records[1])
	}
}

func TestFramerFlush(t *testing.T) {
	f := NewFramer()
	f.Feed("complete\npartial")

	records := f.Flush()

	if len(records) != 1 || records[0] != "partial" {
		t.Errorf("Expected residual as final record, got %q", records)
	}
	if f.Pending() != "" {
		t.Errorf("Expected empty framer after flush, got %q", f.Pending())
	}
	if again := f.Flush(); len(again) != 0 {
		t.Errorf("Expected second flush to be empty, got %q", again)
	}
}

func TestFramerFlushStripsTrailingCR(t *testing.T) {
	f := NewFramer()
	f.Feed("ending\r")

	records := f.Flush()

	if len(records) != 1 || records[0] != "ending" {
		t.Errorf("Expected CR stripped from residual, got %q", records)
	}
}
