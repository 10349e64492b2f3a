package reply

import "testing"

func TestAssemblerLifecycle(t *testing.T) {
	a := NewAssembler()

	if a.State() != StateIdle {
		t.Errorf("Expected idle state, got %s", a.State())
	}

	view, ok := a.Append("Hello")
	if !ok {
		t.Fatal("Expected append to be accepted while streaming")
	}
	if a.State() != StateStreaming {
		t.Errorf("Expected streaming state, got %s", a.State())
	}
	if view.Content != "Hello" {
		t.Errorf("Expected view 'Hello', got %q", view.Content)
	}

	final := a.Finalize()
	if a.State() != StateFinalized {
		t.Errorf("Expected finalized state, got %s", a.State())
	}
	if final.Content != "Hello" {
		t.Errorf("Expected final view 'Hello', got %q", final.Content)
	}
}

func TestAssemblerDropsLateFragments(t *testing.T) {
	a := NewAssembler()
	a.Append("Hello")
	a.Finalize()

	view, ok := a.Append(" late")

	if ok {
		t.Error("Expected append after finalize to be rejected")
	}
	if view.Content != "Hello" {
		t.Errorf("Expected view unchanged, got %q", view.Content)
	}
	if a.Text() != "Hello" {
		t.Errorf("Expected text unchanged, got %q", a.Text())
	}
}

func TestAssemblerSplitAnnotation(t *testing.T) {
	a := NewAssembler()

	a.Append("Hello there<!--QUICK_")
	view := a.View()
	if view.Content != "Hello there<!--QUICK_" {
		t.Errorf("Expected partial marker kept as plain text, got %q", view.Content)
	}

	a.Append(`REPLIES:["Yes",`)
	view, _ = a.Append(`"No"]-->`)

	if view.Content != "Hello there" {
		t.Errorf("Expected annotation stripped once complete, got %q", view.Content)
	}
	if len(view.QuickReplies) != 2 || view.QuickReplies[0] != "Yes" || view.QuickReplies[1] != "No" {
		t.Errorf("Expected replies [Yes No], got %q", view.QuickReplies)
	}
}

func TestAssemblerFragmentationInvariance(t *testing.T) {
	text := `The Royal Botanic Garden is free.<!--QUICK_REPLIES:["How do I get there?","Something else"]-->`

	whole := NewAssembler()
	whole.Append(text)
	want := whole.Finalize()

	for _, size := range []int{1, 3, 7, 10, 33} {
		a := NewAssembler()
		for start := 0; start < len(text); start += size {
			end := start + size
			if end > len(text) {
				end = len(text)
			}
			a.Append(text[start:end])
		}
		got := a.Finalize()

		if got.Content != want.Content {
			t.Errorf("Fragment size %d: content %q, want %q", size, got.Content, want.Content)
		}
		if len(got.QuickReplies) != len(want.QuickReplies) {
			t.Errorf("Fragment size %d: replies %q, want %q", size, got.QuickReplies, want.QuickReplies)
		}
	}
}

func TestAssemblerFinalizeWithoutFragments(t *testing.T) {
	a := NewAssembler()

	view := a.Finalize()

	if view.Content != "" || len(view.QuickReplies) != 0 {
		t.Errorf("Expected empty view, got %+v", view)
	}
	if a.State() != StateFinalized {
		t.Errorf("Expected finalized state, got %s", a.State())
	}
}

func TestAssemblerFinalizeIdempotent(t *testing.T) {
	a := NewAssembler()
	a.Append(`Bye<!--QUICK_REPLIES:["See you"]-->`)

	first := a.Finalize()
	second := a.Finalize()

	if first.Content != second.Content || len(first.QuickReplies) != len(second.QuickReplies) {
		t.Errorf("Expected stable final view, got %+v then %+v", first, second)
	}
}

func TestAssemblerReset(t *testing.T) {
	a := NewAssembler()
	a.Append("old reply")
	a.Finalize()

	a.Reset()

	if a.State() != StateIdle {
		t.Errorf("Expected idle after reset, got %s", a.State())
	}
	if a.Text() != "" {
		t.Errorf("Expected empty text after reset, got %q", a.Text())
	}
	if view, ok := a.Append("new"); !ok || view.Content != "new" {
		t.Errorf("Expected fresh assembler to accept fragments, got %q ok=%v", view.Content, ok)
	}
}

func TestAssemblerEmptyFragment(t *testing.T) {
	a := NewAssembler()

	a.Append("Hi")
	view, ok := a.Append("")

	if !ok {
		t.Error("Expected empty fragment accepted")
	}
	if view.Content != "Hi" {
		t.Errorf("Expected content unchanged by empty fragment, got %q", view.Content)
	}
}
