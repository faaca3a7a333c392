package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/designlab/overlay/report"
)

type fakeClipboard struct {
	ok    bool
	calls int
	got   string
}

func (f *fakeClipboard) Write(_ context.Context, text string) bool {
	f.calls++
	f.got = text
	return f.ok
}

func TestManual(t *testing.T) {
	m := NewManual()
	if m.Write(context.Background(), "the report") {
		t.Fatal("Manual.Write must report failure")
	}
	if m.Text() != "the report" {
		t.Fatalf("Manual.Text = %q", m.Text())
	}
}

func TestChain_StopsAtFirstSuccess(t *testing.T) {
	first := &fakeClipboard{ok: false}
	second := &fakeClipboard{ok: true}
	third := &fakeClipboard{ok: true}

	if !Chain(first, second, third).Write(context.Background(), "x") {
		t.Fatal("chain with a succeeding member must succeed")
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Fatalf("calls: %d %d %d", first.calls, second.calls, third.calls)
	}
}

func TestChain_AllFail(t *testing.T) {
	manual := NewManual()
	if Chain(&fakeClipboard{}, manual).Write(context.Background(), "kept") {
		t.Fatal("chain of failures must fail")
	}
	if manual.Text() != "kept" {
		t.Fatal("manual fallback must retain the text for preview")
	}
}

func TestDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "feedback.json")
	payload := report.JSON(nil, "Landing page", "ship it")

	if err := Download(path, payload); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back report.Payload
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Version != "1.0" || back.Target != "Landing page" || back.Overall != "ship it" {
		t.Fatalf("round trip: %+v", back)
	}
}
