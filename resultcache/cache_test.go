package resultcache

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrossi/lintorc/diag"
)

func TestCache_MissThenHit(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), true)

	if _, ok := c.Get("k1"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	want := diag.ToolOutcome{Tool: "gofmt", ReturnCode: 0, ExitCategory: diag.ExitSuccess}
	if err := c.Put("k1", want); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get("k1")
	if !ok {
		t.Fatalf("expected hit after Put")
	}
	if !got.Cached {
		t.Fatalf("expected Get to set Cached=true")
	}
	if got.Tool != want.Tool || got.ReturnCode != want.ReturnCode {
		t.Fatalf("got %+v, want content matching %+v (modulo Cached)", got, want)
	}
}

func TestCache_DisabledIsAlwaysMiss(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), false)

	if err := c.Put("k1", diag.ToolOutcome{Tool: "x"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k1"); ok {
		t.Fatalf("expected disabled cache to never hit")
	}
}

func TestCache_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c1 := New(path, true)
	if err := c1.Put("k1", diag.ToolOutcome{Tool: "gofmt", ReturnCode: 0}); err != nil {
		t.Fatal(err)
	}

	c2 := New(path, true)
	got, ok := c2.Get("k1")
	if !ok {
		t.Fatalf("expected a fresh Cache instance to load the persisted entry")
	}
	if got.Tool != "gofmt" {
		t.Fatalf("got %+v", got)
	}
}

func TestCache_GetOrCompute_MissComputesAndStores(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), true)

	var calls int32
	outcome, err := c.GetOrCompute("k1", func() (diag.ToolOutcome, error) {
		atomic.AddInt32(&calls, 1)
		return diag.ToolOutcome{Tool: "ruff", ReturnCode: 0}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Tool != "ruff" {
		t.Fatalf("got %+v", outcome)
	}
	if calls != 1 {
		t.Fatalf("expected compute to run once, ran %d times", calls)
	}

	again, err := c.GetOrCompute("k1", func() (diag.ToolOutcome, error) {
		atomic.AddInt32(&calls, 1)
		return diag.ToolOutcome{Tool: "should-not-run"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !again.Cached {
		t.Fatalf("expected second call to be a cache hit")
	}
	if calls != 1 {
		t.Fatalf("expected compute not to run again on a cache hit, ran %d times total", calls)
	}
}

func TestCache_GetOrCompute_ConcurrentCallersShareOneProducer(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), true)

	var calls int32
	release := make(chan struct{})
	compute := func() (diag.ToolOutcome, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return diag.ToolOutcome{Tool: "slow-tool", ReturnCode: 0}, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]diag.ToolOutcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := c.GetOrCompute("same-key", compute)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = outcome
		}(i)
	}

	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected exactly one producer for concurrent requests of the same key, got %d", calls)
	}
	for i, r := range results {
		if r.Tool != "slow-tool" {
			t.Fatalf("result %d: got %+v", i, r)
		}
	}
}

func TestCache_GetOrCompute_DisabledNeverCaches(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), false)

	var calls int32
	compute := func() (diag.ToolOutcome, error) {
		atomic.AddInt32(&calls, 1)
		return diag.ToolOutcome{Tool: "x"}, nil
	}

	if _, err := c.GetOrCompute("k", compute); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCompute("k", compute); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected every call to miss when disabled, compute ran %d times", calls)
	}
}
