package lang_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/plume/lang"
)

func TestCompile_CacheReturnsSameTemplate(t *testing.T) {
	a, err := lang.Compile("p cached")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	b, err := lang.Compile("p cached")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if a != b {
		t.Error("identical source and options should share one template")
	}
}

func TestCompile_CacheKeySeesOptions(t *testing.T) {
	a, err := lang.Compile("while ok\n  p t", lang.WithWhileLimit(2))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	b, err := lang.Compile("while ok\n  p t", lang.WithWhileLimit(3))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if a == b {
		t.Error("different while limits should not share a cache slot")
	}
}

func TestCompile_CacheDisabled(t *testing.T) {
	a, err := lang.Compile("p uncached", lang.WithCache(false))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	b, err := lang.Compile("p uncached", lang.WithCache(false))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if a == b {
		t.Error("disabled cache should compile fresh templates")
	}
}

func TestCompile_ConcurrentSameSource(t *testing.T) {
	const workers = 8

	src := "ul\n  each item in items\n    li= item"

	var wg sync.WaitGroup

	results := make([]*lang.Template, workers)

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			tmpl, err := lang.Compile(src)
			if err != nil {
				t.Errorf("Compile failed: %v", err)

				return
			}

			results[i] = tmpl
		}()
	}

	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("worker %d compiled a distinct template", i)
		}
	}
}

func TestCompileReader(t *testing.T) {
	tmpl, err := lang.CompileReader(strings.NewReader("p from #{src}"))
	if err != nil {
		t.Fatalf("CompileReader failed: %v", err)
	}

	out, err := tmpl.RenderString(map[string]any{"src": "reader"})
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}

	if out != "<p>from reader</p>" {
		t.Errorf("output = %q, want %q", out, "<p>from reader</p>")
	}
}
