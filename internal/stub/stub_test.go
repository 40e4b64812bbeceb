package stub

import (
	"sync"
	"testing"

	"github.com/starford/logpress/internal/graph"
)

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"Ghost Page":              "ghost-page",
		"  ghost   page ":         "ghost-page",
		"Cyber Valley/Night Life": "cyber-valley/night-life",
		"$BOOT Sequence":          "$boot-sequence",
		"../../etc/passwd":        "untitled/untitled/etc/passwd",
		"":                        "untitled",
	}
	for in, want := range cases {
		if got := SafeName(in); got != want {
			t.Errorf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFor_OneStubPerNormalizedName(t *testing.T) {
	g := graph.FromPages()
	s := New(g)

	var wg sync.WaitGroup
	for _, ref := range []string{"Ghost Page", "ghost page", "GHOST  PAGE", "Ghost Page"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.For(ref, "Referrer")
		}()
	}
	wg.Wait()

	stubs := g.Stubs()
	if len(stubs) != 1 {
		t.Fatalf("stubs = %d, want 1", len(stubs))
	}
	p := stubs[0].Page
	if p.Name != "ghost-page" || !p.Stub || p.OutputPath() != "ghost-page.md" {
		t.Errorf("stub = %+v", p)
	}
	if len(stubs[0].Referrers) != 1 || stubs[0].Referrers[0] != "Referrer" {
		t.Errorf("referrers = %v", stubs[0].Referrers)
	}
}
