package frontmatter

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/starford/logpress/internal/parser"
)

func TestFields_Order(t *testing.T) {
	data := "icon:: 🚀\ntags:: project, [[go lang]]\nalias:: rocket\nstatus:: active\ncollapsed:: true\nquery-table:: false\ndescription:: Launch notes\n\n- body\n"
	p := parser.ParsePage("pages/Launch.md", []byte(data), false)
	p.Created = "2024-01-01"
	p.Modified = "2024-02-01"

	var keys []string
	for _, f := range Fields(p) {
		keys = append(keys, f.Key)
	}
	want := "title,icon,aliases,tags,description,created,modified,status"
	if got := strings.Join(keys, ","); got != want {
		t.Errorf("keys = %s, want %s", got, want)
	}
	if title := Fields(p)[0].Value; title != "🚀 Launch" {
		t.Errorf("title = %v", title)
	}
}

func TestRender_RoundTrips(t *testing.T) {
	out, err := Render([]Field{
		{Key: "title", Value: `Say "hi": now`},
		{Key: "tags", Value: []string{"a", "b c"}},
		{Key: "stub", Value: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "---\n") || !strings.HasSuffix(s, "---\n") {
		t.Fatalf("missing delimiters: %q", s)
	}
	var got struct {
		Title string   `yaml:"title"`
		Tags  []string `yaml:"tags"`
		Stub  bool     `yaml:"stub"`
	}
	if err := yaml.Unmarshal([]byte(strings.Trim(s, "-\n")), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, s)
	}
	if got.Title != `Say "hi": now` || len(got.Tags) != 2 || !got.Stub {
		t.Errorf("got %+v", got)
	}
	if strings.Index(s, "title") > strings.Index(s, "tags") {
		t.Errorf("field order lost:\n%s", s)
	}
}

func TestDocument_Journal(t *testing.T) {
	p := parser.ParsePage("journals/2024_01_15.md", []byte("- entry\n"), true)
	out, err := Document(p, "- entry\n")
	if err != nil {
		t.Fatal(err)
	}
	want := "---\ntitle: Jan 15th, 2024\ndate: \"2024-01-15\"\n---\n\n- entry\n"
	if string(out) != want {
		t.Errorf("got %q\nwant %q", out, want)
	}
}
