package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

func sections() []Section {
	return []Section{
		{Title: "Global", Bindings: []key.Binding{
			key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		}},
		{Title: "Launcher", Bindings: []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "launch selected entry")),
			key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hidden"), key.WithDisabled()),
		}},
		{Title: "Empty"},
	}
}

func TestMarkdown(t *testing.T) {
	md := New(sections()...).Markdown()
	for _, want := range []string{"## Global", "`ctrl+c`", "launch selected entry"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "hidden") {
		t.Error("disabled bindings should be omitted")
	}
	if strings.Contains(md, "## Empty") {
		t.Error("sections without bindings should be omitted")
	}
}

func TestViewCachesPerWidth(t *testing.T) {
	m := New(sections()...)
	first := m.View(80)
	if !strings.Contains(first, "quit") {
		t.Fatalf("rendered help missing binding:\n%s", first)
	}
	cached := m.rendered
	m.View(80)
	if m.rendered != cached {
		t.Error("same width should reuse the rendered output")
	}
	m.View(60)
	if m.width != 60 {
		t.Errorf("width = %d, want 60", m.width)
	}
}
