package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/safemeridian/chaincfg/pkg/dag"
)

func listFixture(t *testing.T) *dag.Graph {
	t.Helper()
	g := dag.New(nil)
	for _, n := range []dag.Node{
		{ID: "safe-eth-py", Depth: 0, Meta: dag.Metadata{dag.MetaVersion: "5.8.0"}},
		{ID: "web3", Depth: 1, Meta: dag.Metadata{dag.MetaVersion: "6.20.2"}},
		{ID: "eth-abi", Depth: 2},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge(dag.Edge{From: "safe-eth-py", To: "web3"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(dag.Edge{From: "web3", To: "eth-abi"}); err != nil {
		t.Fatal(err)
	}
	return g
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPackageListNavigation(t *testing.T) {
	m := NewPackageListModel(listFixture(t))

	next, _ := m.Update(keyMsg("j"))
	m = next.(PackageListModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.Cursor)
	}

	next, _ = m.Update(keyMsg("k"))
	m = next.(PackageListModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", m.Cursor)
	}

	// Cursor is clamped at the top
	next, _ = m.Update(keyMsg("k"))
	m = next.(PackageListModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after up at top, want 0", m.Cursor)
	}
}

func TestPackageListSelect(t *testing.T) {
	m := NewPackageListModel(listFixture(t))

	next, _ := m.Update(keyMsg("j"))
	m = next.(PackageListModel)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(PackageListModel)

	if cmd == nil {
		t.Error("enter should quit the program")
	}
	if m.Selected == nil {
		t.Fatal("enter should set Selected")
	}
	if m.Selected.ID != "safe-eth-py" {
		t.Errorf("Selected.ID = %q, want %q", m.Selected.ID, "safe-eth-py")
	}
}

func TestPackageListQuit(t *testing.T) {
	m := NewPackageListModel(listFixture(t))

	next, cmd := m.Update(keyMsg("q"))
	m = next.(PackageListModel)
	if cmd == nil {
		t.Error("q should quit the program")
	}
	if m.Selected != nil {
		t.Error("q should not select a package")
	}
}

func TestPackageListView(t *testing.T) {
	m := NewPackageListModel(listFixture(t))
	view := m.View()

	for _, want := range []string{"Resolved Packages", "safe-eth-py", "web3", "6.20.2"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
