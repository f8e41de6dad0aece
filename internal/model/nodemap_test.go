package model

import "testing"

func TestNodeMapLayers(t *testing.T) {
	base := NewNodeMap()
	a := &Node{key: "a"}
	b := &Node{key: "b"}
	base.set("a", a)
	base.set("b", b)

	layer := base.derive()
	a2 := &Node{key: "a", text: "new"}
	layer.set("a", a2)
	layer.remove("b")
	layer.set("c", &Node{key: "c"})

	if got := layer.Get("a"); got != a2 {
		t.Errorf("layer.Get(a) = %p, want %p", got, a2)
	}
	if layer.Has("b") {
		t.Error("layer.Has(b) = true after remove")
	}
	if !base.Has("b") || base.Get("a") != a {
		t.Error("base changed by writes to derived layer")
	}
	if got := layer.Len(); got != 2 {
		t.Errorf("layer.Len() = %d, want 2", got)
	}
	if got := base.Len(); got != 2 {
		t.Errorf("base.Len() = %d, want 2", got)
	}

	seen := map[Key]bool{}
	layer.Range(func(k Key, _ *Node) bool {
		seen[k] = true
		return true
	})
	if len(seen) != 2 || !seen["a"] || !seen["c"] {
		t.Errorf("Range visited %v, want a and c", seen)
	}
}

func TestNodeMapSeal(t *testing.T) {
	t.Run("empty layer collapses", func(t *testing.T) {
		base := NewNodeMap()
		if got := base.derive().seal(); got != base {
			t.Error("seal() of empty layer did not return base")
		}
	})

	t.Run("deep chain flattens", func(t *testing.T) {
		m := NewNodeMap()
		for i := 0; i <= maxLayerDepth; i++ {
			l := m.derive()
			k := Key(string(rune('a' + i)))
			l.set(k, &Node{key: k})
			m = l.seal()
		}
		if m.base != nil {
			t.Fatalf("depth = %d, want flattened map", m.depth)
		}
		if got := m.Len(); got != maxLayerDepth+1 {
			t.Errorf("Len() = %d, want %d", got, maxLayerDepth+1)
		}
		if !m.Has("a") {
			t.Error("flattened map lost the first key")
		}
	})
}
