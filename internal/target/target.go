package target

import "maps"

// Spec describes how a single node is rendered.
type Spec struct {
	// Tag names the element kind, for example "p" or "span".
	Tag string

	// Text is the text content of leaf elements.
	Text string

	// Attrs carries rendering attributes such as class or dir.
	Attrs map[string]string
}

// Equal reports whether two specs render identically.
func (s Spec) Equal(o Spec) bool {
	return s.Tag == o.Tag && s.Text == o.Text && maps.Equal(s.Attrs, o.Attrs)
}

// Attr returns the named attribute or "".
func (s Spec) Attr(name string) string {
	return s.Attrs[name]
}

// Target is a tree-shaped render surface addressed by node key.
type Target interface {
	// Create makes a detached element for key.
	Create(key string, spec Spec) error

	// Update replaces the rendered attributes of an existing element.
	Update(key string, spec Spec) error

	// Remove deletes the element for key together with its subtree.
	Remove(key string) error

	// Insert places key under parentKey before beforeKey, moving it if it
	// is already attached. An empty beforeKey appends.
	Insert(parentKey, key, beforeKey string) error

	// Lookup returns the rendered element for key.
	Lookup(key string) (any, bool)
}
