package model

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Field names written for every node. Any other field of a serialized node
// is kept as an extension prop.
var reservedFields = map[string]bool{
	"type": true, "version": true, "children": true,
	"direction": true, "format": true, "indent": true,
	"text": true, "mode": true, "style": true, "detail": true,
	"colSpan": true,
}

// escapePath quotes a field name for use as an sjson path.
func escapePath(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// fieldWriter accumulates sjson writes into a JSON object, keeping the first
// error.
type fieldWriter struct {
	buf []byte
	err error
}

func newFieldWriter() *fieldWriter {
	return &fieldWriter{buf: []byte("{}")}
}

func (w *fieldWriter) set(path string, v any) {
	if w.err == nil {
		w.buf, w.err = sjson.SetBytes(w.buf, path, v)
	}
}

func (w *fieldWriter) raw(path string, v []byte) {
	if w.err == nil {
		w.buf, w.err = sjson.SetRawBytes(w.buf, path, v)
	}
}

// exportFields writes the type-specific fields of n, its extension props
// and its type and version.
func exportFields(w *fieldWriter, n *Node, cls *Class) {
	switch n.kind {
	case KindElement:
		if n.dir == DirNone {
			w.raw("direction", []byte("null"))
		} else {
			w.set("direction", n.dir.String())
		}
		w.set("format", n.elemFormat.String())
		w.set("indent", n.indent)
	case KindText:
		w.set("detail", int(n.detail))
		w.set("format", int(n.format))
		w.set("mode", n.mode.String())
		w.set("style", n.style)
		w.set("text", n.text)
	}
	if n.typ == TypeGridCell {
		w.set("colSpan", n.colSpan)
	}
	for _, k := range slices.Sorted(maps.Keys(n.props)) {
		w.set(escapePath(k), n.props[k])
	}
	if cls.Export != nil {
		extra := cls.Export(n)
		for _, k := range slices.Sorted(maps.Keys(extra)) {
			w.set(escapePath(k), extra[k])
		}
	}
	w.set("type", n.typ)
	w.set("version", cls.Version)
}

// ExportJSON serializes the document tree of s as nested nodes under a
// "root" field. Keys are not written.
func ExportJSON(s *State) ([]byte, error) {
	root, err := exportNode(s, s.Root())
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes([]byte("{}"), "root", root)
}

func exportNode(r Reader, n *Node) ([]byte, error) {
	w := newFieldWriter()
	if n.kind == KindElement {
		items := make([]string, 0, len(n.children))
		for _, c := range n.Children(r) {
			b, err := exportNode(r, c)
			if err != nil {
				return nil, err
			}
			items = append(items, string(b))
		}
		w.raw("children", []byte("["+strings.Join(items, ",")+"]"))
	}
	exportFields(w, n, classOf(r, n))
	if w.err != nil {
		return nil, fmt.Errorf("export %s: %w", n.key, w.err)
	}
	return w.buf, nil
}

// parseElementFormat accepts an alignment name or its numeric code.
func parseElementFormat(v gjson.Result) (ElementFormat, bool) {
	switch v.Type {
	case gjson.Null:
		return AlignNone, true
	case gjson.Number:
		f := v.Int()
		if f < 0 || f > int64(AlignJustify) {
			return AlignNone, false
		}
		return ElementFormat(f), true
	case gjson.String:
		return ParseElementFormat(v.String())
	}
	return AlignNone, false
}

// importFields reads the serialized fields of n. Unknown fields become
// extension props.
func importFields(n *Node, res gjson.Result, path string, cls *Class) error {
	bad := func(field, msg string) error {
		return &ParseError{Path: path + "." + field, Message: msg}
	}
	switch n.kind {
	case KindElement:
		if d := res.Get("direction"); d.Exists() {
			switch {
			case d.Type == gjson.Null || d.String() == "":
			case d.String() == "ltr":
				n.dir = DirLTR
			case d.String() == "rtl":
				n.dir = DirRTL
			default:
				return bad("direction", fmt.Sprintf("invalid direction %q", d.String()))
			}
		}
		if f := res.Get("format"); f.Exists() {
			ef, ok := parseElementFormat(f)
			if !ok {
				return bad("format", fmt.Sprintf("invalid element format %s", f.Raw))
			}
			n.elemFormat = ef
		}
		if i := res.Get("indent"); i.Exists() {
			if i.Type != gjson.Number || i.Int() < 0 {
				return bad("indent", "indent must be a non-negative number")
			}
			n.indent = int(i.Int())
		}
	case KindText:
		t := res.Get("text")
		if t.Type != gjson.String {
			return bad("text", "text must be a string")
		}
		n.text = t.String()
		if f := res.Get("format"); f.Exists() {
			if f.Type != gjson.Number {
				return bad("format", "text format must be a number")
			}
			n.format = TextFormat(f.Uint())
		}
		if d := res.Get("detail"); d.Exists() {
			if d.Type != gjson.Number {
				return bad("detail", "detail must be a number")
			}
			n.detail = TextDetail(d.Uint())
		}
		if m := res.Get("mode"); m.Exists() {
			switch m.Type {
			case gjson.Number:
				if m.Int() < 0 || m.Int() > int64(TextModeInert) {
					return bad("mode", fmt.Sprintf("invalid mode %s", m.Raw))
				}
				n.mode = TextMode(m.Int())
			case gjson.String:
				mode, ok := ParseTextMode(m.String())
				if !ok {
					return bad("mode", fmt.Sprintf("invalid mode %q", m.String()))
				}
				n.mode = mode
			default:
				return bad("mode", "mode must be a string")
			}
		}
		if s := res.Get("style"); s.Exists() {
			n.style = s.String()
		}
	}
	if n.typ == TypeGridCell {
		n.colSpan = 1
		if c := res.Get("colSpan"); c.Exists() {
			if c.Type != gjson.Number || c.Int() < 1 {
				return bad("colSpan", "colSpan must be a positive number")
			}
			n.colSpan = int(c.Int())
		}
	}
	res.ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		if !reservedFields[name] && !strings.HasPrefix(name, "__") {
			n.setProp(name, v.Value())
		}
		return true
	})
	if cls.Import != nil {
		if err := cls.Import(n, res); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	}
	return nil
}

func readClass(reg *Registry, res gjson.Result, field, path string) (*Class, error) {
	t := res.Get(field)
	if t.Type != gjson.String || t.String() == "" {
		return nil, &ParseError{Path: path, Message: "missing node type"}
	}
	cls, ok := reg.Class(t.String())
	if !ok {
		return nil, &UnknownTypeError{Type: t.String(), Path: path}
	}
	return cls, nil
}

// ImportJSON builds a state from the nested form written by ExportJSON.
// Nodes get fresh keys and the state has no selection. Content errors are
// returned as *ParseError or *UnknownTypeError.
func ImportJSON(data []byte, reg *Registry) (*State, error) {
	if reg == nil {
		reg = defaultRegistry
	}
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Message: "invalid JSON"}
	}
	root := gjson.GetBytes(data, "root")
	if !root.IsObject() {
		return nil, &ParseError{Path: "root", Message: "missing root object"}
	}
	m := NewNodeMap()
	if _, err := importNode(reg, m, root, "root", ""); err != nil {
		return nil, err
	}
	return &State{nodes: m, registry: reg}, nil
}

// importNode builds a node after its children, so every child is in the map
// before the parent that lists it.
func importNode(reg *Registry, m *NodeMap, res gjson.Result, path string, parent Key) (Key, error) {
	if !res.IsObject() {
		return "", &ParseError{Path: path, Message: "node must be an object"}
	}
	cls, err := readClass(reg, res, "type", path)
	if err != nil {
		return "", err
	}
	isRoot := parent == ""
	if isRoot != (cls.Type == TypeRoot) {
		return "", &ParseError{Path: path, Message: "root must be the outermost node and appear once"}
	}
	key := RootKey
	if !isRoot {
		key = NewKey()
	}
	n := &Node{key: key, typ: cls.Type, kind: cls.Kind, parent: parent}
	if err := importFields(n, res, path, cls); err != nil {
		return "", err
	}
	if n.kind == KindElement {
		children := res.Get("children")
		if children.Exists() && !children.IsArray() {
			return "", &ParseError{Path: path + ".children", Message: "children must be an array"}
		}
		for i, c := range children.Array() {
			ck, err := importNode(reg, m, c, path+".children."+strconv.Itoa(i), key)
			if err != nil {
				return "", err
			}
			n.children = append(n.children, ck)
		}
	}
	m.set(key, n)
	return key, nil
}

// MarshalJSON writes the node-map form of the state: every attached node
// keyed by its key under "_nodeMap", and the selection under "_selection".
func (s *State) MarshalJSON() ([]byte, error) {
	var items []string
	var werr error
	s.Walk(func(n *Node) bool {
		if werr != nil {
			return false
		}
		w := newFieldWriter()
		if n.kind == KindElement {
			keys := make([]string, len(n.children))
			for i, k := range n.children {
				keys[i] = string(k)
			}
			w.set("__children", keys)
		}
		w.set("__key", string(n.key))
		if n.parent == "" {
			w.raw("__parent", []byte("null"))
		} else {
			w.set("__parent", string(n.parent))
		}
		w.set("__type", n.typ)
		exportFields(w, n, classOf(s, n))
		if w.err != nil {
			werr = fmt.Errorf("marshal %s: %w", n.key, w.err)
			return false
		}
		items = append(items, "["+strconv.Quote(string(n.key))+","+string(w.buf)+"]")
		return true
	})
	if werr != nil {
		return nil, werr
	}
	buf, err := sjson.SetRawBytes([]byte("{}"), "_nodeMap", []byte("["+strings.Join(items, ",")+"]"))
	if err != nil {
		return nil, err
	}
	sel, err := marshalSelection(s.selection)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(buf, "_selection", sel)
}

func marshalPoint(w *fieldWriter, path string, p Point) {
	w.set(path+".key", string(p.Key))
	w.set(path+".offset", p.Offset)
	w.set(path+".type", p.Type.String())
}

func marshalSelection(sel Selection) ([]byte, error) {
	w := newFieldWriter()
	switch s := sel.(type) {
	case nil:
		return []byte("null"), nil
	case *RangeSelection:
		w.set("type", "range")
		marshalPoint(w, "anchor", s.Anchor)
		marshalPoint(w, "focus", s.Focus)
		w.set("format", int(s.Format))
		w.set("style", s.Style)
	case *NodeSelection:
		keys := make([]string, 0, s.Len())
		for _, k := range s.Keys() {
			keys = append(keys, string(k))
		}
		w.set("type", "node")
		w.set("nodes", keys)
	case *GridSelection:
		w.set("type", "grid")
		w.set("gridKey", string(s.GridKey))
		w.set("anchorCellKey", string(s.Anchor))
		w.set("focusCellKey", string(s.Focus))
	}
	return w.buf, w.err
}

func parsePoint(res gjson.Result, path string) (Point, error) {
	if !res.IsObject() {
		return Point{}, &ParseError{Path: path, Message: "point must be an object"}
	}
	p := Point{Key: Key(res.Get("key").String()), Offset: int(res.Get("offset").Int())}
	switch res.Get("type").String() {
	case "text":
		p.Type = PointText
	case "element":
		p.Type = PointElement
	default:
		return Point{}, &ParseError{Path: path + ".type", Message: "point type must be text or element"}
	}
	return p, nil
}

func parseSelection(res gjson.Result) (Selection, error) {
	if !res.Exists() || res.Type == gjson.Null {
		return nil, nil
	}
	const path = "_selection"
	switch res.Get("type").String() {
	case "range":
		anchor, err := parsePoint(res.Get("anchor"), path+".anchor")
		if err != nil {
			return nil, err
		}
		focus, err := parsePoint(res.Get("focus"), path+".focus")
		if err != nil {
			return nil, err
		}
		return &RangeSelection{
			Anchor: anchor,
			Focus:  focus,
			Format: TextFormat(res.Get("format").Uint()),
			Style:  res.Get("style").String(),
		}, nil
	case "node":
		s := NewNodeSelection()
		for _, k := range res.Get("nodes").Array() {
			s.Add(Key(k.String()))
		}
		return s, nil
	case "grid":
		return NewGridSelection(
			Key(res.Get("gridKey").String()),
			Key(res.Get("anchorCellKey").String()),
			Key(res.Get("focusCellKey").String()),
		), nil
	}
	return nil, &ParseError{Path: path + ".type", Message: "unknown selection type"}
}

// ParseState reads the node-map form written by State.MarshalJSON. Keys are
// kept, and the key generator is advanced past numeric keys so new nodes
// never collide with them. The result is validated as a single tree.
func ParseState(data []byte, reg *Registry) (*State, error) {
	if reg == nil {
		reg = defaultRegistry
	}
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Message: "invalid JSON"}
	}
	entries := gjson.GetBytes(data, "_nodeMap")
	if !entries.IsArray() {
		return nil, &ParseError{Path: "_nodeMap", Message: "missing node map"}
	}

	m := NewNodeMap()
	for i, entry := range entries.Array() {
		path := "_nodeMap." + strconv.Itoa(i)
		pair := entry.Array()
		if !entry.IsArray() || len(pair) != 2 || pair[0].Type != gjson.String || pair[0].String() == "" {
			return nil, &ParseError{Path: path, Message: "entry must be a [key, node] pair"}
		}
		key := Key(pair[0].String())
		obj := pair[1]
		if !obj.IsObject() {
			return nil, &ParseError{Path: path, Message: "node must be an object"}
		}
		if k := obj.Get("__key"); k.Exists() && Key(k.String()) != key {
			return nil, &ParseError{Path: path + ".__key", Message: "key does not match entry"}
		}
		if m.Has(key) {
			return nil, &ParseError{Path: path, Message: fmt.Sprintf("duplicate key %q", key)}
		}
		cls, err := readClass(reg, obj, "__type", path)
		if err != nil {
			return nil, err
		}
		n := &Node{key: key, typ: cls.Type, kind: cls.Kind}
		if p := obj.Get("__parent"); p.Exists() && p.Type != gjson.Null {
			n.parent = Key(p.String())
		}
		if n.kind == KindElement {
			for _, c := range obj.Get("__children").Array() {
				n.children = append(n.children, Key(c.String()))
			}
		}
		if err := importFields(n, obj, path, cls); err != nil {
			return nil, err
		}
		m.set(key, n)
		reserveKey(key)
	}

	sel, err := parseSelection(gjson.GetBytes(data, "_selection"))
	if err != nil {
		return nil, err
	}
	st := &State{nodes: m, selection: sel, registry: reg}
	if err := Validate(st); err != nil {
		return nil, &ParseError{Message: err.Error(), Err: err}
	}
	return st, nil
}
