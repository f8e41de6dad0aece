package model

import (
	"fmt"
	"strconv"

	"github.com/dshills/folio/internal/target"
)

// RenderSpec returns the render description of n using its class.
func (r *Registry) RenderSpec(n *Node) target.Spec {
	if c, ok := r.Class(n.typ); ok && c.Render != nil {
		return c.Render(n)
	}
	switch n.kind {
	case KindText:
		return renderText(n)
	case KindLineBreak:
		return renderLineBreak(n)
	case KindDecorator:
		return target.Spec{Tag: "decorator", Attrs: map[string]string{"data-type": n.typ}}
	default:
		return renderTagged(n.typ)(n)
	}
}

func elementAttrs(n *Node) map[string]string {
	attrs := make(map[string]string)
	if n.dir != DirNone {
		attrs["dir"] = n.dir.String()
	}
	if n.elemFormat != AlignNone {
		attrs["align"] = n.elemFormat.String()
	}
	if n.indent > 0 {
		attrs["indent"] = strconv.Itoa(n.indent)
	}
	return attrs
}

func renderTagged(tag string) func(*Node) target.Spec {
	return func(n *Node) target.Spec {
		return target.Spec{Tag: tag, Attrs: elementAttrs(n)}
	}
}

func renderRoot(n *Node) target.Spec {
	return target.Spec{Tag: "root", Attrs: elementAttrs(n)}
}

func renderHeading(n *Node) target.Spec {
	tag := n.PropString("tag")
	if tag == "" {
		tag = "h1"
	}
	return target.Spec{Tag: tag, Attrs: elementAttrs(n)}
}

func renderGridCell(n *Node) target.Spec {
	spec := target.Spec{Tag: "td", Attrs: elementAttrs(n)}
	if n.colSpan > 1 {
		spec.Attrs["colspan"] = strconv.Itoa(n.colSpan)
	}
	return spec
}

func renderText(n *Node) target.Spec {
	attrs := make(map[string]string)
	if n.format != 0 {
		attrs["format"] = n.format.String()
	}
	if n.style != "" {
		attrs["style"] = n.style
	}
	if n.mode != TextModeNormal {
		attrs["mode"] = n.mode.String()
	}
	return target.Spec{Tag: "span", Text: n.text, Attrs: attrs}
}

func renderLineBreak(*Node) target.Spec {
	return target.Spec{Tag: "br", Text: "\n"}
}

func propString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
