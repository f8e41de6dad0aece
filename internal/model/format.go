package model

import "strings"

// Kind is the shape of a node.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindLineBreak
	KindDecorator
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindLineBreak:
		return "linebreak"
	case KindDecorator:
		return "decorator"
	default:
		return "unknown"
	}
}

// TextFormat is a bit set of inline text attributes. Attributes combine with
// bitwise OR and are tested with bitwise AND.
type TextFormat uint32

const (
	FormatBold TextFormat = 1 << iota
	FormatItalic
	FormatStrikethrough
	FormatUnderline
	FormatCode
	FormatSubscript
	FormatSuperscript
)

var textFormatNames = []struct {
	flag TextFormat
	name string
}{
	{FormatBold, "bold"},
	{FormatItalic, "italic"},
	{FormatStrikethrough, "strikethrough"},
	{FormatUnderline, "underline"},
	{FormatCode, "code"},
	{FormatSubscript, "subscript"},
	{FormatSuperscript, "superscript"},
}

// Has reports whether every bit of flag is set.
func (f TextFormat) Has(flag TextFormat) bool {
	return flag != 0 && f&flag == flag
}

// Toggle flips flag. Subscript and superscript are mutually exclusive, so
// turning one on clears the other.
func (f TextFormat) Toggle(flag TextFormat) TextFormat {
	f ^= flag
	if f.Has(flag) {
		switch flag {
		case FormatSubscript:
			f &^= FormatSuperscript
		case FormatSuperscript:
			f &^= FormatSubscript
		}
	}
	return f
}

// Names returns the attribute names set in f.
func (f TextFormat) Names() []string {
	var names []string
	for _, tf := range textFormatNames {
		if f.Has(tf.flag) {
			names = append(names, tf.name)
		}
	}
	return names
}

// String returns the attribute names joined by spaces.
func (f TextFormat) String() string {
	return strings.Join(f.Names(), " ")
}

// ParseTextFormat returns the flag for an attribute name.
func ParseTextFormat(name string) (TextFormat, bool) {
	for _, tf := range textFormatNames {
		if tf.name == name {
			return tf.flag, true
		}
	}
	return 0, false
}

// TextMode governs how a text node merges and splits.
type TextMode uint8

const (
	// TextModeNormal text merges with similar neighbours and accepts typing.
	TextModeNormal TextMode = iota

	// TextModeToken text behaves as a single unit.
	TextModeToken

	// TextModeSegmented text is deleted segment by segment.
	TextModeSegmented

	// TextModeInert text cannot be selected or edited.
	TextModeInert
)

// String returns the serialized mode name.
func (m TextMode) String() string {
	switch m {
	case TextModeToken:
		return "token"
	case TextModeSegmented:
		return "segmented"
	case TextModeInert:
		return "inert"
	default:
		return "normal"
	}
}

// ParseTextMode returns the mode for a serialized name.
func ParseTextMode(s string) (TextMode, bool) {
	switch s {
	case "normal", "":
		return TextModeNormal, true
	case "token":
		return TextModeToken, true
	case "segmented":
		return TextModeSegmented, true
	case "inert":
		return TextModeInert, true
	default:
		return TextModeNormal, false
	}
}

// TextDetail is a bit set of text node flags.
type TextDetail uint32

const (
	DetailDirectionless TextDetail = 1 << iota
	DetailUnmergeable
)

// Has reports whether every bit of flag is set.
func (d TextDetail) Has(flag TextDetail) bool {
	return flag != 0 && d&flag == flag
}

// ElementFormat is the block alignment of an element.
type ElementFormat uint8

const (
	AlignNone ElementFormat = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignJustify
)

// String returns the serialized alignment name.
func (f ElementFormat) String() string {
	switch f {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return ""
	}
}

// ParseElementFormat returns the alignment for a serialized name.
func ParseElementFormat(s string) (ElementFormat, bool) {
	switch s {
	case "":
		return AlignNone, true
	case "left":
		return AlignLeft, true
	case "center":
		return AlignCenter, true
	case "right":
		return AlignRight, true
	case "justify":
		return AlignJustify, true
	default:
		return AlignNone, false
	}
}

// Direction is the text direction of an element.
type Direction uint8

const (
	DirNone Direction = iota
	DirLTR
	DirRTL
)

// String returns "ltr", "rtl" or "".
func (d Direction) String() string {
	switch d {
	case DirLTR:
		return "ltr"
	case DirRTL:
		return "rtl"
	default:
		return ""
	}
}
