package model

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	if !reg.Has(TypeParagraph) {
		t.Fatal("NewRegistry() lacks built-in types")
	}
	if err := reg.Register(Class{Type: TypeParagraph, Kind: KindElement}); !errors.Is(err, ErrDuplicateType) {
		t.Errorf("Register(duplicate) error = %v", err)
	}
	if err := reg.Register(Class{Kind: KindElement}); err == nil {
		t.Error("Register(empty type) succeeded")
	}
	if err := reg.Register(Class{Type: "video", Kind: KindDecorator, Version: 2}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if defaultRegistry.Has("video") {
		t.Error("Register() leaked into the default registry")
	}
}

func TestCustomTypeRoundTrip(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Class{Type: "video", Kind: KindDecorator, Version: 2}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tx := Begin(NewState(reg))
	mustPanic(t, ErrUnknownType, func() { NewNode(Begin(NewState(nil)), "video") })
	p := NewParagraph(tx)
	p.Append(tx, NewNode(tx, "video").SetProp(tx, "src", "clip.mp4"))
	tx.Root().Append(tx, p)
	st, _ := tx.Commit()
	if st.Registry() != reg {
		t.Fatal("state lost its registry")
	}

	data, err := ExportJSON(st)
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if _, err := ImportJSON(data, nil); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ImportJSON(default registry) error = %v", err)
	}
	back, err := ImportJSON(data, reg)
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	v := back.Root().FirstChild(back).FirstChild(back)
	if v.Type() != "video" || v.PropString("src") != "clip.mp4" {
		t.Errorf("imported node = %s src=%q", v.Type(), v.PropString("src"))
	}
}

func TestAutoDirection(t *testing.T) {
	tests := []struct {
		text string
		want Direction
	}{
		{"hello", DirLTR},
		{"مرحبا", DirRTL},
		{"שלום world", DirRTL},
		{"123 !", DirNone},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := DetectDirection(tt.text); got != tt.want {
				t.Errorf("DetectDirection() = %v, want %v", got, tt.want)
			}
			tx := Begin(NewState(nil), WithAutoDirection(true))
			p := NewParagraph(tx)
			p.Append(tx, NewText(tx, tt.text))
			tx.Root().Append(tx, p)
			st, _ := tx.Commit()
			if got := st.Root().FirstChild(st).Direction(); got != tt.want {
				t.Errorf("paragraph direction = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRandomEdits applies random caret edits and checks that every
// committed state is a well-formed tree.
func TestRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	st, _ := paragraphDoc(t, "The quick", "brown fox", "jumps")
	words := []string{"a", "bc", " ", "déf", "x y"}

	for step := range 300 {
		tx := Begin(st)
		func() {
			defer func() {
				if r := recover(); r != nil {
					if _, ok := r.(*InvariantError); !ok {
						panic(r)
					}
					tx.Discard()
				}
			}()
			texts := tx.Root().AllTextNodes(tx)
			var sel *RangeSelection
			if len(texts) == 0 {
				sel = tx.Root().FirstChild(tx).SelectStart(tx)
			} else {
				n := texts[rng.IntN(len(texts))]
				off := rng.IntN(n.TextContentSize(tx) + 1)
				sel = n.Select(tx, off, off)
			}
			switch rng.IntN(5) {
			case 0, 1:
				sel.InsertText(tx, words[rng.IntN(len(words))])
			case 2:
				sel.DeleteCharacter(tx, rng.IntN(2) == 0)
			case 3:
				sel.InsertParagraph(tx)
			case 4:
				sel.DeleteWord(tx, true)
			}
		}()
		if tx.Closed() {
			continue
		}
		next, _ := tx.Commit()
		if err := Validate(next); err != nil {
			t.Fatalf("step %d: Validate() error = %v", step, err)
		}
		st = next
	}
}
