package lua

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	glua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/model"
)

func TestStateDoString(t *testing.T) {
	s := NewState()
	defer s.Close()

	if err := s.DoString(`x = 1 + 1`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if got := s.GetGlobal("x"); got != glua.LNumber(2) {
		t.Errorf("x = %v, want 2", got)
	}

	if err := s.DoString(`error("boom")`); err == nil {
		t.Error("DoString() should report script errors")
	}
}

func TestStateSandbox(t *testing.T) {
	s := NewState()
	defer s.Close()

	err := s.DoString(`
		blocked = dofile == nil and loadfile == nil and load == nil
			and loadstring == nil and require == nil
			and io == nil and os == nil and debug == nil
		libs = string ~= nil and table ~= nil and math ~= nil
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if s.GetGlobal("blocked") != glua.LTrue {
		t.Error("unsafe globals should be removed")
	}
	if s.GetGlobal("libs") != glua.LTrue {
		t.Error("safe libraries should be open")
	}
}

func TestStatePrintLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewState(WithLogger(logging.New(core, logging.LogLevelDebug)))
	defer s.Close()

	if err := s.DoString(`print("hello", 42)`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	entries := logs.FilterMessage("print").All()
	if len(entries) != 1 {
		t.Fatalf("got %d print entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["message"]; got != "hello\t42" {
		t.Errorf("message = %v, want %q", got, "hello\t42")
	}
}

func TestStateTimeout(t *testing.T) {
	s := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer s.Close()

	err := s.DoString(`while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("DoString() error = %v, want ErrExecutionTimeout", err)
	}

	// The state stays usable after a timeout.
	if err := s.DoString(`y = 3`); err != nil {
		t.Errorf("DoString() after timeout error = %v", err)
	}
}

func TestStateCallGlobal(t *testing.T) {
	s := NewState()
	defer s.Close()

	if err := s.DoString(`function double(n) return n * 2 end; notfn = 1`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	got, err := s.CallGlobal("double", glua.LNumber(21))
	if err != nil {
		t.Fatalf("CallGlobal() error = %v", err)
	}
	if got != glua.LNumber(42) {
		t.Errorf("double(21) = %v, want 42", got)
	}

	if _, err := s.CallGlobal("notfn"); !errors.Is(err, ErrNotFunction) {
		t.Errorf("CallGlobal(notfn) error = %v, want ErrNotFunction", err)
	}
}

func TestStateClosed(t *testing.T) {
	s := NewState()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !s.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if err := s.DoString(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() after Close = %v, want ErrStateClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestToGoValue(t *testing.T) {
	L := glua.NewState()
	defer L.Close()

	if err := L.DoString(`
		arr = {"a", "b", 3}
		map = {name = "x", n = 1.5}
	`); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   glua.LValue
		want any
	}{
		{"nil", glua.LNil, nil},
		{"bool", glua.LTrue, true},
		{"integer", glua.LNumber(42), int64(42)},
		{"float", glua.LNumber(3.5), 3.5},
		{"string", glua.LString("hi"), "hi"},
		{"array", L.GetGlobal("arr"), []any{"a", "b", int64(3)}},
		{"map", L.GetGlobal("map"), map[string]any{"name": "x", "n": 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ToGoValue(tt.in)); diff != "" {
				t.Errorf("ToGoValue mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToLuaValuePayloads(t *testing.T) {
	L := glua.NewState()
	defer L.Close()

	if got := ToLuaValue(L, struct{}{}); got != glua.LNil {
		t.Errorf("struct{} = %v, want nil", got)
	}
	if got := ToLuaValue(L, model.FormatBold|model.FormatItalic); got != glua.LString("bold italic") {
		t.Errorf("TextFormat = %v", got)
	}
	tbl, ok := ToLuaValue(L, editor.TableSize{Rows: 2, Columns: 3}).(*glua.LTable)
	if !ok {
		t.Fatal("TableSize should convert to a table")
	}
	if tbl.RawGetString("rows") != glua.LNumber(2) || tbl.RawGetString("columns") != glua.LNumber(3) {
		t.Errorf("TableSize table = rows %v columns %v", tbl.RawGetString("rows"), tbl.RawGetString("columns"))
	}
}

func TestPayloadFor(t *testing.T) {
	L := glua.NewState()
	defer L.Close()

	size := L.NewTable()
	size.RawSetString("rows", glua.LNumber(2))
	size.RawSetString("columns", glua.LNumber(4))

	tests := []struct {
		name    string
		command string
		in      glua.LValue
		want    any
	}{
		{"format text", "FORMAT_TEXT", glua.LString("bold"), model.FormatBold},
		{"format element", "FORMAT_ELEMENT", glua.LString("center"), model.AlignCenter},
		{"table size", "INSERT_TABLE", size, editor.TableSize{Rows: 2, Columns: 4}},
		{"plain string", "INSERT_TEXT", glua.LString("x"), "x"},
		{"unknown format stays string", "FORMAT_TEXT", glua.LString("loud"), "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := payloadFor(tt.command, tt.in); got != tt.want {
				t.Errorf("payloadFor = %#v, want %#v", got, tt.want)
			}
		})
	}
}
