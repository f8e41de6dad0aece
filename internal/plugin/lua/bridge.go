package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/model"
)

// ToGoValue converts a Lua value to a Go value. Integral numbers become
// int64, sequences []any and other tables map[string]any.
func ToGoValue(lv lua.LValue) any {
	return toGo(lv, make(map[*lua.LTable]bool))
}

func toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

// tableToGo converts a table to a slice when its keys are exactly 1..n.
func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })
	if n > 0 && count == n {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGo(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value, including editor command payloads, to a
// Lua value.
func ToLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil, struct{}:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case model.TextFormat:
		return lua.LString(val.String())
	case model.ElementFormat:
		return lua.LString(val.String())
	case model.Key:
		return lua.LString(val)
	case editor.TableSize:
		t := L.NewTable()
		t.RawSetString("rows", lua.LNumber(val.Rows))
		t.RawSetString("columns", lua.LNumber(val.Columns))
		return t
	case []string:
		t := L.CreateTable(len(val), 0)
		for _, s := range val {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := L.CreateTable(len(val), 0)
		for _, e := range val {
			t.Append(ToLuaValue(L, e))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		for k, e := range val {
			t.RawSetString(k, ToLuaValue(L, e))
		}
		return t
	case fmt.Stringer:
		return lua.LString(val.String())
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// payloadFor converts a script payload to the type the built-in handlers
// of command name expect. Other commands receive the converted Go value.
func payloadFor(name string, lv lua.LValue) any {
	v := ToGoValue(lv)
	switch name {
	case editor.FormatText.Name():
		if s, ok := v.(string); ok {
			if f, ok := model.ParseTextFormat(s); ok {
				return f
			}
		}
	case editor.FormatElement.Name():
		if s, ok := v.(string); ok {
			if f, ok := model.ParseElementFormat(s); ok {
				return f
			}
		}
	case editor.InsertTable.Name():
		if m, ok := v.(map[string]any); ok {
			rows, _ := m["rows"].(int64)
			cols, _ := m["columns"].(int64)
			return editor.TableSize{Rows: int(rows), Columns: int(cols)}
		}
	}
	return v
}
