package keymap

import "testing"

func newDefault() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

func TestLookup(t *testing.T) {
	r := newDefault()

	tests := []struct {
		key     string
		context string
		want    string
		ok      bool
	}{
		{"j", ContextList, "cursorNext", true},
		{"ctrl+c", ContextList, "quit", true}, // global fallback
		{"enter", ContextPrompt, "prompt-accept", true},
		{"j", ContextPrompt, "", false},
		{"x", ContextList, "", false},
	}
	for _, tt := range tests {
		b, ok := r.Lookup(tt.key, tt.context)
		if ok != tt.ok || b.Command != tt.want {
			t.Errorf("Lookup(%q, %q) = %q, %v, want %q, %v", tt.key, tt.context, b.Command, ok, tt.want, tt.ok)
		}
	}
}

func TestLookup_Sequence(t *testing.T) {
	r := newDefault()

	if _, ok := r.Lookup("g", ContextList); ok {
		t.Fatal("prefix key should not match on its own")
	}
	if r.Pending() != "g" {
		t.Fatalf("Pending() = %q, want g", r.Pending())
	}
	b, ok := r.Lookup("o", ContextList)
	if !ok || b.Command != `expandItem {"isGrouped":true}` {
		t.Errorf("g o = %q, %v", b.Command, ok)
	}
	if r.Pending() != "" {
		t.Error("sequence should clear pending")
	}

	// An abandoned sequence falls back to the single key.
	r.Lookup("g", ContextList)
	b, ok = r.Lookup("j", ContextList)
	if !ok || b.Command != "cursorNext" {
		t.Errorf("g j = %q, %v, want cursorNext", b.Command, ok)
	}
}

func TestSetUserOverride(t *testing.T) {
	r := newDefault()
	r.SetUserOverride("j", "cursorPrevious")
	r.SetUserOverride("x", `itemAction {"name":"yank"}`)
	r.SetUserOverride("q", "none")

	if b, _ := r.Lookup("j", ContextList); b.Command != "cursorPrevious" {
		t.Errorf("overridden j = %q", b.Command)
	}
	if b, ok := r.Lookup("x", ContextList); !ok || b.Command != `itemAction {"name":"yank"}` {
		t.Errorf("new key x = %q, %v", b.Command, ok)
	}
	if _, ok := r.Lookup("q", ContextList); ok {
		t.Error("q should be unbound")
	}
	if b, _ := r.Lookup("enter", ContextPrompt); b.Command != "prompt-accept" {
		t.Error("overrides must not touch the prompt context")
	}
}

func TestRegisterBinding_Replaces(t *testing.T) {
	r := NewRegistry()
	r.RegisterBinding(Binding{Key: "a", Command: "one", Context: ContextList})
	r.RegisterBinding(Binding{Key: "a", Command: "two", Context: ContextList})
	if got := r.BindingsForContext(ContextList); len(got) != 1 || got[0].Command != "two" {
		t.Errorf("BindingsForContext() = %v", got)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		params  int
		wantErr bool
	}{
		{"quit", "quit", 0, false},
		{`cursorNext {"count":3,"loop":true}`, "cursorNext", 2, false},
		{"  refreshItems  ", "refreshItems", 0, false},
		{`expandItem {bad`, "", 0, true},
		{"", "", 0, true},
	}
	for _, tt := range tests {
		name, params, err := ParseCommand(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCommand(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if name != tt.name || len(params) != tt.params {
			t.Errorf("ParseCommand(%q) = %q, %v", tt.in, name, params)
		}
	}
}

func TestKeyBindings_GroupsKeys(t *testing.T) {
	r := newDefault()
	for _, kb := range r.KeyBindings(ContextList) {
		if kb.Help().Desc == "cursorNext" {
			if kb.Help().Key != "j/down" {
				t.Errorf("cursorNext help key = %q, want j/down", kb.Help().Key)
			}
			return
		}
	}
	t.Error("cursorNext missing from help")
}
