// Package keymap maps key presses to filer actions.
package keymap

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
)

// Binding binds a key, or a space separated key sequence such as "g g",
// to a command in a context. The command is an action name optionally
// followed by a JSON object of action parameters.
type Binding struct {
	Key     string
	Command string
	Context string
}

// Action returns the action name and parameters of the binding.
func (b Binding) Action() (string, map[string]any, error) {
	return ParseCommand(b.Command)
}

// ParseCommand splits `name {"param":1}` into its name and parameters.
func ParseCommand(cmd string) (string, map[string]any, error) {
	cmd = strings.TrimSpace(cmd)
	name, rest, found := strings.Cut(cmd, " ")
	if name == "" {
		return "", nil, fmt.Errorf("empty command")
	}
	params := map[string]any{}
	if found && strings.TrimSpace(rest) != "" {
		if err := json.Unmarshal([]byte(rest), &params); err != nil {
			return "", nil, fmt.Errorf("command %q: %w", name, err)
		}
	}
	return name, params, nil
}

// Registry holds bindings per context plus user overrides for the list.
type Registry struct {
	mu        sync.Mutex
	bindings  map[string][]Binding
	overrides map[string]string
	pending   string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings:  make(map[string][]Binding),
		overrides: make(map[string]string),
	}
}

// RegisterBinding adds b. A later binding for the same key and context
// replaces the earlier one.
func (r *Registry) RegisterBinding(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.bindings[b.Context]
	for i, cur := range list {
		if cur.Key == b.Key {
			list[i] = b
			return
		}
	}
	r.bindings[b.Context] = append(list, b)
}

// SetUserOverride binds key to command in the list context. An empty
// command or "none" unbinds the key.
func (r *Registry) SetUserOverride(key, command string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[key] = command
}

// BindingsForContext returns the effective bindings of context, overrides
// applied, in registration order.
func (r *Registry) BindingsForContext(context string) []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.effective(context)
}

func (r *Registry) effective(context string) []Binding {
	base := r.bindings[context]
	out := make([]Binding, 0, len(base))
	seen := make(map[string]bool, len(base))
	for _, b := range base {
		seen[b.Key] = true
		if context == ContextList {
			if cmd, ok := r.overrides[b.Key]; ok {
				if cmd == "" || cmd == "none" {
					continue
				}
				b.Command = cmd
			}
		}
		out = append(out, b)
	}
	if context == ContextList {
		for k, cmd := range r.overrides {
			if !seen[k] && cmd != "" && cmd != "none" {
				out = append(out, Binding{Key: k, Command: cmd, Context: context})
			}
		}
	}
	return out
}

// Lookup resolves a key press in context, falling back to the global
// context. The first key of a sequence is held as pending and reported
// as no match; the next key completes or abandons the sequence.
func (r *Registry) Lookup(keyStr, context string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != "" {
		seq := r.pending + " " + keyStr
		r.pending = ""
		if b, ok := r.find(seq, context); ok {
			return b, true
		}
	}
	if b, ok := r.find(keyStr, context); ok {
		return b, true
	}
	if r.isPrefix(keyStr, context) {
		r.pending = keyStr
	}
	return Binding{}, false
}

// Pending returns the incomplete key sequence, if any.
func (r *Registry) Pending() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Reset drops an incomplete key sequence.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = ""
}

func (r *Registry) find(seq, context string) (Binding, bool) {
	for _, ctx := range []string{context, ContextGlobal} {
		for _, b := range r.effective(ctx) {
			if b.Key == seq {
				return b, true
			}
		}
	}
	return Binding{}, false
}

func (r *Registry) isPrefix(k, context string) bool {
	for _, ctx := range []string{context, ContextGlobal} {
		for _, b := range r.effective(ctx) {
			if strings.HasPrefix(b.Key, k+" ") {
				return true
			}
		}
	}
	return false
}

// KeyBindings returns the bindings of context as bubbles key bindings,
// keys sharing a command grouped, for help rendering.
func (r *Registry) KeyBindings(context string) []key.Binding {
	bindings := r.BindingsForContext(context)
	var order []string
	keys := make(map[string][]string)
	for _, b := range bindings {
		if _, ok := keys[b.Command]; !ok {
			order = append(order, b.Command)
		}
		keys[b.Command] = append(keys[b.Command], b.Key)
	}

	out := make([]key.Binding, 0, len(order))
	for _, cmd := range order {
		ks := keys[cmd]
		out = append(out, key.NewBinding(
			key.WithKeys(ks...),
			key.WithHelp(strings.Join(ks, "/"), cmd),
		))
	}
	return out
}
