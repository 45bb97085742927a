package keymap

// Contexts a binding can apply in.
const (
	ContextGlobal = "global"
	ContextList   = "filer"
	ContextPrompt = "prompt"
)

// DefaultBindings returns the default key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Global bindings
		{Key: "ctrl+c", Command: "quit", Context: ContextGlobal},
		{Key: "ctrl+l", Command: "checkItems", Context: ContextGlobal},

		// Filer list
		{Key: "q", Command: "quit", Context: ContextList},
		{Key: "j", Command: "cursorNext", Context: ContextList},
		{Key: "down", Command: "cursorNext", Context: ContextList},
		{Key: "k", Command: "cursorPrevious", Context: ContextList},
		{Key: "up", Command: "cursorPrevious", Context: ContextList},
		{Key: "J", Command: `cursorNext {"loop":true}`, Context: ContextList},
		{Key: "K", Command: `cursorPrevious {"loop":true}`, Context: ContextList},
		{Key: "ctrl+d", Command: `cursorNext {"count":10}`, Context: ContextList},
		{Key: "ctrl+u", Command: `cursorPrevious {"count":10}`, Context: ContextList},
		{Key: "[", Command: "cursorTreeTop", Context: ContextList},
		{Key: "]", Command: "cursorTreeBottom", Context: ContextList},
		{Key: "enter", Command: `itemAction {"name":"open"}`, Context: ContextList},
		{Key: "l", Command: "expandItem", Context: ContextList},
		{Key: "o", Command: `expandItem {"mode":"toggle"}`, Context: ContextList},
		{Key: "O", Command: `expandItem {"maxLevel":-1}`, Context: ContextList},
		{Key: "g o", Command: `expandItem {"isGrouped":true}`, Context: ContextList},
		{Key: "h", Command: "collapseItem", Context: ContextList},
		{Key: "space", Command: "toggleSelectItem", Context: ContextList},
		{Key: "*", Command: "toggleAllItems", Context: ContextList},
		{Key: "esc", Command: "clearSelectAllItems", Context: ContextList},
		{Key: "p", Command: "togglePreview", Context: ContextList},
		{Key: "P", Command: "closePreviewWindow", Context: ContextList},
		{Key: "ctrl+j", Command: `previewExecute {"command":"normal! j"}`, Context: ContextList},
		{Key: "ctrl+k", Command: `previewExecute {"command":"normal! k"}`, Context: ContextList},
		{Key: "g g", Command: `previewExecute {"command":"normal! gg"}`, Context: ContextList},
		{Key: "y", Command: `itemAction {"name":"yank"}`, Context: ContextList},
		{Key: "n", Command: `itemAction {"name":"narrow"}`, Context: ContextList},
		{Key: "a", Command: "chooseAction", Context: ContextList},
		{Key: "A", Command: "inputAction", Context: ContextList},
		{Key: "r", Command: "refreshItems", Context: ContextList},
		{Key: "s", Command: `updateOptions {"sort":"filename"}`, Context: ContextList},
		{Key: "S", Command: `updateOptions {"sort":"Filename"}`, Context: ContextList},
		{Key: "t", Command: `updateOptions {"sort":"time"}`, Context: ContextList},

		// Prompt
		{Key: "enter", Command: "prompt-accept", Context: ContextPrompt},
		{Key: "esc", Command: "prompt-cancel", Context: ContextPrompt},
		{Key: "tab", Command: "prompt-complete", Context: ContextPrompt},
	}
}

// RegisterDefaults registers all default bindings with the registry.
func RegisterDefaults(r *Registry) {
	for _, b := range DefaultBindings() {
		r.RegisterBinding(b)
	}
}
