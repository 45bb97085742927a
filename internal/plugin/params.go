package plugin

import (
	"encoding/json"

	"github.com/marcus/filer/internal/item"
)

// ActionParams are the loosely typed parameters of an action, as they
// arrive from key bindings or JSON.
type ActionParams map[string]any

// String returns the string at key, or def.
func (p ActionParams) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the boolean at key, or def.
func (p ActionParams) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Int returns the number at key, or def. JSON numbers decode as float64.
func (p ActionParams) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

// Params returns the nested parameter map at key.
func (p ActionParams) Params(key string) ActionParams {
	switch v := p[key].(type) {
	case ActionParams:
		return v
	case map[string]any:
		return ActionParams(v)
	}
	return ActionParams{}
}

// Items returns the item list at key.
func (p ActionParams) Items(key string) []*item.Item {
	if v, ok := p[key].([]*item.Item); ok {
		return v
	}
	return nil
}
