// Package textinput provides a controlled text input: a single string value
// bound to a form field together with its change handler.
package textinput

import "sync"

// Binding is the value/handler pair attached to a form field.
type Binding struct {
	Value    string
	OnChange func(content string)
}

// Input holds one field's current value.
type Input struct {
	mu    sync.RWMutex
	value string
}

// New creates an Input. The initial value defaults to "".
func New(initial ...string) *Input {
	in := &Input{}
	if len(initial) > 0 {
		in.value = initial[0]
	}
	return in
}

// Value returns the current value.
func (in *Input) Value() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.value
}

// Set replaces the value.
func (in *Input) Set(v string) {
	in.mu.Lock()
	in.value = v
	in.mu.Unlock()
}

// OnChange is the field's change handler. The new content is stored verbatim:
// no trimming, no masking.
func (in *Input) OnChange(content string) {
	in.Set(content)
}

// Bind returns the pair to attach to a form field.
func (in *Input) Bind() Binding {
	return Binding{Value: in.Value(), OnChange: in.OnChange}
}
