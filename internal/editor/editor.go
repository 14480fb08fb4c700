// Package editor ties an editing surface to the draft store.
package editor

// Editor is the minimum an editing surface must expose.
type Editor interface {
	Content() []byte
	SetContent([]byte)
}

// FieldsGetter is implemented by editors that carry auxiliary fields such as
// title or category. Without it only content is saved.
type FieldsGetter interface {
	Fields() map[string]any
}

// FieldsSetter is implemented by editors that can restore auxiliary fields.
// SetFields receives every stored field plus "id" and "content".
type FieldsSetter interface {
	SetFields(map[string]any)
}

// Funcs adapts plain functions to Editor. A nil GetFields or SetFields is
// treated as a missing accessor; a nil PutContent discards restored content.
type Funcs struct {
	GetContent func() []byte
	PutContent func([]byte)
	GetFields  func() map[string]any
	SetFields  func(map[string]any)
}

func (f Funcs) Content() []byte {
	if f.GetContent == nil {
		return nil
	}
	return f.GetContent()
}

func (f Funcs) SetContent(content []byte) {
	if f.PutContent != nil {
		f.PutContent(content)
	}
}

func fieldAccessors(ed Editor) (get func() map[string]any, set func(map[string]any)) {
	switch f := ed.(type) {
	case Funcs:
		return f.GetFields, f.SetFields
	case *Funcs:
		return f.GetFields, f.SetFields
	}

	if g, ok := ed.(FieldsGetter); ok {
		get = g.Fields
	}
	if s, ok := ed.(FieldsSetter); ok {
		set = s.SetFields
	}
	return get, set
}
