package livebind

// Directive is a value that takes control of the part it is bound to instead
// of being rendered as data. Resolve receives the live part and returns the
// value to render in its place, which may itself be a Directive, or NoChange
// when the directive has already updated the part.
type Directive interface {
	Resolve(part Part) (any, error)
}

// DirectiveFunc adapts a function to the Directive interface.
type DirectiveFunc func(part Part) (any, error)

// Resolve calls f(part).
func (f DirectiveFunc) Resolve(part Part) (any, error) {
	return f(part)
}

// NewDirective marks fn as a directive.
func NewDirective(fn func(part Part) (any, error)) Directive {
	return DirectiveFunc(fn)
}

type noChange struct{}

// NoChange tells a part to leave its current content alone.
var NoChange any = noChange{}

const maxDirectiveDepth = 32

// resolveDirectives unwraps v until it is no longer a Directive.
func resolveDirectives(part Part, v any) (any, error) {
	for depth := 0; ; depth++ {
		d, ok := v.(Directive)
		if !ok {
			return v, nil
		}
		if depth == maxDirectiveDepth {
			return nil, newDirectiveDepthError()
		}
		var err error
		if v, err = d.Resolve(part); err != nil {
			return nil, err
		}
	}
}
