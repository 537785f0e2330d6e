package timeline

// An Action is a bound, zero-argument operation. Invoking it attempts a
// state mutation on whatever actuator it was bound to and reports failure
// through the returned error.
type Action interface {
	// Name identifies the bound actuator operation, mainly for logs.
	Name() string

	// Attempt performs the operation once.
	Attempt() error
}

type namedAction struct {
	name string
	fn   func() error
}

// NamedAction adapts a plain function to the Action interface.
func NamedAction(name string, fn func() error) Action {
	return &namedAction{name: name, fn: fn}
}

func (a *namedAction) Name() string { return a.name }

func (a *namedAction) Attempt() error { return a.fn() }
