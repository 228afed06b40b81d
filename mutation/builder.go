package mutation

// Builder creates specs with a fluent API. The first error is kept and
// returned by Build.
//
//	spec, err := mutation.NewBuilder().
//		Remove("x-internal").
//		Append("x-route", "route").
//		Replace("x-upstream-zone", `%UPSTREAM_METADATA(["envoy.lb","zone"])%`).
//		Build()
type Builder struct {
	additions []Entry
	removals  []string
	err       error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add adds a header with the given append policy.
func (b *Builder) Add(name, value string, appendValue bool) *Builder {
	if b.err != nil {
		return b
	}

	e, err := NewEntry(name, value, appendValue)
	if err != nil {
		b.err = err
		return b
	}

	b.additions = append(b.additions, e)
	return b
}

// Append adds a header value next to the existing ones.
func (b *Builder) Append(name, value string) *Builder {
	return b.Add(name, value, true)
}

// Replace adds a header value replacing the existing ones.
func (b *Builder) Replace(name, value string) *Builder {
	return b.Add(name, value, false)
}

// Remove adds header names to remove.
func (b *Builder) Remove(names ...string) *Builder {
	b.removals = append(b.removals, names...)
	return b
}

// Build creates the spec.
func (b *Builder) Build() (*Spec, error) {
	if b.err != nil {
		return nil, b.err
	}

	return NewSpec(b.additions, b.removals)
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Spec {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}

	return s
}
