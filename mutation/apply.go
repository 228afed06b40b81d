package mutation

import (
	"github.com/zalando/scopedheaders/formatter"
	"github.com/zalando/scopedheaders/headers"
)

// Stats summarizes what applying a chain did.
type Stats struct {

	// Removed counts the removal names applied, whether or not the
	// header was present.
	Removed int

	// Added counts the header values added.
	Added int

	// Failed counts the entries omitted because their value could not
	// be formatted.
	Failed int
}

type failureFunc func(Scope, Entry, error)

// Apply applies the chain to h. For each scope, most specific first,
// the removals are applied and then the additions in declared order.
// An entry whose value cannot be formatted is omitted, the rest of the
// chain is still applied.
func Apply(c Chain, h headers.Container, ctx *formatter.Context) Stats {
	return apply(c, h, ctx, nil)
}

func apply(c Chain, h headers.Container, ctx *formatter.Context, failed failureFunc) Stats {
	var st Stats
	for i, s := range c {
		if s.Empty() {
			continue
		}

		for _, name := range s.removals {
			h.Del(name)
			st.Removed++
		}

		for _, e := range s.additions {
			v, err := e.Value.Resolve(ctx)
			if err != nil {
				st.Failed++
				if failed != nil {
					failed(Scope(i), e, err)
				}

				continue
			}

			if !e.Append {
				h.Del(e.Name)
			}

			h.Add(e.Name, v)
			st.Added++
		}
	}

	return st
}
