package headers

import (
	"net/http"
	"sort"
	"strings"
)

type httpHeader http.Header

// HTTP wraps an http.Header as a Container. Values are added under the
// canonical key. Lookups and removals also match keys that were stored
// in non-canonical form, e.g. by assigning to the map directly. A nil
// header can be read and deleted from, but Add requires a non-nil one.
func HTTP(h http.Header) Container { return httpHeader(h) }

func (h httpHeader) Values(name string) []string {
	canonical := http.CanonicalHeaderKey(name)
	values := append([]string(nil), h[canonical]...)
	for _, k := range h.variants(name, canonical) {
		values = append(values, h[k]...)
	}

	return values
}

// Add merges the values stored under non-canonical keys into the
// canonical key before appending, so that the order of Values is kept.
func (h httpHeader) Add(name, value string) {
	canonical := http.CanonicalHeaderKey(name)
	for _, k := range h.variants(name, canonical) {
		h[canonical] = append(h[canonical], h[k]...)
		delete(h, k)
	}

	h[canonical] = append(h[canonical], value)
}

func (h httpHeader) Del(name string) {
	canonical := http.CanonicalHeaderKey(name)
	for _, k := range h.variants(name, canonical) {
		delete(h, k)
	}

	delete(h, canonical)
}

// variants returns the keys other than the canonical one that match
// name, sorted for a stable value order.
func (h httpHeader) variants(name, canonical string) []string {
	var keys []string
	for k := range h {
		if k != canonical && strings.EqualFold(k, name) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)
	return keys
}
