package ingestkit

import (
	"strings"

	"github.com/gobeaver/ingestkit/mediatype"
)

// acceptance decides whether a detected media type may be ingested. An empty
// accepted list admits everything.
type acceptance struct {
	registry *mediatype.Registry
	accepted []mediatype.MediaType
}

// allows reports whether mt, detected for the document called name, matches
// one of the accepted types. A generic sniff such as a plain zip is admitted
// for a corresponding specific type only when the name carries that type's
// extension.
func (a acceptance) allows(mt mediatype.MediaType, name string) bool {
	if len(a.accepted) == 0 {
		return true
	}
	for _, accepted := range a.accepted {
		if matchesWildcard(accepted, mt) {
			return true
		}
		if a.registry.Corresponds(accepted, mt) && a.registry.Accepts(accepted, name) {
			return true
		}
	}
	return false
}

// matchesWildcard handles exact matches plus "*/*" and "image/*".
func matchesWildcard(accepted, mt mediatype.MediaType) bool {
	if accepted.Equal(mt) {
		return true
	}
	if accepted.Subtype != "*" {
		return false
	}
	return accepted.Type == "*" || strings.EqualFold(accepted.Type, mt.Type)
}

// acceptedTypes lists what the check admits, for error messages.
func (a acceptance) acceptedTypes() string {
	names := make([]string, len(a.accepted))
	for i, mt := range a.accepted {
		names[i] = mt.String()
	}
	return strings.Join(names, ", ")
}
