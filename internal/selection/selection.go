// Package selection implements the topic selection algebra (component A):
// the add/remove operations a caller uses to restrict playback to a subset
// of a log's topics, combined with the catalog-defaulting rule that governs
// what plays when no selection has ever been made.
package selection

import (
	"fmt"
	"regexp"

	"github.com/darkden-lab/logplay/internal/catalog"
	"github.com/darkden-lab/logplay/internal/diag"
)

var log = diag.New("selection")

// Selection is the user-declared set of topics to replay. The zero value is
// ready to use and defaults to "all topics in the catalog".
type Selection struct {
	explicit bool
	names    map[string]struct{}
}

// New returns an empty, non-explicit Selection.
func New() *Selection {
	return &Selection{names: make(map[string]struct{})}
}

// Explicit reports whether any add/remove operation has ever been invoked.
func (s *Selection) Explicit() bool {
	return s.explicit
}

// AddName inserts name into the selection if it is present in cat. It always
// marks the selection explicit, even on failure, because calling it at all
// expresses the caller's intent to explicitly choose topics.
func (s *Selection) AddName(cat catalog.Catalog, name string) bool {
	s.explicit = true

	if !cat.Has(name) {
		log.Warnf("topic %q is not in the catalog", name)
		return false
	}

	s.names[name] = struct{}{}
	return true
}

// AddPattern inserts every topic in cat whose full name matches pattern
// (whole-string match, Go regexp RE2 syntax; ECMAScript-only constructs such
// as backreferences and lookaround are rejected as invalid) and returns the
// number of matches.
// Returns (-1, err) if pattern fails to compile.
func (s *Selection) AddPattern(cat catalog.Catalog, pattern string) (int, error) {
	s.explicit = true

	re, err := compileAnchored(pattern)
	if err != nil {
		return -1, err
	}

	count := 0
	for _, topic := range cat.Topics() {
		if re.MatchString(topic) {
			s.names[topic] = struct{}{}
			count++
		}
	}
	return count, nil
}

// RemoveName first materializes the catalog-default into names if the
// selection has never been made explicit, then removes name. Returns true
// iff something was removed.
func (s *Selection) RemoveName(cat catalog.Catalog, name string) bool {
	s.defaultToAll(cat)

	if _, ok := s.names[name]; !ok {
		return false
	}
	delete(s.names, name)
	return true
}

// RemovePattern first materializes the catalog-default into names if the
// selection has never been made explicit, then removes every topic whose
// full name matches pattern. Returns the number removed.
func (s *Selection) RemovePattern(cat catalog.Catalog, pattern string) (int, error) {
	s.defaultToAll(cat)

	re, err := compileAnchored(pattern)
	if err != nil {
		return -1, err
	}

	count := 0
	for topic := range s.names {
		if re.MatchString(topic) {
			delete(s.names, topic)
			count++
		}
	}
	return count, nil
}

// Resolve returns the effective topic set: every topic in cat if the
// selection was never made explicit, or exactly names otherwise.
func (s *Selection) Resolve(cat catalog.Catalog) map[string]struct{} {
	if !s.explicit {
		resolved := make(map[string]struct{}, len(cat))
		for _, topic := range cat.Topics() {
			resolved[topic] = struct{}{}
		}
		return resolved
	}

	resolved := make(map[string]struct{}, len(s.names))
	for name := range s.names {
		resolved[name] = struct{}{}
	}
	return resolved
}

// defaultToAll implements the §3 "default-to-all on first remove" rule: if
// the selection has never been made explicit, it is first populated with
// every catalog topic before the removal that triggered this call proceeds.
func (s *Selection) defaultToAll(cat catalog.Catalog) {
	if s.explicit {
		return
	}

	for _, topic := range cat.Topics() {
		s.names[topic] = struct{}{}
	}
	s.explicit = true
}

// compileAnchored wraps pattern in a non-capturing group anchored at both
// ends so that regexp's partial-match semantics emulate ECMAScript's
// std::regex_match whole-string semantics.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(fmt.Sprintf("^(?:%s)$", pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid topic pattern %q: %w", pattern, err)
	}
	return re, nil
}
