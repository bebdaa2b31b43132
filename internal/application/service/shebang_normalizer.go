package service

import (
	"fmt"
	"strings"

	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
)

const directivePrefix = "#!"

// ShebangNormalizer makes sure a script starts with an interpreter directive
type ShebangNormalizer struct {
	resolver *ContentTypeResolver
	scripts  output.ScriptRepository
}

// NewShebangNormalizer creates a normalizer
func NewShebangNormalizer(resolver *ContentTypeResolver, scripts output.ScriptRepository) *ShebangNormalizer {
	return &ShebangNormalizer{resolver: resolver, scripts: scripts}
}

// Normalize returns body with a directive prepended when the path maps to a
// known interpreter and body has none. A body that already starts with "#!"
// is returned unchanged.
func (n *ShebangNormalizer) Normalize(path, body string) (string, bool) {
	if strings.HasPrefix(body, directivePrefix) {
		return body, false
	}
	shebang, ok := n.resolver.Shebang(path)
	if !ok {
		return body, false
	}
	return shebang + "\n" + body, true
}

// Apply normalizes body and rewrites the file when a directive was added.
// It returns the body now on disk.
func (n *ShebangNormalizer) Apply(path, body string) (string, bool, error) {
	normalized, changed := n.Normalize(path, body)
	if !changed {
		return body, false, nil
	}
	if err := n.scripts.Save(path, normalized); err != nil {
		return body, false, fmt.Errorf("failed to add interpreter directive: %w", err)
	}
	return normalized, true, nil
}

// EnsureShebang loads the file and applies the directive in place
func (n *ShebangNormalizer) EnsureShebang(path string) (string, bool, error) {
	body, err := n.scripts.Load(path)
	if err != nil {
		return "", false, err
	}
	return n.Apply(path, body)
}
