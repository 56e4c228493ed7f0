// Package backend provides translation backend implementations.
//
// Two families exist. OllamaBackend talks to a local generation server and
// speaks the marker protocol built by the root package; it supports
// streaming, model listing and pulls. HostedBackend calls a hosted chat
// completion API one sentence at a time with no marker scaffolding.
//
// The root package discovers what a backend can do by type assertion, so a
// backend only implements the interfaces it genuinely supports.
package backend

import (
	"github.com/chapterwise/chapterwise"
)

// Re-exported interfaces for callers that only import this package.
type (
	Backend            = chapterwise.Backend
	Generator          = chapterwise.Generator
	StreamingGenerator = chapterwise.StreamingGenerator
	DirectTranslator   = chapterwise.DirectTranslator
)
