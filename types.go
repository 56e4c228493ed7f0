package chapterwise

import "context"

// Marker literals embedded in backend prompts and responses. The parser only
// recognises payloads delimited by the exact strings the prompt asked for.
const (
	StartMark         = "<<<START>>>"
	EndMark           = "<<<END>>>"
	TitleStartMark    = "<<<TITLE_START>>>"
	TitleEndMark      = "<<<TITLE_END>>>"
	GlossaryStartMark = "<<<GLOSSARY_START>>>"
	GlossaryEndMark   = "<<<GLOSSARY_END>>>"
)

// Markers is a start/end delimiter pair for translation extraction.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers returns the marker pair for body text.
func DefaultMarkers() Markers {
	return Markers{Start: StartMark, End: EndMark}
}

// TitleMarkers returns the marker pair for chapter titles.
func TitleMarkers() Markers {
	return Markers{Start: TitleStartMark, End: TitleEndMark}
}

// Term is a single glossary entry: a source-language term and its fixed
// target-language translation.
type Term struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GenerateOptions are sampling parameters forwarded to the generation server.
// A nil *GenerateOptions omits the options payload entirely.
type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	MinP        float64 `json:"min_p"`
}

// GenerateRequest is a single prompt sent to a prompt-driven backend.
type GenerateRequest struct {
	Model   string
	Prompt  string
	Options *GenerateOptions
}

// Backend is the minimal surface shared by all translation backends.
// Concrete capabilities are discovered by type assertion: a backend that
// implements Generator speaks the marker protocol, a StreamingGenerator
// additionally delivers partial output, and a DirectTranslator bypasses the
// prompt scaffolding entirely.
type Backend interface {
	Name() string
}

// Generator is a prompt-driven backend. The prompt embeds the glossary, the
// marker pairs and the sentence text; the response is free-form model output
// that the caller decodes with ParseResponse.
type Generator interface {
	Backend
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// StreamingGenerator is a Generator that can deliver the response as
// incremental deltas. onDelta is invoked for every partial chunk; returning
// an error from onDelta aborts the stream. The full accumulated response is
// returned either way.
type StreamingGenerator interface {
	Generator
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(delta string) error) (string, error)
}

// DirectTranslator is a hosted translation model invoked with a bare
// sentence: no glossary, no markers, no streaming. Its output is both the
// cleaned and the raw text.
type DirectTranslator interface {
	Backend
	TranslateSentence(ctx context.Context, sentence, model, targetLang string) (string, error)
}

// TokenFunc receives streamed partial output for the sentence at the given
// absolute index. The text is the currently decodable translation prefix,
// already stripped of markers.
type TokenFunc func(index int, partial string)

// ProgressFunc receives a monotonically non-decreasing fraction in [0, 1]
// after each completed window.
type ProgressFunc func(fraction float64)

// Callbacks bundles the optional observer hooks of a translation run.
// Either field may be nil.
type Callbacks struct {
	Progress ProgressFunc
	Token    TokenFunc
}

// WindowConfig configures a windowed translation run.
type WindowConfig struct {
	Model      string
	TargetLang string
	Window     int     // sentences per window (default 50)
	Overlap    int     // sentences shared with the previous window (default 10)
	Options    *GenerateOptions
	Markers    Markers // zero value means DefaultMarkers
}

func (c WindowConfig) withDefaults() WindowConfig {
	if c.Window <= 0 {
		c.Window = 50
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.Markers == (Markers{}) {
		c.Markers = DefaultMarkers()
	}
	return c
}

// Result is the output of a windowed translation run. When the run was
// cancelled the slices hold the completed prefix only; otherwise they align
// 1:1 with the input sentences.
type Result struct {
	Translations []string
	Raw          []string
	Updates      []Term
}

// BatchResult is the output of one backend batch. A shorter-than-input
// result with a nil error signals cooperative cancellation.
type BatchResult struct {
	Translations []string
	Raw          []string
	Updates      []Term
}
