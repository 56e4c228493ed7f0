package chapterwise

import (
	"context"
	"fmt"
)

// promptTemplate is the instruction wrapper around every translated unit.
// It embeds the glossary, the marker pairs and the target language so the
// response can be decoded by ParseResponse.
const promptTemplate = "You are an expert literary translator. Your goal is to produce fluent, natural prose " +
	"in the target language while preserving tone. Use the glossary consistently. Avoid adding " +
	"explanations. Use double line breaks between paragraphs.\n" +
	"--- Glossary ---\n%s\n---\n" +
	"Translate the text to %s. Place your translation between %s and %s. " +
	"After that, list any new names or terms as 'source -> translation' between %s and %s.\n%s"

// BuildPrompt assembles the backend request for one sentence or title,
// embedding the current glossary snapshot.
func BuildPrompt(text, targetLang string, glossary *Glossary, m Markers) string {
	return fmt.Sprintf(promptTemplate,
		glossary.Lines(), targetLang,
		m.Start, m.End,
		GlossaryStartMark, GlossaryEndMark,
		text)
}

// Invoker drives one backend over a batch of sentences, one request per
// sentence, honouring the cancel and pause flags between units of work.
type Invoker struct {
	Backend    Backend
	Model      string
	TargetLang string
	Options    *GenerateOptions
	Markers    Markers // zero value means DefaultMarkers
}

func (inv *Invoker) markers() Markers {
	if inv.Markers == (Markers{}) {
		return DefaultMarkers()
	}
	return inv.Markers
}

// TranslateBatch translates the sentences in input order and returns one
// output triple element per completed sentence.
//
// Per sentence: a raised cancel flag stops the batch immediately and the
// partial result is returned with a nil error; a raised pause flag blocks,
// polling, until cleared or cancelled. A backend transport failure aborts
// the whole batch with an error; it is fatal for the run, not a retry
// candidate. Glossary updates are validated against the glossary snapshot
// and accumulated across the batch.
func (inv *Invoker) TranslateBatch(ctx context.Context, sentences []string, glossary *Glossary, onToken TokenFunc, ctrl *Control) (*BatchResult, error) {
	if direct, ok := inv.Backend.(DirectTranslator); ok {
		return inv.translateDirect(ctx, direct, sentences, ctrl)
	}
	gen, ok := inv.Backend.(Generator)
	if !ok {
		return nil, &TranslationError{Message: fmt.Sprintf("backend %q supports neither generation nor direct translation", inv.Backend.Name())}
	}

	m := inv.markers()
	result := &BatchResult{}
	seen := make(map[string]int)

	streamer, canStream := inv.Backend.(StreamingGenerator)
	for idx, sentence := range sentences {
		if ctrl.cancelled(ctx) {
			break
		}
		if ctrl.waitWhilePaused(ctx) {
			break
		}

		req := GenerateRequest{
			Model:   inv.Model,
			Prompt:  BuildPrompt(sentence, inv.TargetLang, glossary, m),
			Options: inv.Options,
		}

		var raw string
		var err error
		if onToken != nil && canStream {
			var buf []byte
			raw, err = streamer.GenerateStream(ctx, req, func(delta string) error {
				buf = append(buf, delta...)
				onToken(idx, PruneMarked(string(buf), m))
				return nil
			})
		} else {
			raw, err = gen.Generate(ctx, req)
		}
		if err != nil {
			return nil, err
		}

		cleaned, updates := ParseResponse(raw, glossary, m)
		if onToken != nil && !canStream {
			onToken(idx, cleaned)
		}
		result.Translations = append(result.Translations, cleaned)
		result.Raw = append(result.Raw, raw)
		result.Updates = mergeBatchTerms(result.Updates, seen, updates)
	}
	return result, nil
}

// translateDirect is the hosted-model path: one blocking call per sentence,
// no prompt scaffolding, no glossary learning, output doubles as raw text.
func (inv *Invoker) translateDirect(ctx context.Context, direct DirectTranslator, sentences []string, ctrl *Control) (*BatchResult, error) {
	result := &BatchResult{}
	for _, sentence := range sentences {
		if ctrl.cancelled(ctx) {
			break
		}
		if ctrl.waitWhilePaused(ctx) {
			break
		}
		out, err := direct.TranslateSentence(ctx, sentence, inv.Model, inv.TargetLang)
		if err != nil {
			return nil, err
		}
		result.Translations = append(result.Translations, out)
		result.Raw = append(result.Raw, out)
	}
	return result, nil
}

// mergeBatchTerms accumulates updates across a batch with map-assignment
// semantics: a rediscovered term keeps its first position, the later target
// wins. First-writer-wins against the glossary itself happens later, in
// Glossary.Merge.
func mergeBatchTerms(terms []Term, seen map[string]int, updates []Term) []Term {
	for _, t := range updates {
		if i, ok := seen[t.Source]; ok {
			terms[i].Target = t.Target
			continue
		}
		seen[t.Source] = len(terms)
		terms = append(terms, t)
	}
	return terms
}

// TranslateTitle translates a single chapter title using the title marker
// pair. On cancellation the original title is returned unchanged. The
// returned updates have already been validated but not merged.
func TranslateTitle(ctx context.Context, title string, cfg WindowConfig, b Backend, glossary *Glossary, ctrl *Control) (translated, raw string, updates []Term, err error) {
	inv := &Invoker{
		Backend:    b,
		Model:      cfg.Model,
		TargetLang: cfg.TargetLang,
		Options:    cfg.Options,
		Markers:    TitleMarkers(),
	}
	batch, err := inv.TranslateBatch(ctx, []string{title}, glossary, nil, ctrl)
	if err != nil {
		return title, title, nil, err
	}
	if len(batch.Translations) == 0 {
		return title, title, nil, nil
	}
	return batch.Translations[0], batch.Raw[0], batch.Updates, nil
}
