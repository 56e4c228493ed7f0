package chapterwise

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// indexTag strips the injected "[12] " position prefix from backend output.
var indexTag = regexp.MustCompile(`^\[\d+\]\s*`)

func stripIndexTag(s string) string {
	return strings.TrimSpace(indexTag.ReplaceAllString(s, ""))
}

// TranslateWithContext translates sentences while keeping cross-sentence
// context intact. It processes a fixed-size slice of the input and then moves
// the window forward by window-overlap sentences, so each window sees a
// little of the prior text and repeated phrases are less likely to appear.
//
// Each sentence in a window is tagged with its absolute index ("[i] text")
// so the backend's free-form output can be re-correlated positionally; the
// tag is stripped again on the way out. Overlapped sentences are translated
// redundantly and the first window's result wins, since it had the most
// leading context. Glossary updates from each window are merged into the glossary
// before the next window starts, so later windows observe earlier
// discoveries; the merged update set is also returned for the caller's
// persistent glossary.
//
// Cancellation is not an error: the returned Result holds the completed
// prefix. Windows are processed strictly sequentially; glossary causality
// forbids parallelism here.
func TranslateWithContext(ctx context.Context, sentences []string, cfg WindowConfig, b Backend, glossary *Glossary, cb *Callbacks, ctrl *Control) (*Result, error) {
	cfg = cfg.withDefaults()
	if len(sentences) == 0 {
		return &Result{}, nil
	}
	if glossary == nil {
		glossary = NewGlossary()
	}

	step := cfg.Window - cfg.Overlap
	if step < 1 {
		step = 1
	}
	total := len(sentences)

	inv := &Invoker{
		Backend:    b,
		Model:      cfg.Model,
		TargetLang: cfg.TargetLang,
		Options:    cfg.Options,
		Markers:    cfg.Markers,
	}

	translated := make(map[int]string)
	rawByIndex := make(map[int]string)
	var runUpdates []Term

	for start := 0; start < total; start += step {
		if ctrl.cancelled(ctx) {
			break
		}
		if ctrl.waitWhilePaused(ctx) {
			break
		}

		end := start + cfg.Window
		if end > total {
			end = total
		}
		window := make([]string, 0, end-start)
		for i, s := range sentences[start:end] {
			window = append(window, fmt.Sprintf("[%d] %s", start+i, s))
		}

		// The backend only sees window-local indices; rewrite them back to
		// absolute sentence indices before forwarding.
		var onToken TokenFunc
		if cb != nil && cb.Token != nil {
			base := start
			onToken = func(local int, text string) {
				cb.Token(base+local, text)
			}
		}

		batch, err := inv.TranslateBatch(ctx, window, glossary, onToken, ctrl)
		if err != nil {
			return nil, err
		}

		for local, out := range batch.Translations {
			abs := start + local
			if _, done := translated[abs]; done {
				continue
			}
			translated[abs] = glossary.Apply(stripIndexTag(out))
			rawByIndex[abs] = batch.Raw[local]
		}
		runUpdates = append(runUpdates, glossary.Merge(batch.Updates)...)

		processed := start + step
		if processed > total {
			processed = total
		}
		if cb != nil && cb.Progress != nil {
			cb.Progress(float64(processed) / float64(total))
		}
	}

	// Assemble the contiguous completed prefix; cancellation may leave gaps
	// past it.
	result := &Result{Updates: runUpdates}
	for i := 0; i < total; i++ {
		out, ok := translated[i]
		if !ok {
			break
		}
		result.Translations = append(result.Translations, out)
		result.Raw = append(result.Raw, rawByIndex[i])
	}
	return result, nil
}
