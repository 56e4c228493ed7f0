// Package chapterwise provides a context-windowed book translation engine.
//
// Chapterwise translates long chapters sentence by sentence through a local
// generation server (Ollama) or a hosted model, keeping character and place
// names consistent across a whole book via an evolving glossary. Chapters are
// split into sentences, batched into overlapping windows so the model sees a
// little of the prior text, and reassembled in order with first-window-wins
// deduplication of the overlap.
//
// Basic usage:
//
//	b := backend.NewOllamaBackend(backend.OllamaConfig{})
//	glossary := chapterwise.NewGlossary()
//
//	sentences := chapterwise.Segment(chapterText)
//	result, err := chapterwise.TranslateWithContext(context.Background(), sentences,
//	    chapterwise.WindowConfig{Model: "qwen:7b", TargetLang: "German", Window: 50, Overlap: 10},
//	    b, glossary, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(strings.Join(result.Translations, " "))
package chapterwise
