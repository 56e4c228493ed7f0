package chapterwise

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeGen is a scripted prompt-driven backend. It extracts the tagged
// sentence from the end of the prompt and hands it to respond together with
// the 1-based call number.
type fakeGen struct {
	respond func(call int, tagged string) string
	calls   int
	prompts []string
	err     error
	errAt   int // 1-based call at which to return err
}

func echoMarked(call int, tagged string) string {
	return StartMark + tagged + EndMark
}

func taggedSentence(prompt string) string {
	if i := strings.LastIndex(prompt, "\n"); i >= 0 {
		return prompt[i+1:]
	}
	return prompt
}

func (g *fakeGen) Name() string { return "fake" }

func (g *fakeGen) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, req.Prompt)
	if g.errAt != 0 && g.calls == g.errAt {
		return "", g.err
	}
	respond := g.respond
	if respond == nil {
		respond = echoMarked
	}
	return respond(g.calls, taggedSentence(req.Prompt)), nil
}

// fakeStream adds chunked streaming on top of fakeGen.
type fakeStream struct {
	fakeGen
	chunkSize int
}

func (g *fakeStream) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(delta string) error) (string, error) {
	full, err := g.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	size := g.chunkSize
	if size <= 0 {
		size = 5
	}
	for i := 0; i < len(full); i += size {
		end := i + size
		if end > len(full) {
			end = len(full)
		}
		if err := onDelta(full[i:end]); err != nil {
			return full[:end], err
		}
	}
	return full, nil
}

func TestTranslateBatch(t *testing.T) {
	gen := &fakeGen{}
	inv := &Invoker{Backend: gen, Model: "m", TargetLang: "German"}

	batch, err := inv.TranslateBatch(context.Background(), []string{"One.", "Two."}, NewGlossary(), nil, nil)
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if len(batch.Translations) != 2 {
		t.Fatalf("got %d translations", len(batch.Translations))
	}
	if batch.Translations[0] != "One." || batch.Translations[1] != "Two." {
		t.Errorf("translations = %#v", batch.Translations)
	}
	if !strings.Contains(batch.Raw[0], StartMark) {
		t.Errorf("raw should keep the unparsed response: %q", batch.Raw[0])
	}
}

func TestTranslateBatchPromptContents(t *testing.T) {
	gen := &fakeGen{}
	inv := &Invoker{Backend: gen, Model: "m", TargetLang: "German"}

	glossary := NewGlossary()
	glossary.Set("Aria", "Arja")

	if _, err := inv.TranslateBatch(context.Background(), []string{"Aria speaks."}, glossary, nil, nil); err != nil {
		t.Fatal(err)
	}

	prompt := gen.prompts[0]
	for _, want := range []string{"German", StartMark, EndMark, GlossaryStartMark, GlossaryEndMark, "Aria -> Arja", "Aria speaks."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestTranslateBatchGlossaryUpdates(t *testing.T) {
	gen := &fakeGen{respond: func(call int, tagged string) string {
		return StartMark + tagged + EndMark +
			GlossaryStartMark + "\nFrostpeak -> Frostgipfel\n" + GlossaryEndMark
	}}
	inv := &Invoker{Backend: gen, TargetLang: "German"}

	batch, err := inv.TranslateBatch(context.Background(), []string{"A thing.", "B thing."}, NewGlossary(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The same discovery from both sentences collapses to one update.
	if len(batch.Updates) != 1 || batch.Updates[0].Source != "Frostpeak" {
		t.Errorf("updates = %#v", batch.Updates)
	}
}

func TestTranslateBatchCancelMidBatch(t *testing.T) {
	ctrl := &Control{}
	gen := &fakeGen{respond: func(call int, tagged string) string {
		if call == 2 {
			ctrl.Cancel.Set()
		}
		return echoMarked(call, tagged)
	}}
	inv := &Invoker{Backend: gen, TargetLang: "German"}

	batch, err := inv.TranslateBatch(context.Background(), []string{"A.", "B.", "C.", "D."}, NewGlossary(), nil, ctrl)
	if err != nil {
		t.Fatalf("cancellation must not be an error: %v", err)
	}
	// Cancel raised during call 2 is observed before call 3.
	if len(batch.Translations) != 2 {
		t.Errorf("got %d translations, want the completed prefix of 2", len(batch.Translations))
	}
}

func TestTranslateBatchBackendErrorAborts(t *testing.T) {
	wantErr := &BackendError{Backend: "fake", Message: "connection reset"}
	gen := &fakeGen{err: wantErr, errAt: 2}
	inv := &Invoker{Backend: gen, TargetLang: "German"}

	_, err := inv.TranslateBatch(context.Background(), []string{"A.", "B.", "C."}, NewGlossary(), nil, nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want the backend error", err)
	}
}

func TestTranslateBatchNonStreamingToken(t *testing.T) {
	gen := &fakeGen{}
	inv := &Invoker{Backend: gen, TargetLang: "German"}

	var got []string
	onToken := func(index int, partial string) {
		got = append(got, fmt.Sprintf("%d:%s", index, partial))
	}

	if _, err := inv.TranslateBatch(context.Background(), []string{"A.", "B."}, NewGlossary(), onToken, nil); err != nil {
		t.Fatal(err)
	}
	// Without streaming support each sentence yields exactly one callback
	// with the finished translation.
	want := []string{"0:A.", "1:B."}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("tokens = %#v, want %#v", got, want)
	}
}

func TestTranslateBatchStreamingToken(t *testing.T) {
	gen := &fakeStream{chunkSize: 4}
	inv := &Invoker{Backend: gen, TargetLang: "German"}

	var partials []string
	onToken := func(index int, partial string) {
		if index != 0 {
			t.Errorf("index = %d, want 0", index)
		}
		partials = append(partials, partial)
	}

	batch, err := inv.TranslateBatch(context.Background(), []string{"Hello there."}, NewGlossary(), onToken, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(partials) < 2 {
		t.Fatalf("expected multiple streamed partials, got %#v", partials)
	}
	// Once the end marker arrives the partial settles on the payload.
	final := partials[len(partials)-1]
	if final != "Hello there." {
		t.Errorf("final partial = %q", final)
	}
	if batch.Translations[0] != "Hello there." {
		t.Errorf("translation = %q", batch.Translations[0])
	}
}

func TestTranslateBatchDirectPath(t *testing.T) {
	inv := &Invoker{Backend: stubDirect{}, Model: "m", TargetLang: "de"}

	batch, err := inv.TranslateBatch(context.Background(), []string{"hello"}, NewGlossary(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Translations[0] != "de:hello" {
		t.Errorf("translation = %q", batch.Translations[0])
	}
	if batch.Raw[0] != batch.Translations[0] {
		t.Error("direct path output doubles as raw text")
	}
	if batch.Updates != nil {
		t.Error("direct path learns no glossary terms")
	}
}

type nameOnlyBackend struct{}

func (nameOnlyBackend) Name() string { return "inert" }

func TestTranslateBatchUnsupportedBackend(t *testing.T) {
	inv := &Invoker{Backend: nameOnlyBackend{}}
	_, err := inv.TranslateBatch(context.Background(), []string{"x"}, NewGlossary(), nil, nil)
	var terr *TranslationError
	if !errors.As(err, &terr) {
		t.Errorf("err = %v, want TranslationError", err)
	}
}

func TestTranslateTitle(t *testing.T) {
	gen := &fakeGen{respond: func(call int, tagged string) string {
		return TitleStartMark + "Der Turm" + TitleEndMark
	}}

	title, raw, updates, err := TranslateTitle(context.Background(), "The Tower",
		WindowConfig{TargetLang: "German"}, gen, NewGlossary(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if title != "Der Turm" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(raw, TitleStartMark) {
		t.Errorf("raw = %q", raw)
	}
	if updates != nil {
		t.Errorf("updates = %#v", updates)
	}
	if !strings.Contains(gen.prompts[0], TitleStartMark) {
		t.Error("title prompt should use the title marker pair")
	}
}

func TestTranslateTitleCancelled(t *testing.T) {
	ctrl := &Control{}
	ctrl.Cancel.Set()

	gen := &fakeGen{}
	title, _, _, err := TranslateTitle(context.Background(), "The Tower",
		WindowConfig{TargetLang: "German"}, gen, NewGlossary(), ctrl)
	if err != nil {
		t.Fatal(err)
	}
	if title != "The Tower" {
		t.Errorf("cancelled title = %q, want the original back", title)
	}
	if gen.calls != 0 {
		t.Errorf("backend was called %d times", gen.calls)
	}
}
