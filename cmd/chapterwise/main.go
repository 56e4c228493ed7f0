// Command chapterwise translates e-books chapter by chapter with an LLM.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chapterwise/chapterwise"
	"github.com/chapterwise/chapterwise/backend"
	"github.com/chapterwise/chapterwise/extract"
	"github.com/chapterwise/chapterwise/langdetect"
	"github.com/chapterwise/chapterwise/store"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = chapterwise.Version
	commit    = chapterwise.GitCommit
	buildDate = chapterwise.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("chapterwise", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Flags
	targetLang := fs.String("lang", "", "Target language code (e.g., en, de, ja)")
	backendName := fs.String("backend", "ollama", "Backend: ollama or hosted")
	model := fs.String("model", "", "Model name (required for ollama)")
	host := fs.String("host", backend.DefaultOllamaHost, "Ollama server address")
	apiKey := fs.String("api-key", "", "Hosted API key (default: OPENAI_API_KEY env)")
	window := fs.Int("window", 50, "Sentences per translation window")
	overlap := fs.Int("overlap", 10, "Sentences shared between adjacent windows")
	singleWindow := fs.Bool("single-window", false, "Translate each chapter in one window")
	chapterFilter := fs.String("chapter", "", "Translate only the chapter with this title")
	output := fs.String("out", "", "Write translated book to this EPUB file")
	clean := fs.Bool("clean", false, "Strip code blocks and encoded noise before translating")
	listChapters := fs.Bool("list", false, "List chapters and exit")
	listModels := fs.Bool("models", false, "List local ollama models and exit")
	pullModel := fs.String("pull", "", "Pull an ollama model and exit")
	storeDir := fs.String("store-dir", "", "Session/glossary directory (default: ~/.chapterwise)")
	redisURL := fs.String("redis", "", "Use Redis for sessions instead of files (e.g., redis://localhost:6379)")
	fresh := fs.Bool("fresh", false, "Ignore any saved session and start over")
	temperature := fs.Float64("temperature", 0.4, "Sampling temperature")
	numCtx := fs.Int("num-ctx", 0, "Context window size passed to the model (0 = server default)")
	topK := fs.Int("top-k", 0, "Top-k sampling (0 = server default)")
	topP := fs.Float64("top-p", 0, "Top-p sampling (0 = server default)")
	rpm := fs.Int("rpm", 0, "Hosted backend requests per minute (0 = unlimited)")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", chapterwise.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	// Cancel on SIGINT. The flag is cooperative: the current sentence
	// finishes, then the run stops and the session is saved.
	ctrl := &chapterwise.Control{}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(stderr, "\ninterrupted, finishing current sentence...")
		ctrl.Cancel.Set()
	}()

	ctx := context.Background()

	// Model management modes short-circuit before any book is needed.
	if *listModels || *pullModel != "" {
		ob := backend.NewOllamaBackend(backend.OllamaConfig{Host: *host})
		if err := ob.EnsureRunning(ctx); err != nil {
			return err
		}
		if *pullModel != "" {
			return pull(ctx, ob, *pullModel, stderr, *quiet)
		}
		models, err := ob.Models(ctx)
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Fprintln(stdout, m)
		}
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("book file required")
	}
	bookPath := fs.Arg(0)

	chapters, err := extract.Chapters(bookPath)
	if err != nil {
		return err
	}

	if *listChapters {
		for i, ch := range chapters {
			fmt.Fprintf(stdout, "%3d. %s (%d chars)\n", i+1, ch.Title, len(ch.Text))
		}
		return nil
	}

	if *targetLang == "" {
		fs.Usage()
		return fmt.Errorf("-lang is required")
	}

	if *chapterFilter != "" {
		chapters = filterChapters(chapters, *chapterFilter)
		if len(chapters) == 0 {
			return fmt.Errorf("no chapter titled %q", *chapterFilter)
		}
	}

	// Source language is informational; detection failures never block a run.
	if !*quiet && len(chapters) > 0 {
		src := langdetect.Detect(chapters[0].Text)
		fmt.Fprintf(stderr, "Source language: %s\n", chapterwise.LanguageName(src))
	}

	st, err := openStore(*redisURL, *storeDir)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, *backendName, *model, *host, *apiKey, *rpm)
	if err != nil {
		return err
	}

	sess, err := loadSession(ctx, st, bookPath, b.Name(), *model, *targetLang, *fresh)
	if err != nil {
		return err
	}

	glossary, err := chapterwise.LoadGlossary(ctx, st, bookPath)
	if err != nil {
		return err
	}

	cfg := chapterwise.WindowConfig{
		Model:      *model,
		TargetLang: chapterwise.LanguageName(*targetLang),
		Window:     *window,
		Overlap:    *overlap,
		Options:    buildOptions(*temperature, *numCtx, *topK, *topP),
	}

	for _, ch := range chapters {
		if ctrl.Cancel.IsSet() {
			break
		}
		if sess.ChapterDone(ch.Title) {
			if !*quiet {
				fmt.Fprintf(stderr, "Skipping %q (already translated)\n", ch.Title)
			}
			continue
		}

		text := ch.Text
		if *clean {
			text = chapterwise.Clean(text)
		}

		sentences := chapterwise.Segment(text)
		if len(sentences) == 0 {
			sess.SetChapter(ch.Title, nil, nil)
			continue
		}

		chCfg := cfg
		if *singleWindow {
			chCfg.Window = len(sentences)
			chCfg.Overlap = 0
		}

		if !*quiet {
			fmt.Fprintf(stderr, "Translating %q (%d sentences)\n", ch.Title, len(sentences))
		}

		cb := &chapterwise.Callbacks{}
		if !*quiet {
			cb.Progress = func(fraction float64) {
				fmt.Fprintf(stderr, "\r  %3.0f%%", fraction*100)
			}
		}

		start := time.Now()
		result, err := chapterwise.TranslateWithContext(ctx, sentences, chCfg, b, glossary, cb, ctrl)
		if err != nil {
			return err
		}
		if !*quiet {
			fmt.Fprintf(stderr, "\r  done in %v\n", time.Since(start).Round(time.Second))
		}

		complete := len(result.Translations) == len(sentences)
		if complete {
			sess.SetChapter(ch.Title, result.Translations, result.Raw)
			for _, s := range sentences {
				sess.TotalChars += len(s)
			}
		}

		// Titles ride the same glossary; a partial chapter skips its title.
		if complete && !ctrl.Cancel.IsSet() {
			title, _, updates, err := chapterwise.TranslateTitle(ctx, ch.Title, chCfg, b, glossary, ctrl)
			if err == nil && title != ch.Title {
				sess.TranslatedTitles[ch.Title] = title
				glossary.Merge(updates)
			}
		}

		// Persist after every chapter so an interrupt never loses more than
		// the chapter in flight.
		if err := chapterwise.SaveSession(ctx, st, bookPath, sess); err != nil {
			return err
		}
		if err := chapterwise.SaveGlossary(ctx, st, bookPath, glossary); err != nil {
			return err
		}

		if !complete {
			break
		}
	}

	if *output != "" {
		if err := writeOutput(*output, bookPath, chapters, sess, *targetLang); err != nil {
			return err
		}
		if !*quiet {
			fmt.Fprintf(stderr, "Wrote %s\n", *output)
		}
	}

	if ctrl.Cancel.IsSet() {
		fmt.Fprintln(stderr, "Cancelled. Progress saved; rerun to resume.")
	}
	return nil
}

func pull(ctx context.Context, ob *backend.OllamaBackend, model string, stderr io.Writer, quiet bool) error {
	if ok, reason := ob.ModelSupported(model); !ok {
		return fmt.Errorf("cannot run %s: %s", model, reason)
	}

	var onProgress backend.PullProgressFunc
	if !quiet {
		onProgress = func(status string, completed, total int64) {
			if total > 0 {
				fmt.Fprintf(stderr, "\r%s %3.0f%%", status, float64(completed)/float64(total)*100)
			} else {
				fmt.Fprintf(stderr, "\r%s", status)
			}
		}
	}

	if err := ob.Pull(ctx, model, onProgress); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintln(stderr)
	}
	return nil
}

func openStore(redisURL, storeDir string) (chapterwise.SessionStore, error) {
	if redisURL != "" {
		return store.NewRedisStore(store.RedisConfig{URL: redisURL})
	}

	if storeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			storeDir = ".chapterwise"
		} else {
			storeDir = filepath.Join(home, ".chapterwise")
		}
	}
	return store.NewFileStore(storeDir)
}

func openBackend(ctx context.Context, name, model, host, apiKey string, rpm int) (chapterwise.Backend, error) {
	switch name {
	case "ollama":
		if model == "" {
			return nil, fmt.Errorf("-model is required for the ollama backend")
		}

		ob := backend.NewOllamaBackend(backend.OllamaConfig{Host: host})
		if err := ob.EnsureRunning(ctx); err != nil {
			return nil, err
		}

		if ok, reason := ob.ModelSupported(model); !ok {
			return nil, fmt.Errorf("cannot run %s: %s", model, reason)
		}
		has, err := ob.HasModel(ctx, model)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, fmt.Errorf("model %q not found locally; run with -pull %s first", model, model)
		}
		return ob, nil

	case "hosted":
		key := apiKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("hosted backend needs -api-key or OPENAI_API_KEY env")
		}

		hb := backend.NewHostedBackend(backend.HostedConfig{APIKey: key, Model: model})
		if rpm > 0 {
			return chapterwise.NewRateLimitedTranslator(hb, chapterwise.RateLimitConfig{RequestsPerMinute: rpm}), nil
		}
		return hb, nil

	default:
		return nil, fmt.Errorf("unknown backend %q (want ollama or hosted)", name)
	}
}

func loadSession(ctx context.Context, st chapterwise.SessionStore, bookPath, backendName, model, targetLang string, fresh bool) (*chapterwise.Session, error) {
	if !fresh {
		sess, err := chapterwise.LoadSession(ctx, st, bookPath)
		if err != nil {
			return nil, err
		}
		if sess != nil && sess.Matches(backendName, model, targetLang) {
			return sess, nil
		}
	}
	return chapterwise.NewSession(bookPath, backendName, model, targetLang), nil
}

func filterChapters(chapters []extract.Chapter, title string) []extract.Chapter {
	var out []extract.Chapter
	for _, ch := range chapters {
		if strings.EqualFold(ch.Title, title) {
			out = append(out, ch)
		}
	}
	return out
}

func buildOptions(temperature float64, numCtx, topK int, topP float64) *chapterwise.GenerateOptions {
	return &chapterwise.GenerateOptions{
		Temperature: temperature,
		NumCtx:      numCtx,
		TopK:        topK,
		TopP:        topP,
	}
}

// writeOutput exports the translated chapters as an EPUB, keeping the
// original text for any chapter not yet translated.
func writeOutput(output, bookPath string, chapters []extract.Chapter, sess *chapterwise.Session, targetLang string) error {
	out := make([]extract.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		if lines, ok := sess.Translations[ch.Title]; ok {
			out = append(out, extract.Chapter{
				Title: ch.Title,
				Text:  strings.Join(lines, "\n"),
			})
		} else {
			out = append(out, ch)
		}
	}

	return extract.WriteEPUB(output, extract.DefaultBookTitle(bookPath), out, sess.TranslatedTitles, targetLang)
}
