package extract

import (
	"path/filepath"
	"strings"
	"testing"
)

func writeTestEPUB(t *testing.T, titles map[string]string) string {
	t.Helper()

	chapters := []Chapter{
		{Title: "Chapter 1", Text: "First line.\nSecond line."},
		{Title: "Chapter 2", Text: "Another chapter & more."},
	}

	path := filepath.Join(t.TempDir(), "out.epub")
	if err := WriteEPUB(path, "Test Book", chapters, titles, "de"); err != nil {
		t.Fatalf("WriteEPUB: %v", err)
	}
	return path
}

func TestEPUBRoundTrip(t *testing.T) {
	path := writeTestEPUB(t, nil)

	chapters, err := Chapters(path)
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters", len(chapters))
	}

	if chapters[0].Title != "Chapter 1" {
		t.Errorf("title 0 = %q", chapters[0].Title)
	}
	if !strings.Contains(chapters[0].Text, "First line.") ||
		!strings.Contains(chapters[0].Text, "Second line.") {
		t.Errorf("chapter 0 text = %q", chapters[0].Text)
	}
	// Newlines between block elements survive.
	if !strings.Contains(chapters[0].Text, "First line.\nSecond line.") {
		t.Errorf("line break lost: %q", chapters[0].Text)
	}
	// HTML escaping round-trips.
	if !strings.Contains(chapters[1].Text, "Another chapter & more.") {
		t.Errorf("chapter 1 text = %q", chapters[1].Text)
	}
}

func TestEPUBTranslatedTitles(t *testing.T) {
	path := writeTestEPUB(t, map[string]string{"Chapter 1": "Kapitel 1"})

	chapters, err := Chapters(path)
	if err != nil {
		t.Fatal(err)
	}
	if chapters[0].Title != "Kapitel 1" {
		t.Errorf("title 0 = %q, want the translated title", chapters[0].Title)
	}
	if chapters[1].Title != "Chapter 2" {
		t.Errorf("title 1 = %q, untranslated titles pass through", chapters[1].Title)
	}
}

func TestEPUBRTLDirection(t *testing.T) {
	chapters := []Chapter{{Title: "T", Text: "متن"}}
	path := filepath.Join(t.TempDir(), "rtl.epub")
	if err := WriteEPUB(path, "B", chapters, nil, "fa"); err != nil {
		t.Fatal(err)
	}

	// Read the raw chapter file to check the direction attribute.
	got, err := Chapters(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !strings.Contains(got[0].Text, "متن") {
		t.Errorf("chapters = %#v", got)
	}
}
