package chapterwise

import (
	"reflect"
	"testing"
)

func TestPruneMarked(t *testing.T) {
	m := DefaultMarkers()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "both markers",
			text: "preamble <<<START>>> the translation <<<END>>> trailing",
			want: "the translation",
		},
		{
			name: "missing start marker",
			text: "  just some text <<<END>>>  ",
			want: "just some text <<<END>>>",
		},
		{
			name: "missing end marker",
			text: "<<<START>>> unterminated",
			want: "<<<START>>> unterminated",
		},
		{
			name: "no markers at all",
			text: "  plain output  ",
			want: "plain output",
		},
		{
			name: "empty payload",
			text: "<<<START>>><<<END>>>",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PruneMarked(tt.text, m); got != tt.want {
				t.Errorf("PruneMarked(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestPruneMarkedTitleMarkers(t *testing.T) {
	got := PruneMarked("<<<TITLE_START>>>Der Turm<<<TITLE_END>>>", TitleMarkers())
	if got != "Der Turm" {
		t.Errorf("got %q, want %q", got, "Der Turm")
	}
}

func TestParseResponse(t *testing.T) {
	m := DefaultMarkers()
	raw := "<<<START>>>Die Übersetzung.<<<END>>>\n" +
		"<<<GLOSSARY_START>>>\n" +
		"Aria -> Aria die Magierin\n" +
		"Frostpeak -> Frostgipfel\n" +
		"<<<GLOSSARY_END>>>"

	translation, updates := ParseResponse(raw, NewGlossary(), m)
	if translation != "Die Übersetzung." {
		t.Errorf("translation = %q", translation)
	}
	want := []Term{
		{Source: "Aria", Target: "Aria die Magierin"},
		{Source: "Frostpeak", Target: "Frostgipfel"},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Errorf("updates = %#v, want %#v", updates, want)
	}
}

func TestParseResponseNoGlossaryBlock(t *testing.T) {
	translation, updates := ParseResponse("<<<START>>>text<<<END>>>", NewGlossary(), DefaultMarkers())
	if translation != "text" {
		t.Errorf("translation = %q", translation)
	}
	if updates != nil {
		t.Errorf("updates = %#v, want nil", updates)
	}
}

func TestParseResponseAcceptanceRules(t *testing.T) {
	existing := NewGlossary()
	existing.Set("Known", "Bekannt")

	tests := []struct {
		name string
		line string
		want int
	}{
		{"valid proper noun", "Castle -> Burg", 1},
		{"no arrow", "Castle Burg", 0},
		{"empty source", " -> Burg", 0},
		{"empty target", "Castle -> ", 0},
		{"identity", "Same -> Same", 0},
		{"identity case insensitive", "Same -> same", 0},
		{"already known", "Known -> Anders", 0},
		{"single rune source", "A -> Ein", 0},
		{"ascii lowercase first", "castle -> Burg", 0},
		{"non-latin short of case", "магия -> Magie", 1},
		{"cjk source", "火焰山 -> Flammenberg", 1},
	}

	m := DefaultMarkers()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "<<<START>>>x<<<END>>><<<GLOSSARY_START>>>\n" + tt.line + "\n<<<GLOSSARY_END>>>"
			_, updates := ParseResponse(raw, existing, m)
			if len(updates) != tt.want {
				t.Errorf("line %q: got %d updates, want %d", tt.line, len(updates), tt.want)
			}
		})
	}
}

func TestParseResponseDuplicateInBlock(t *testing.T) {
	raw := "<<<START>>>x<<<END>>><<<GLOSSARY_START>>>\n" +
		"Aria -> First\n" +
		"Boreal -> Nord\n" +
		"Aria -> Second\n" +
		"<<<GLOSSARY_END>>>"

	_, updates := ParseResponse(raw, NewGlossary(), DefaultMarkers())
	want := []Term{
		{Source: "Aria", Target: "Second"},
		{Source: "Boreal", Target: "Nord"},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Errorf("updates = %#v, want %#v", updates, want)
	}
}

func TestParseResponseArrowInTarget(t *testing.T) {
	// Split happens at the first arrow only.
	raw := "<<<START>>>x<<<END>>><<<GLOSSARY_START>>>\nSign -> Zeichen -> mehr\n<<<GLOSSARY_END>>>"
	_, updates := ParseResponse(raw, NewGlossary(), DefaultMarkers())
	if len(updates) != 1 || updates[0].Target != "Zeichen -> mehr" {
		t.Errorf("updates = %#v", updates)
	}
}
