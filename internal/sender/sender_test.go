package sender

import (
	"strings"
	"testing"
)

func TestSplitTextShortStaysWhole(t *testing.T) {
	t.Parallel()

	chunks := splitText("короткий текст", 100)
	if len(chunks) != 1 || chunks[0] != "короткий текст" {
		t.Errorf("got %q", chunks)
	}
}

func TestSplitTextPrefersNewline(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("а", 60) + "\n" + strings.Repeat("б", 60)
	chunks := splitText(text, 100)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != strings.Repeat("а", 60) {
		t.Errorf("first chunk = %q, want the full first line", chunks[0])
	}
	if chunks[1] != strings.Repeat("б", 60) {
		t.Errorf("second chunk = %q", chunks[1])
	}
}

func TestSplitTextHardCutWithoutNewline(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("в", 250)
	chunks := splitText(text, 100)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 100 {
			t.Errorf("chunk %d has %d runes, limit 100", i, n)
		}
	}
	if strings.Join(chunks, "") != text {
		t.Errorf("hard cut lost content")
	}
}

func TestSplitTextIgnoresEarlyNewline(t *testing.T) {
	t.Parallel()

	// A newline in the first half of the window is too early to break at.
	text := strings.Repeat("г", 10) + "\n" + strings.Repeat("д", 200)
	chunks := splitText(text, 100)

	if len([]rune(chunks[0])) != 100 {
		t.Errorf("first chunk has %d runes, want a hard cut at 100", len([]rune(chunks[0])))
	}
}

func TestSplitTextRuneBoundaries(t *testing.T) {
	t.Parallel()

	// Cyrillic runes are two bytes; a byte-based cut would corrupt them.
	text := strings.Repeat("жизнь", 50)
	chunks := splitText(text, 70)

	for i, c := range chunks {
		if !strings.ContainsAny(c, "жизнь") {
			continue
		}
		if strings.ContainsRune(c, '�') {
			t.Errorf("chunk %d contains a broken rune", i)
		}
	}
	if strings.Join(chunks, "") != text {
		t.Errorf("split lost or corrupted content")
	}
}
