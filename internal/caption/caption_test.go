package caption

import (
	"strings"
	"testing"
)

func TestLimitAcceptsTwelveWideCharacters(t *testing.T) {
	text := "哈囉" + strings.Repeat("好", 10)

	got, over := Limit(text)
	if over {
		t.Fatal("expected 12 wide characters to be accepted")
	}
	if got != text {
		t.Fatalf("expected caption unchanged, got %q", got)
	}
}

func TestLimitAcceptsFourteenWideCharacters(t *testing.T) {
	text := strings.Repeat("好", 14)

	got, over := Limit(text)
	if over {
		t.Fatal("expected 14 wide characters to be accepted")
	}
	if got != text {
		t.Fatalf("expected caption unchanged, got %q", got)
	}
}

func TestLimitRejectsFifteenthWideCharacter(t *testing.T) {
	text := strings.Repeat("好", 14) + "多" + "abc"

	got, over := Limit(text)
	if !over {
		t.Fatal("expected over-limit indicator")
	}
	if got != strings.Repeat("好", 14) {
		t.Fatalf("expected remainder discarded, got %q", got)
	}
}

func TestLimitCountsClassesIndependently(t *testing.T) {
	text := strings.Repeat("a", 28) + strings.Repeat("字", 14)

	got, over := Limit(text)
	if over {
		t.Fatal("expected 28 narrow plus 14 wide to fit")
	}
	if got != text {
		t.Fatalf("expected caption unchanged, got %q", got)
	}

	got, over = Limit(text + "b" + "字")
	if !over {
		t.Fatal("expected 29th narrow character to trip the limit")
	}
	if got != text {
		t.Fatalf("expected prefix before the 29th narrow character, got %q", got)
	}
}

func TestLimitTreatsLatin1AsNarrow(t *testing.T) {
	text := strings.Repeat("é", 20)
	if _, over := Limit(text); over {
		t.Fatal("expected latin-1 characters to count as narrow")
	}
}

func TestLimitIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"a quiet afternoon by the sea, with friends",
		strings.Repeat("記憶", 10),
		"Mixed 中文 and English words 一起 written here",
	}
	for _, in := range inputs {
		once, _ := Limit(in)
		twice, over := Limit(once)
		if twice != once {
			t.Fatalf("Limit not idempotent for %q: %q then %q", in, once, twice)
		}
		if over {
			t.Fatalf("re-applying Limit to %q reported over-limit", once)
		}
	}
}

func TestTrim(t *testing.T) {
	if got := Trim("  sunset \n"); got != "sunset" {
		t.Fatalf("expected trimmed caption, got %q", got)
	}
}
