package prompt

import (
	"strings"
	"testing"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

func TestEmojiUsageBuckets(t *testing.T) {
	cases := []struct {
		level int
		want  string
	}{
		{-5, "no emojis"},
		{0, "no emojis"},
		{1, "a few emojis"},
		{2, "a moderate number of emojis"},
		{3, "many emojis"},
		{99, "many emojis"},
	}
	for _, c := range cases {
		if got := EmojiUsage(c.level); got != c.want {
			t.Errorf("EmojiUsage(%d) = %q, want %q", c.level, got, c.want)
		}
	}
}

func TestComposeNilProfileUsesDefaults(t *testing.T) {
	got := Compose(nil, "No bookings found for 2024-05-10. All resources appear to be free.")
	for _, want := range []string{
		"You are " + DefaultAssistantName,
		"Your tone is " + models.DefaultTone,
		"Your answer style is " + models.DefaultStyle,
		"You use no emojis",
		"No bookings found for 2024-05-10",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestComposeEmbedsProfileAndFacts(t *testing.T) {
	p := &models.Profile{AssistantName: "Nova", Tone: "warm", Style: "detailed", Emoji: 2}
	digest := "Bookings for 2024-05-10: A: 3 bookings"
	got := Compose(p, digest)
	for _, want := range []string{
		"You are Nova",
		"Your tone is warm",
		"Your answer style is detailed",
		"a moderate number of emojis",
		digest,
		"cannot make bookings on behalf of a user",
		FacilityName,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestComposeNormalizesBlankFields(t *testing.T) {
	p := &models.Profile{Tone: "  ", Style: "", Emoji: 42}
	got := Compose(p, "digest")
	if !strings.Contains(got, "Your tone is "+models.DefaultTone) {
		t.Error("blank tone did not fall back to default")
	}
	if !strings.Contains(got, "many emojis") {
		t.Error("emoji level not clamped to the top bucket")
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	p := &models.Profile{AssistantName: "Nova", Tone: "warm", Style: "detailed", Emoji: 1}
	if Compose(p, "d") != Compose(p, "d") {
		t.Error("Compose is not deterministic")
	}
}
