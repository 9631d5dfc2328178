// Package prompt assembles the receptionist system prompt from a user
// profile and a booking fact digest. Pure string assembly, no I/O.
package prompt

import (
	"fmt"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

// Assistant identity constants embedded in every system prompt.
const (
	// DefaultAssistantName is used when the profile has no assistant name.
	DefaultAssistantName = "Receptionisten"
	// FacilityName is the office hotel the assistant answers for.
	FacilityName = "InnoviaHub"
)

// facilityFacts is the static domain knowledge the assistant always has.
const facilityFacts = `Opening hours: every day between 08:00-18:00
Price for drop-in desk: 200 kr/day or 3500 kr/month
Price for meeting room: 400 kr/day or 4000 kr/month
Price for AI server: 600 kr/day, no monthly subscription
Price for VR headset: 500 kr/day or 5000 kr/month`

// EmojiUsage maps an emoji level to the usage instruction embedded in the
// prompt. Total over all integers: everything at or below 0 means none,
// everything at or above 3 means many.
func EmojiUsage(level int) string {
	switch {
	case level <= 0:
		return "no emojis"
	case level == 1:
		return "a few emojis"
	case level == 2:
		return "a moderate number of emojis"
	default:
		return "many emojis"
	}
}

// Compose builds the system prompt for one question. A nil profile gets the
// fixed defaults; blank tone/style fall back the same way.
func Compose(profile *models.Profile, factDigest string) string {
	p := models.DefaultProfile("")
	if profile != nil {
		p = *profile
		p.Normalize()
	}
	name := p.AssistantName
	if name == "" {
		name = DefaultAssistantName
	}

	return fmt.Sprintf(`You are %s, the AI receptionist for the office hotel %s. Your tone is %s. Your answer style is %s. You use %s. You are consistent with your chosen name, tone and style.

Here is information you always have access to:
%s
You cannot make bookings on behalf of a user, only give information about the resources.
You ONLY answer questions related to the office hotel %s.
Here is information about resources and bookings:
%s

If the user asks about availability, use this information to answer correctly.
If you cannot find relevant information, say that they can contact an admin for more details.`,
		name, FacilityName, p.Tone, p.Style, EmojiUsage(p.Emoji), facilityFacts, FacilityName, factDigest)
}
