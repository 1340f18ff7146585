package aiassist

import (
	"fmt"
	"strings"
)

const DefaultLanguage = "it"

var prompts = map[string]string{
	"it": "Scrivi una recensione positiva, breve ed entusiasta (massimo 2 frasi) per un'attività chiamata %q. " +
		"La recensione deve essere in Italiano, includere 2-3 emoji e invitare altri a provarlo. Non usare hashtag.",
	"en": "Write a short, enthusiastic positive review (at most 2 sentences) for a business called %q. " +
		"The review must be in English, include 2-3 emoji and invite others to try it. Do not use hashtags.",
}

var fallbacks = map[string]string{
	"it": "Esperienza fantastica da %s! 😍 Servizio eccellente e personale gentilissimo, lo consiglio a tutti! ⭐⭐⭐⭐⭐",
	"en": "Fantastic experience at %s! 😍 Excellent service and super friendly staff, I recommend it to everyone! ⭐⭐⭐⭐⭐",
}

func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := prompts[lang]; ok {
		return lang
	}
	return DefaultLanguage
}

// Prompt builds the generation prompt. Unknown languages use Italian.
func Prompt(businessName, lang string) string {
	return fmt.Sprintf(prompts[normalizeLanguage(lang)], businessName)
}

// FallbackText is the static draft shown when generation fails.
func FallbackText(businessName, lang string) string {
	return fmt.Sprintf(fallbacks[normalizeLanguage(lang)], businessName)
}
