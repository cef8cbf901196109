package moderation

import "github.com/abadojack/whatlanggo"

// DetectLanguage returns the ISO 639-3 code of the dominant language of the
// text, or "und" when detection is not reliable. Annotation only: relayed
// text is never blocked on language.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "und"
	}
	return info.Lang.Iso6393()
}
