package generation

import (
	"fmt"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// languageSampleRunes bounds how much text is fed to the detector.
const languageSampleRunes = 2000

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// supportedLanguages keeps detector memory bounded to the languages the
// service actually sees.
var supportedLanguages = []lingua.Language{
	lingua.Chinese,
	lingua.English,
	lingua.Japanese,
	lingua.Korean,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Russian,
}

func languageDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(supportedLanguages...).
			WithMinimumRelativeDistance(0.1).
			Build()
	})
	return detector
}

// WarmLanguageDetector builds the detector's language models so the first
// summary does not pay for loading them.
func WarmLanguageDetector() {
	languageDetector()
}

// languageHint tells the model which language to answer in. It returns an
// empty string when the language cannot be determined reliably.
func languageHint(text string) string {
	sample := text
	if runes := []rune(text); len(runes) > languageSampleRunes {
		sample = string(runes[:languageSampleRunes])
	}
	if sample == "" {
		return ""
	}

	lang, ok := languageDetector().DetectLanguageOf(sample)
	if !ok {
		return ""
	}
	return fmt.Sprintf("Write the summary in %s, the language of the document.", lang.String())
}
