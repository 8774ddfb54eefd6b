package content

import (
	"partyrooms/internal/models"
)

// Kinds of content rows
const (
	KindWord        = "word"
	KindAdultWord   = "adult_word"
	KindPhrase      = "phrase"
	KindAdultPhrase = "adult_phrase"
	KindLocation    = "location"
)

// Kinds lists every content kind in seeding order
var Kinds = []string{KindWord, KindAdultWord, KindPhrase, KindAdultPhrase, KindLocation}

// Tables holds the static word and location data the games draw from
type Tables struct {
	Words        []string
	AdultWords   []string
	Phrases      []string
	AdultPhrases []string
	Locations    []string
}

// ByKind returns the table backing a content kind
func (t *Tables) ByKind(kind string) []string {
	switch kind {
	case KindWord:
		return t.Words
	case KindAdultWord:
		return t.AdultWords
	case KindPhrase:
		return t.Phrases
	case KindAdultPhrase:
		return t.AdultPhrases
	case KindLocation:
		return t.Locations
	}
	return nil
}

// Append adds an entry to the table for kind. Unknown kinds are ignored.
func (t *Tables) Append(kind, text string) {
	switch kind {
	case KindWord:
		t.Words = append(t.Words, text)
	case KindAdultWord:
		t.AdultWords = append(t.AdultWords, text)
	case KindPhrase:
		t.Phrases = append(t.Phrases, text)
	case KindAdultPhrase:
		t.AdultPhrases = append(t.AdultPhrases, text)
	case KindLocation:
		t.Locations = append(t.Locations, text)
	}
}

// Complete reports whether every table a game needs is non-empty
func (t *Tables) Complete() bool {
	return len(t.Words) > 0 && len(t.Phrases) > 0 && len(t.Locations) > 0
}

// WordPool returns the candidates for a Crocodile draw under the given settings.
// "all" unions words and phrases; "phrase" uses phrases; anything else uses single words.
// Adult mode extends whichever pool is chosen with its adult counterpart.
func (t *Tables) WordPool(settings models.CrocodileSettings) []string {
	var pool []string
	switch settings.WordType {
	case models.WordTypeAll:
		pool = append(pool, t.Words...)
		pool = append(pool, t.Phrases...)
		if settings.AdultMode {
			pool = append(pool, t.AdultWords...)
			pool = append(pool, t.AdultPhrases...)
		}
	case models.WordTypePhrase:
		pool = append(pool, t.Phrases...)
		if settings.AdultMode {
			pool = append(pool, t.AdultPhrases...)
		}
	default:
		pool = append(pool, t.Words...)
		if settings.AdultMode {
			pool = append(pool, t.AdultWords...)
		}
	}
	return pool
}
