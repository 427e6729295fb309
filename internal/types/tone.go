// Package types provides type definitions for structured data used throughout the notepolish system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ToneType selects the base instruction template for a rephrasing request.
type ToneType string

// Tone constants define the closed set of supported tones
const (
	ToneProfessional ToneType = "professional"
	ToneCasual       ToneType = "casual"
	ToneConcise      ToneType = "concise"
	ToneEmail        ToneType = "email"
	ToneMeetingNotes ToneType = "meeting_notes"
	// ToneOriginal is a light clean-up that preserves the speaker's wording
	ToneOriginal ToneType = "original"
)

// DefaultTone is used when a request does not name a tone
const DefaultTone = ToneProfessional

// AllTones returns every supported tone in display order
func AllTones() []ToneType {
	return []ToneType{
		ToneProfessional,
		ToneCasual,
		ToneConcise,
		ToneEmail,
		ToneMeetingNotes,
		ToneOriginal,
	}
}

// IsValid reports whether t is one of the supported tones
func (t ToneType) IsValid() bool {
	for _, tone := range AllTones() {
		if t == tone {
			return true
		}
	}
	return false
}

// ParseTone converts a raw string into a ToneType, falling back to DefaultTone
// when the value is empty or unknown.
func ParseTone(raw string) ToneType {
	t := ToneType(raw)
	if t.IsValid() {
		return t
	}
	return DefaultTone
}
