package model

// SoundOption is an entry of the built-in alarm sound catalogue.
type SoundOption struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Premium bool   `json:"premium"`
}

// SoundOptions is the selectable sound catalogue. Free entries are the
// basic sounds; the rest require an active entitlement.
var SoundOptions = []SoundOption{
	{Label: "Loud Siren", Value: "siren", Premium: true},
	{Label: "Emergency Alert", Value: "emergency", Premium: true},
	{Label: "Air Horn", Value: "airhorn", Premium: true},
	{Label: "Fire Alarm", Value: "fire", Premium: true},
	{Label: "Foghorn", Value: "foghorn", Premium: true},
	{Label: "Buzzer", Value: "buzzer", Premium: false},
	{Label: "Alarm Klaxon", Value: "klaxon", Premium: true},
	{Label: "Classic Beeping", Value: "classic", Premium: false},
	{Label: "Aggressive Bell", Value: "bell", Premium: false},
	{Label: "Trumpet Blast", Value: "trumpet", Premium: true},
	{Label: "Rooster Crowing", Value: "rooster", Premium: true},
	{Label: "Warning Beep", Value: "warning", Premium: false},
	{Label: "Gentle Chimes", Value: "chimes", Premium: true},
	{Label: "Morning Melody", Value: "melody", Premium: true},
	{Label: "Ocean Waves", Value: "ocean", Premium: true},
	{Label: "Birds Chirping", Value: "birds", Premium: true},
	{Label: "Piano Sunrise", Value: "piano", Premium: true},
	{Label: "Peaceful Wake", Value: "peaceful", Premium: true},
}

// DefaultSound is used when an alarm references an unknown sound key.
const DefaultSound = "classic"

// SoundByValue looks up a catalogue entry by its key.
func SoundByValue(value string) (SoundOption, bool) {
	for _, opt := range SoundOptions {
		if opt.Value == value {
			return opt, true
		}
	}
	return SoundOption{}, false
}
