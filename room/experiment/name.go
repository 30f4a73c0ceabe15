package experiment

import (
	"math/rand/v2"
	"time"
)

var (
	adjectives = []string{
		"autumn", "hidden", "bitter", "misty", "silent", "empty", "dry", "dark",
		"summer", "icy", "delicate", "quiet", "white", "cool", "spring", "winter",
		"patient", "twilight", "dawn", "crimson", "wispy", "weathered", "blue",
		"damp", "falling", "frosty", "hollow", "lingering", "muffled", "ringing",
		"long", "late", "bold", "little", "morning", "old", "resonant", "still",
		"small", "sparkling", "shy", "wandering", "wild", "solitary", "dull",
		"bright", "warm", "live", "dead", "diffuse", "echoing", "soft", "sharp",
	}

	nouns = []string{
		"hall", "chamber", "cathedral", "studio", "booth", "cellar", "attic",
		"tunnel", "stairwell", "canyon", "cave", "atrium", "chapel", "vault",
		"river", "breeze", "moon", "rain", "wind", "sea", "snow", "lake",
		"forest", "hill", "cloud", "meadow", "brook", "field", "night", "pond",
		"silence", "sound", "thunder", "wave", "resonance", "echo", "voice",
		"bell", "drum", "horn", "reed", "string", "chord", "rhythm", "brass",
	}
)

// GenerateExperimentName creates a memorable experiment identifier
// in the format "adjective-noun"
func GenerateExperimentName() string {
	adj := adjectives[rand.IntN(len(adjectives))]
	noun := nouns[rand.IntN(len(nouns))]
	return adj + "-" + noun
}

// GenerateExperimentID creates a unique experiment identifier by combining
// the memorable name with a timestamp
func GenerateExperimentID() string {
	timestamp := time.Now().UTC().Format("20060102-150405.000")
	return GenerateExperimentName() + "-" + timestamp
}
