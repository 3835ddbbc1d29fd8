package capture

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

const (
	nameSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	nameSuffixLen      = 8
)

// randomName builds a capture file stem: a dashless UUID plus a short
// random suffix. The UUID alone would avoid collisions; the suffix keeps
// names distinguishable at a glance when several captures land in one
// second.
func randomName(rng *rand.Rand) string {
	stem := strings.ReplaceAll(uuid.New().String(), "-", "")

	suffix := make([]byte, nameSuffixLen)
	for i := range suffix {
		suffix[i] = nameSuffixAlphabet[rng.Intn(len(nameSuffixAlphabet))]
	}
	return stem + "_" + string(suffix)
}
