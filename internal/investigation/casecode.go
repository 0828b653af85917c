package investigation

import (
	"crypto/sha256"
	"fmt"

	"cultgo/backend/internal/config"
)

// CaseCode derives the public code for a case from the victim id and the
// report index. Stable across runs: re-derivation produces the same code.
func CaseCode(victimID string, reportIndex int) string {
	sum := sha256.Sum256([]byte(victimID))
	letters := make([]byte, 4)
	for i, b := range sum[:4] {
		letters[i] = config.CaseCodeAlphabet[int(b)%len(config.CaseCodeAlphabet)]
	}
	return fmt.Sprintf("RIT-%s-%d", letters, reportIndex+1)
}
