package investigation_test

import (
	"regexp"
	"testing"

	"cultgo/backend/internal/investigation"

	"github.com/stretchr/testify/assert"
)

// TestCaseCode_Shape verifies the public code format.
func TestCaseCode_Shape(t *testing.T) {
	code := investigation.CaseCode("victim-1", 0)
	assert.Regexp(t, regexp.MustCompile(`^RIT-[A-HJ-NP-Z2-9]{4}-1$`), code)
}

// TestCaseCode_Stable verifies that re-derivation yields the same code
// and that the episode number is one-based.
func TestCaseCode_Stable(t *testing.T) {
	assert.Equal(t, investigation.CaseCode("victim-1", 0), investigation.CaseCode("victim-1", 0))

	first := investigation.CaseCode("victim-1", 0)
	second := investigation.CaseCode("victim-1", 1)
	assert.Equal(t, first[:len(first)-1]+"2", second, "same stem, next episode")
}

// TestCaseCode_DistinctVictims verifies that different victims get
// different stems.
func TestCaseCode_DistinctVictims(t *testing.T) {
	a := investigation.CaseCode("victim-1", 0)
	b := investigation.CaseCode("victim-2", 0)
	assert.NotEqual(t, a, b)
}
