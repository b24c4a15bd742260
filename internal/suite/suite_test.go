package suite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSuiteCanonicalizesThresholds(t *testing.T) {
	s, err := LoadSuite("testdata/demos.toml")
	require.NoError(t, err)
	require.NotEmpty(t, s.Cases)

	for _, c := range s.Cases {
		assert.NotZero(t, c.VMPromotionCallCount, "case %s", c.Name)
		assert.NotZero(t, c.JITPromotionIters, "case %s", c.Name)
		assert.NotEmpty(t, c.Name)
	}
}

func TestDemosSuitePasses(t *testing.T) {
	s, err := LoadSuite("testdata/demos.toml")
	require.NoError(t, err)

	for _, result := range Run(s) {
		assert.True(t, result.Passed, "case %q: %s", result.Case, result.Message)
	}
}

func TestRunCaseUnknownProgram(t *testing.T) {
	result := RunCase(Case{Name: "bogus", Program: "no-such-demo"})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "no such program")
}

func TestRunCaseTierEquivalence(t *testing.T) {
	interpreted := RunCase(Case{
		Name: "fib-high-thresholds", Program: "fibonacci", Result: "832040",
		VMPromotionCallCount: 1000000, JITPromotionIters: 1000000,
	})
	jitForced := RunCase(Case{
		Name: "fib-low-thresholds", Program: "fibonacci", Result: "832040",
		VMPromotionCallCount: 1, JITPromotionIters: 1,
	})
	assert.True(t, interpreted.Passed, interpreted.Message)
	assert.True(t, jitForced.Passed, jitForced.Message)
}
