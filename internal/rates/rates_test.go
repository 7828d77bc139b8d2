package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForYear_KnownYears(t *testing.T) {
	latest := ForYear("2025-26", nil)
	assert.Equal(t, 12570.0, latest.PersonalAllowance)
	assert.Equal(t, 0.08, latest.NIMainRate)

	// Only the NI main rate moved in 2023-24.
	older := ForYear("2023-24", nil)
	assert.Equal(t, 0.12, older.NIMainRate)
	assert.Equal(t, latest.BasicRate, older.BasicRate)
	assert.Equal(t, latest.VATRate, older.VATRate)
}

func TestForYear_UnknownYearFallsBack(t *testing.T) {
	assert.Equal(t, ForYear(LatestYear, nil), ForYear("1999-00", nil))
	assert.Equal(t, ForYear(LatestYear, nil), ForYear("", nil))
}

func TestForYear_Overrides(t *testing.T) {
	basic := 0.22
	vat := 0.25
	patched := ForYear("2025-26", &Overrides{BasicRate: &basic, VATRate: &vat})
	assert.Equal(t, 0.22, patched.BasicRate)
	assert.Equal(t, 0.25, patched.VATRate)

	// Untouched fields keep the year's values.
	base := ForYear("2025-26", nil)
	assert.Equal(t, base.PersonalAllowance, patched.PersonalAllowance)
	assert.Equal(t, base.HigherRate, patched.HigherRate)
	assert.Equal(t, base.NIMainRate, patched.NIMainRate)
}

func TestForYear_NilOverridesUnchanged(t *testing.T) {
	assert.Equal(t, ForYear("2024-25", nil), ForYear("2024-25", &Overrides{}))
}

func TestYears_ContainsLatest(t *testing.T) {
	assert.Contains(t, Years(), LatestYear)
}
