package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTotal(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"692.88", 692.88},
		{"692,88", 692.88},
		{"1 659 649,00", 1659649.00},
		{"1,659,649.00", 1659649.00},
		{"2 600", 2600},
	}
	for _, tt := range tests {
		v := Normalize(FieldTotal, tt.raw)
		assert.True(t, v.IsNumber(), "raw %q", tt.raw)
		assert.InDelta(t, tt.want, v.Number(), 1e-9, "raw %q", tt.raw)
	}

	// parse failure degrades to the cleaned string, never an error
	v := Normalize(FieldTotal, "12.34.56")
	assert.False(t, v.IsNumber())
	assert.Equal(t, "12.34.56", v.String())
}

func TestNormalizeVendor(t *testing.T) {
	assert.Equal(t, "ООО Ромашка", Normalize(FieldVendor, ` ООО «Ромашка» `).String())
	assert.Equal(t, `АО ТАНДЕР`, Normalize(FieldVendor, `АО "ТАНДЕР"`).String())
	assert.Equal(t, "ООО Тест", Normalize(FieldVendor, "ООО “Тест”").String())
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+78612109810", Normalize(FieldPhone, "8612109810").String())
}

func TestNormalizeDefaultTrims(t *testing.T) {
	assert.Equal(t, "27.09.2025", Normalize(FieldDate, " 27.09.2025 ").String())
}

func TestLenientEqual(t *testing.T) {
	assert.True(t, lenientEqual(`АО "ТАНДЕР"`, "АО ТАНДЕР"))
	assert.True(t, lenientEqual("тандер", "АО ТАНДЕР"))
	assert.True(t, lenientEqual("692.88", "692.88"))
	assert.False(t, lenientEqual("692.88", "693.88"))
	assert.False(t, lenientEqual(Unrecognized, "692.88"))
	assert.True(t, lenientEqual(Unrecognized, ""))
}
