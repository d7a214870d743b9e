package intake

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Decimal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3.14", true},
		{"12.5", true},
		{"-3", true},
		{"+7", true},
		{"1e3", true},
		{" 42\r\n", true},
		{"\t0.5 ", true},
		{"3.14x", false},
		{"12abc", false},
		{"", false},
		{"  ", false},
		{"\r\n", false},
		{"1 2", false},
		{"inf", false},
		{"NaN", false},
		{"0x1p-2", false},
		{"1_000", false},
		{"1e400", false},
		{".", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Validate(Decimal(), tt.in), "Validate(Decimal, %q)", tt.in)
	}
}

func TestValidate_DecimalAtLeast(t *testing.T) {
	kind := DecimalAtLeast(0)
	assert.True(t, Validate(kind, "0"))
	assert.True(t, Validate(kind, "45"))
	assert.False(t, Validate(kind, "-1"))
	assert.False(t, Validate(kind, "-0.01"))
}

func TestValidate_Binary(t *testing.T) {
	for _, ok := range []string{"0", "1", " 1 ", "0\n"} {
		assert.True(t, Validate(Binary(), ok), ok)
	}
	for _, bad := range []string{"1.0", "2", "yes", "true", "01", "", "-0"} {
		assert.False(t, Validate(Binary(), bad), bad)
	}
}

func TestValidate_Enum(t *testing.T) {
	kind := GenderField.Kind
	assert.True(t, Validate(kind, "Male"))
	assert.True(t, Validate(kind, "FEMALE"))
	assert.True(t, Validate(kind, " other "))
	assert.False(t, Validate(kind, "ma"))
	assert.False(t, Validate(kind, "males"))
	assert.False(t, Validate(kind, ""))

	smoking := SmokingField.Kind
	assert.True(t, Validate(smoking, "Never Smoked"))
	assert.True(t, Validate(smoking, "formerly smoked"))
	assert.False(t, Validate(smoking, "never_smoked"))
	assert.False(t, Validate(smoking, "never"))
}

func TestNormalize(t *testing.T) {
	v, err := Normalize(SmokingField.Kind, "  Never Smoked\n")
	require.NoError(t, err)
	assert.Equal(t, "never smoked", v.Text)

	v, err = Normalize(Decimal(), "28.5")
	require.NoError(t, err)
	assert.Equal(t, 28.5, v.Number)

	v, err = Normalize(Binary(), "1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Flag)

	_, err = Normalize(Binary(), "1.0")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check(BMIField, "22"))

	err := Check(BMIField, "twenty")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "bmi")
}

func TestFieldKind_String(t *testing.T) {
	assert.Equal(t, "enum(a|b)", Enum("A", "b").String())
	assert.Equal(t, "binary", Binary().String())
	assert.Equal(t, "decimal", Decimal().String())
	assert.Equal(t, "decimal(>=0)", AgeField.Kind.String())
}
