package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutiontech/gic/pkg/apperrors"
)

func TestName(t *testing.T) {
	got, err := Name("  maría josé  núñez ")
	require.NoError(t, err)
	assert.Equal(t, "María José  Núñez", got)

	for _, bad := range []string{"", "   ", "A", "Juan3", "ana_maria", "O'Brien"} {
		_, err := Name(bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidName, "input %q", bad)
	}
}

func TestEmail(t *testing.T) {
	got, err := Email("Juan.Perez@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "Juan.Perez@example.com", got)

	again, err := Email(got)
	require.NoError(t, err)
	assert.Equal(t, got, again, "normalization must be idempotent")

	for _, bad := range []string{
		"", "plain", "a@", "@b.cl", "a@b", "a@-b.cl", "a@b.c", "a@b..cl",
		"Juan <juan@b.cl>", "a@b.c0m",
	} {
		_, err := Email(bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidEmail, "input %q", bad)
	}
}

func TestPhone(t *testing.T) {
	a, err := Phone("+56944556677", "CL")
	require.NoError(t, err)
	b, err := Phone("9 4455 6677", "CL")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "+56 9 4455 6677", a)

	again, err := Phone(a, "CL")
	require.NoError(t, err)
	assert.Equal(t, a, again)

	for _, bad := range []string{"", "abc", "123", "+56 1"} {
		_, err := Phone(bad, "CL")
		assert.ErrorIs(t, err, apperrors.ErrInvalidPhone, "input %q", bad)
	}
}

func TestAddress(t *testing.T) {
	got, err := Address("  Av. Siempre Viva 742 ")
	require.NoError(t, err)
	assert.Equal(t, "Av. Siempre Viva 742", got)

	_, err = Address("   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAddress)
	_, err = Address("Av 1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAddress)
}

func TestTaxID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"76.124.890-1", "76.124.890-1"},
		{"761248901", "76.124.890-1"},
		{"76124890-1", "76.124.890-1"},
		{"11.111.111-1", "11.111.111-1"},
		{"12.345.678-5", "12.345.678-5"},
		{" 76.124.890-1 ", "76.124.890-1"},
	}
	for _, tt := range tests {
		got, err := TaxID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"76.124.890-9", "1", "", "7A.124.890-1", "---", "76 124 890-1", "76124\t890-1"} {
		_, err := TaxID(bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTaxID, "input %q", bad)
	}
}

func TestCheckDigit(t *testing.T) {
	assert.Equal(t, "1", CheckDigit("76124890"))
	assert.Equal(t, "5", CheckDigit("12345678"))
	assert.Equal(t, "K", CheckDigit("10000013"))
}

func TestRate(t *testing.T) {
	for _, ok := range []float64{0, 0.15, 1} {
		_, err := Rate("discount_rate", ok)
		assert.NoError(t, err)
	}
	_, err := Rate("discount_rate", 1.5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRate)
	assert.Equal(t, "discount_rate", apperrors.FieldOf(err))
}
