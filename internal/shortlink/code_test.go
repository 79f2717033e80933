package shortlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/models"
)

func TestEncodeDecode(t *testing.T) {
	tests := map[int64]string{
		1:       "1",
		10:      "a",
		35:      "z",
		36:      "10",
		100:     "2s",
		1679616: "10000",
	}
	for seq, code := range tests {
		assert.Equal(t, code, Encode(seq))
		got, err := Decode(code)
		require.NoError(t, err)
		assert.Equal(t, seq, got)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("2s"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("2S"))
	assert.False(t, Valid("temp-1"))
	assert.False(t, Valid("../etc"))
	assert.False(t, Valid("12345678901234"))

	_, err := Decode("nope!")
	assert.Error(t, err)
}

func TestRedirectPath(t *testing.T) {
	assert.Equal(t, "/abc/insert", RedirectPath(&models.ShortLink{
		CalculationType: models.CalculationTypeBasic, CalculationID: "abc",
	}))
	assert.Equal(t, "/expert/xyz/edit", RedirectPath(&models.ShortLink{
		CalculationType: models.CalculationTypeExpert, CalculationID: "xyz",
	}))
}
