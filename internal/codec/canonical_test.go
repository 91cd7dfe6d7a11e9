package codec

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Basic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", -100, "-100"},
		{"max uint64", uint64(18446744073709551615), "18446744073709551615"},
		{"float", 0.25, "0.25"},
		{"bool", true, "true"},
		{"nil slice", []string(nil), "null"},
		{"empty object", map[string]int{}, "{}"},
		{"array", []int{3, 1, 2}, "[3,1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshal_SortedKeys(t *testing.T) {
	type inner struct {
		Zeta  int `json:"zeta"`
		Alpha int `json:"alpha"`
	}
	v := struct {
		Zebra inner `json:"zebra"`
		Beta  int   `json:"beta"`
	}{Zebra: inner{Zeta: 1, Alpha: 2}, Beta: 3}

	out, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"beta":3,"zebra":{"alpha":2,"zeta":1}}`, string(out))
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	out, err := Marshal(map[string]string{"url": "https://a.com/?x=<1>&y=2"})
	require.NoError(t, err)
	assert.Equal(t, `{"url":"https://a.com/?x=<1>&y=2"}`, string(out))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to precomposed U+00E9.
	out, err := Marshal("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(out))
}

func TestMarshal_DecimalIsString(t *testing.T) {
	out, err := Marshal(map[string]decimal.Decimal{"probi": decimal.RequireFromString("1000000000000000000")})
	require.NoError(t, err)
	assert.Equal(t, `{"probi":"1000000000000000000"}`, string(out))
}

func TestMarshal_Deterministic(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2, "d": 4}
	first, err := Marshal(m)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLessUTF16(t *testing.T) {
	assert.True(t, lessUTF16("a", "b"))
	assert.True(t, lessUTF16("a", "ab"))
	assert.False(t, lessUTF16("b", "a"))
	// U+1F600 sorts after U+FF61 in UTF-8 byte order but before it in UTF-16.
	assert.True(t, lessUTF16("\U0001F600", "｡"))
}
