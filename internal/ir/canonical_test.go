package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Extra(t *testing.T) {
	tests := []struct {
		name  string
		extra any
		want  string
	}{
		{"empty", IRObject{}, `{}`},
		{"keys sorted", IRObject{"tier": IRString("pro"), "name": IRString("pool-a")}, `{"name":"pool-a","tier":"pro"}`},
		{"nested keys sorted", IRObject{
			"pair": IRObject{"quote": IRString("uusd"), "base": IRString("uatom")},
			"fee":  IRInt(30),
		}, `{"fee":30,"pair":{"base":"uatom","quote":"uusd"}}`},
		{"array keeps order", IRObject{"assets": IRArray{IRString("b"), IRString("a")}}, `{"assets":["b","a"]}`},
		{"int64 bounds", IRArray{IRInt(9223372036854775807), IRInt(-9223372036854775808)}, `[9223372036854775807,-9223372036854775808]`},
		{"bools", IRArray{IRBool(true), IRBool(false)}, `[true,false]`},
		{"plain go map", map[string]any{"b": int64(1), "a": "x"}, `{"a":"x","b":1}`},
		{"plain go slice", []any{int64(1), "two", true}, `[1,"two",true]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.extra)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_KeysInUTF16Order(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before
	// U+E000 in UTF-16 even though its UTF-8 bytes sort after.
	got, err := MarshalCanonical(IRObject{"\uE000": IRInt(1), "\U00010000": IRInt(2)})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(got))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "null"},
		{"stored null", IRObject{"x": IRNull{}}, "null"},
		{"float64", float64(0.5), "float"},
		{"float32 in map", map[string]any{"fee": float32(0.3)}, "float"},
		{"unsupported type", struct{}{}, "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalCanonical_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"html left alone", "<b>a & b</b>", `"<b>a & b</b>"`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"line separators literal", "a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
		{"escaped text untouched", `label \u2028`, `"label \\u2028"`},
		{"mixed", "literal \\u2029 and actual \u2029", "\"literal \\\\u2029 and actual \u2029\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_NFC(t *testing.T) {
	composed, err := MarshalCanonical(IRObject{"name": IRString("caf\u00e9")})
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(IRObject{"name": IRString("cafe\u0301")})
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_StableAcrossReparse(t *testing.T) {
	extras := []IRValue{
		IRObject{},
		IRObject{"name": IRString("pool"), "weights": IRArray{IRInt(1), IRInt(2)}},
		IRObject{"meta": IRObject{"owner": IRString("alice"), "active": IRBool(true)}},
	}

	for _, extra := range extras {
		first, err := MarshalCanonical(extra)
		require.NoError(t, err)
		val, err := UnmarshalIRValue(first)
		require.NoError(t, err)
		second, err := MarshalCanonical(val)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	}
}

func FuzzMarshalCanonical_StableAcrossReparse(f *testing.F) {
	f.Add(`{"name":"pool","fee":30}`)
	f.Add(`{"pair":{"base":"uatom","quote":"uusd"}}`)
	f.Add(`[1,2,3]`)
	f.Add(`"label"`)

	f.Fuzz(func(t *testing.T, raw string) {
		val, err := UnmarshalIRValue([]byte(raw))
		if err != nil {
			t.Skip()
		}
		first, err := MarshalCanonical(val)
		if err != nil {
			t.Skip()
		}
		val2, err := UnmarshalIRValue(first)
		require.NoError(t, err)
		second, err := MarshalCanonical(val2)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
