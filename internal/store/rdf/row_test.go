package rdf

import (
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/ldstore"
)

func TestEncodeDecodeObjectRoundTrip(t *testing.T) {
	bigInt, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	integerVal, err := ldcore.NewInteger(bigInt)
	require.NoError(t, err)

	floatVal, err := ldcore.NewFloating(3.5)
	require.NoError(t, err)

	dataVal, err := ldcore.NewData("http://www.w3.org/2001/XMLSchema#anyURI", "urn:example")
	require.NoError(t, err)

	cases := []struct {
		name string
		v    ldcore.Value
	}{
		{"uri", ldcore.NewURI("http://example.org/ns#Thing")},
		{"bit-true", ldcore.NewBit(true)},
		{"bit-false", ldcore.NewBit(false)},
		{"integral", ldcore.NewIntegral(-42)},
		{"floating", floatVal},
		{"integer", integerVal},
		{"decimal", ldcore.NewDecimal(mustDecimal(t, "10.25"))},
		{"string", ldcore.NewString("hello")},
		{"text", ldcore.NewText(ldcore.Locale("en"), "hello")},
		{"data", dataVal},
		{"temporal", ldcore.NewLocalDate(2024, 1, 15)},
		{"temporalamount", ldcore.NewDuration(90 * time.Minute)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, text, lang, datatype, err := EncodeObject(tc.v)
			require.NoError(t, err)

			decoded, err := DecodeObject(kind, text, lang, datatype)
			require.NoError(t, err)

			// Data and TemporalAmount have no Comparator precedence (§4.2);
			// fall back to comparing each side's own canonical encoding.
			if tc.v.Case() == ldcore.CaseData || tc.v.Case() == ldcore.CaseTemporalAmount {
				wantEnc, err := tc.v.Encode("")
				require.NoError(t, err)
				gotEnc, err := decoded.Encode("")
				require.NoError(t, err)
				assert.Equal(t, wantEnc, gotEnc)
				return
			}

			cmp, ok := ldcore.Compare(tc.v, decoded)
			require.True(t, ok, "values of case %s should be comparable", tc.v.Case())
			assert.Zero(t, cmp)
		})
	}
}

func TestEncodeObjectRejectsUnsupportedCase(t *testing.T) {
	_, _, _, _, err := EncodeObject(ldcore.NewArray(ldcore.NewString("a")))
	require.Error(t, err)
}

func TestDecodeObjectRejectsUnknownKind(t *testing.T) {
	_, err := DecodeObject("made-up-kind", "x", "", "")
	require.Error(t, err)
}

func mustDecimal(t *testing.T, s string) apd.Decimal {
	t.Helper()
	d, err := ldcore.ParseDecimal(s)
	require.NoError(t, err)
	return d
}
