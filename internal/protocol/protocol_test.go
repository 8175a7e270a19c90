package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalParseRoundTrip(t *testing.T) {
	in := Packet{Method: "cardUsed", Args: []string{"2", "12:spade:7:slash", "3,4", "fire attack"}}
	line := in.Marshal()

	out, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"bad!method arg",
		"method arg%zz",
		"method trailing%2",
	} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrMalformed, "line %q", line)
	}
}

func TestParseTrimsLineEndings(t *testing.T) {
	p, err := Parse("phaseChange 1 PLAY\r\n")
	require.NoError(t, err)
	assert.Equal(t, "phaseChange", p.Method)
	assert.Equal(t, []string{"1", "PLAY"}, p.Args)
}

func TestCardRef(t *testing.T) {
	ref := CardRef{ID: 42, Suit: "heart", Rank: 12, Name: "peach"}
	s := FormatCardRef(ref)
	parsed, err := ParseCardRef(s)
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)

	_, err = ParseCardRef("42:heart:twelve:peach")
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = ParseCardRef("not-a-ref")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIntList(t *testing.T) {
	assert.Equal(t, ".", FormatIntList(nil))

	values, err := ParseIntList("3,1,4")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 4}, values)

	values, err = ParseIntList(".")
	require.NoError(t, err)
	assert.Nil(t, values)

	_, err = ParseIntList("3,x")
	assert.ErrorIs(t, err, ErrMalformed)
}
