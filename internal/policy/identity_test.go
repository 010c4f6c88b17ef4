package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stringID string

func (s stringID) String() string { return string(s) }

func TestNormalizeID(t *testing.T) {
	var nilPtr *uint64
	seven := uint64(7)
	sevenStr := "7"

	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{nilPtr, ""},
		{"", ""},
		{"   ", ""},
		{uint64(7), "7"},
		{uint(7), "7"},
		{7, "7"},
		{int64(7), "7"},
		{float64(7), "7"},
		{"7", "7"},
		{" 007 ", "7"},
		{&seven, "7"},
		{&sevenStr, "7"},
		{stringID("64f0c2"), "64f0c2"},
		{"64f0c2a1b9", "64f0c2a1b9"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeID(tc.in), "%#v", tc.in)
	}
}

func TestSameIdentity(t *testing.T) {
	seven := uint64(7)

	assert.True(t, SameIdentity(uint64(7), "7"))
	assert.True(t, SameIdentity(&seven, float64(7)))
	assert.False(t, SameIdentity(uint64(7), uint64(8)))
	assert.False(t, SameIdentity(nil, nil))
	assert.False(t, SameIdentity("", ""))
	assert.False(t, SameIdentity(nil, ""))
}
