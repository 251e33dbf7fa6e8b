package procmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGroups(t *testing.T) {
	testCases := []struct {
		description string
		specs       []string
		size        int
		all         []string
		expect      []Group
		expectErr   bool
	}{
		{
			description: "explicit",
			specs:       []string{"sim=3", "analysis=1"},
			size:        4,
			expect:      []Group{{Name: "sim", Size: 3}, {Name: "analysis", Size: 1}},
		},
		{
			description: "leftover split",
			specs:       []string{"sim=2", "b", "a"},
			size:        7,
			expect:      []Group{{Name: "sim", Size: 2}, {Name: "a", Size: 2}, {Name: "b", Size: 3}},
		},
		{
			description: "all groups",
			specs:       []string{"sim=2"},
			size:        4,
			all:         []string{"sim", "analysis"},
			expect:      []Group{{Name: "sim", Size: 2}, {Name: "analysis", Size: 2}},
		},
		{description: "exceeds", specs: []string{"sim=5"}, size: 4, expectErr: true},
		{description: "malformed", specs: []string{"sim=x"}, size: 4, expectErr: true},
		{description: "negative", specs: []string{"sim=-1"}, size: 4, expectErr: true},
		{description: "no name", specs: []string{"=1"}, size: 4, expectErr: true},
	}
	for _, tc := range testCases {
		actual, err := ParseGroups(tc.specs, tc.size, tc.all...)
		if tc.expectErr {
			assert.True(t, errors.Is(err, ErrConfiguration), tc.description)
			continue
		}
		assert.NoError(t, err, tc.description)
		assert.Equal(t, tc.expect, actual, tc.description)
	}
}

func TestGroups(t *testing.T) {
	groups, err := Groups("producer", 2, "consumer", 2)
	assert.NoError(t, err)
	assert.Equal(t, []Group{{Name: "producer", Size: 2}, {Name: "consumer", Size: 2}}, groups)
	_, err = Groups("producer")
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = Groups(1, 2)
	assert.True(t, errors.Is(err, ErrConfiguration))
}
