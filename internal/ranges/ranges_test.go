package ranges

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_ValidExpressions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []int
	}{
		{"single_number", "3", []int{3}},
		{"simple_range", "2-5", []int{2, 3, 4, 5}},
		{"reversed_range_swaps", "5-2", []int{2, 3, 4, 5}},
		{"list_is_sorted", "3,1,5", []int{1, 3, 5}},
		{"list_with_range", "1,3-5,7", []int{1, 3, 4, 5, 7}},
		{"duplicates_removed", "3,5,3,1", []int{1, 3, 5}},
		{"overlapping_ranges", "2-4,3-6", []int{2, 3, 4, 5, 6}},
		{"single_item_range", "4-4", []int{4}},
		{"whitespace_ignored", "  1 , 3-5 , 7 ", []int{1, 3, 4, 5, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_InvalidExpressions(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"zero", "0"},
		{"negative", "-1"},
		{"letters", "abc"},
		{"trailing_dash", "1-"},
		{"leading_dash", "-5"},
		{"double_range", "1-2-3"},
		{"empty_term", "1,,3"},
		{"trailing_comma", "1,2,"},
		{"zero_in_range", "0-3"},
		{"garbage_in_list", "1,x,3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			assert.Error(t, err)
			assert.Nil(t, got, "a failed parse must not return a partial result")
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t"} {
		got, err := Parse(input)
		assert.ErrorIs(t, err, ErrEmpty)
		assert.Nil(t, got)
	}

	// Malformed input is an error but not ErrEmpty, so callers can phrase
	// "no input" differently from "bad syntax".
	_, err := Parse("abc")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmpty)
}
