package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWeekdays(t *testing.T) {
	assert.Nil(t, ParseWeekdays(""))
	assert.Equal(t, []int{1}, ParseWeekdays("1"))
	assert.Equal(t, []int{0, 2, 4}, ParseWeekdays("0,2,4"))

	// Whitespace is tolerated, junk entries are dropped
	assert.Equal(t, []int{1, 3}, ParseWeekdays(" 1, 3 "))
	assert.Equal(t, []int{5}, ParseWeekdays("x,5"))
}
