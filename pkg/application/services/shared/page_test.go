package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Page: 2, Limit: MaxPageSize}, Page{Page: 2, Limit: 500}.Normalize())
	assert.Equal(t, 40, Page{Page: 3, Limit: 20}.Offset())
}

func TestWindow(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Window(rows, Page{Page: 2, Limit: 2}))
	assert.Equal(t, []int{5}, Window(rows, Page{Page: 3, Limit: 2}))
	assert.Empty(t, Window(rows, Page{Page: 4, Limit: 2}))
}
