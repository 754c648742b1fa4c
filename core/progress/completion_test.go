package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletion_isCompleted(t *testing.T) {
	tests := []struct {
		name string
		c    Completion
		want bool
	}{
		{name: "exactly one", c: NewCompletion(1, 0.5), want: true},
		{name: "zero", c: NewCompletion(0, 0), want: false},
		{name: "just below one", c: NewCompletion(0.999999, 1), want: false},
		{name: "above one", c: NewCompletion(1.000001, 1), want: false},
		{name: "unset value", c: Completion{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.IsCompleted())
		})
	}
}

func TestCompletion_equalDistinguishesUnsetFromZero(t *testing.T) {
	assert.True(t, NewCompletion(0.5, 0.7).Equal(NewCompletion(0.5, 0.7)))
	assert.False(t, NewCompletion(0, 0).Equal(Completion{}))
	assert.False(t, NewCompletion(0.5, 0.7).Equal(NewCompletion(0.5, 0.8)))
}
