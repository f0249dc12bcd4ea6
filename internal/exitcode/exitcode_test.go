package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minibundle/minibundle/internal/exitcode"
)

func TestGet(t *testing.T) {
	usage := exitcode.Usage(errors.New("bad flag"))
	wrapped := fmt.Errorf("wrapping: %w", usage)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"plain", errors.New("failed"), exitcode.BuildFailed},
		{"usage", usage, exitcode.InvalidUsage},
		{"set", exitcode.Set(errors.New(""), 7), 7},
		{"wrapped", wrapped, exitcode.InvalidUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitcode.Get(tt.err))
		})
	}
}

func TestSetKeepsTheError(t *testing.T) {
	err := errors.New("hello")
	coder := exitcode.Set(err, 3)
	assert.Equal(t, err.Error(), coder.Error())
	assert.ErrorIs(t, coder, err)
	assert.Nil(t, exitcode.Set(nil, 3))
}
