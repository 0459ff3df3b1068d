package cv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlOrderedRange(t *testing.T) {
	var applied int
	ctrl := &ControlOrdered[int]{
		Name:        "Kernel size",
		Description: "Structuring element side length",
		Value:       3,
		Min:         1,
		Max:         15,
		Step:        2,
		OnChange: func(v int) error {
			applied = v
			return nil
		},
	}

	name, desc := ctrl.Describe()
	assert.Equal(t, "Kernel size", name)
	assert.NotEmpty(t, desc)

	require.NoError(t, ctrl.ChangeValue(7))
	assert.Equal(t, 7, applied)
	assert.Equal(t, 7, ctrl.ActualValue())

	// Limits are inclusive.
	require.NoError(t, ctrl.ChangeValue(1))
	require.NoError(t, ctrl.ChangeValue(15))

	// Out-of-range values are rejected without invoking the callback.
	applied = 0
	assert.Error(t, ctrl.ChangeValue(0))
	assert.Error(t, ctrl.ChangeValue(16))
	assert.Equal(t, 0, applied)
	assert.Equal(t, 15, ctrl.ActualValue())

	// As is a value of the wrong dynamic type.
	assert.Error(t, ctrl.ChangeValue(uint8(5)))
}
