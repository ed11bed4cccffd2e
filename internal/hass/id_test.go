package hass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeID(t *testing.T) {
	id, err := SanitizeID("now-is-the-time")
	assert.NoError(t, err)
	assert.Equal(t, "now-is-the-time", id)

	id, err = SanitizeID("Office Strip")
	assert.NoError(t, err)
	assert.Equal(t, "office-strip", id)

	id, err = SanitizeID("Back_Porch 2")
	assert.NoError(t, err)
	assert.Equal(t, "back-porch-2", id)

	// separators never survive at the edges
	id, err = SanitizeID("-Strip-")
	assert.NoError(t, err)
	assert.Equal(t, "strip", id)

	_, err = SanitizeID("!!!")
	assert.Error(t, err)
	_, err = SanitizeID("")
	assert.Error(t, err)
}
