package proctitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "engagement", Format("engagement", "production"))
	assert.Equal(t, "engagement:deve", Format("engagement", "development"))
	assert.Equal(t, "api", Format(" api ", ""))
}
