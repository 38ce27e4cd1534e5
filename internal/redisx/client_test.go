package redisx

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestNew_appliesCommandTimeouts(t *testing.T) {
	c := New("localhost:6379")
	defer func() { _ = c.Close() }()

	assert.Equal(t, "localhost:6379", c.Options().Addr)
	assert.Equal(t, 2*time.Second, c.Options().ReadTimeout)
	assert.Equal(t, 2*time.Second, c.Options().WriteTimeout)
}
