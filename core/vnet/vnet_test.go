package vnet

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowList(t *testing.T) {
	c := New([]string{"example.com", "*.trusted.org"}, 1)
	assert.True(t, c.Allowed("example.com"))
	assert.True(t, c.Allowed("EXAMPLE.COM"))
	assert.True(t, c.Allowed("example.com:8080"))
	assert.True(t, c.Allowed("api.trusted.org"))
	assert.True(t, c.Allowed("deep.api.trusted.org"))
	assert.False(t, c.Allowed("evil.com"))
	assert.False(t, c.Allowed("notexample.com"))
}

func TestDisabledByDefault(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	assert.False(t, c.Allowed("example.com"))

	empty := New(nil, 1)
	assert.False(t, empty.Enabled())
	req, err := http.NewRequest("GET", "http://example.com/", nil)
	require.NoError(t, err)
	_, err = empty.Do(req)
	require.Error(t, err)
}

func TestDoRefusesUnlistedHost(t *testing.T) {
	c := New([]string{"allowed.test"}, 1)
	req, err := http.NewRequest("GET", "http://other.test/", nil)
	require.NoError(t, err)
	_, err = c.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allow list")
}
