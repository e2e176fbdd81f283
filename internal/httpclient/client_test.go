package httpclient

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	c := New(5 * time.Second)

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"public https", "https://www.googleapis.com/customsearch/v1", false},
		{"public http", "http://example.com/search", false},
		{"localhost blocked", "http://localhost:8080/", true},
		{"loopback blocked", "http://127.0.0.1/", true},
		{"private range blocked", "http://192.168.1.10/", true},
		{"link-local blocked", "http://169.254.169.254/latest/meta-data", true},
		{"file scheme blocked", "file:///etc/passwd", true},
		{"credential confusion blocked", "http://evil.com@localhost/", true},
		{"missing hostname", "https:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, isPrivateIP(net.ParseIP("10.0.0.1")))
	assert.True(t, isPrivateIP(net.ParseIP("172.16.0.1")))
	assert.True(t, isPrivateIP(net.ParseIP("::1")))
	assert.True(t, isPrivateIP(net.ParseIP("fd00::1")))
	assert.False(t, isPrivateIP(net.ParseIP("8.8.8.8")))
	assert.False(t, isPrivateIP(net.ParseIP("2606:4700::1111")))
}

func TestWrapClientAllowsLocalhost(t *testing.T) {
	c := WrapClient(nil)
	_, err := c.ValidateURL("http://127.0.0.1:9999/")
	assert.NoError(t, err)
}
