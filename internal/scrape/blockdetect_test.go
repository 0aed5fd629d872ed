package scrape

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlockCloudflareHeaders(t *testing.T) {
	resp := &http.Response{StatusCode: 403, Header: http.Header{}}
	resp.Header.Set("cf-ray", "abc")

	blocked, bt := DetectBlock(resp, []byte(strings.Repeat("x", 100)))
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, bt)
}

func TestDetectBlockCaptcha(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Header: http.Header{}}

	blocked, bt := DetectBlock(resp, []byte("please complete the reCAPTCHA to continue"))
	assert.True(t, blocked)
	assert.Equal(t, BlockCaptcha, bt)
}

func TestDetectBlockJSShell(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Header: http.Header{}}

	blocked, bt := DetectBlock(resp, []byte(`<html><noscript>This site requires JavaScript</noscript></html>`))
	assert.True(t, blocked)
	assert.Equal(t, BlockJSShell, bt)
}

func TestDetectBlockCleanPage(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Header: http.Header{}}

	blocked, bt := DetectBlock(resp, []byte("<html><body>Mario's Pizzeria, authentic Italian food</body></html>"))
	assert.False(t, blocked)
	assert.Equal(t, BlockNone, bt)
}
