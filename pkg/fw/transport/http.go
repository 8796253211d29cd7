// Package transport builds the HTTP clients used to talk to quote vendors.
package transport

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Options configures NewClient.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	UserAgent string
	Referer   string
}

// NewClient returns a resty client with vendor-friendly headers and
// transparent br/gzip decoding.
func NewClient(o Options) *resty.Client {
	c := resty.New().
		SetTimeout(o.Timeout).
		SetRetryCount(o.Retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "*/*").
		SetHeader("Accept-Encoding", "gzip, br").
		OnAfterResponse(Decompress)
	if o.BaseURL != "" {
		c.SetBaseURL(o.BaseURL)
	}
	if o.UserAgent != "" {
		c.SetHeader("User-Agent", o.UserAgent)
	}
	if o.Referer != "" {
		c.SetHeader("Referer", o.Referer)
	}
	return c
}

// Decompress replaces a br or gzip encoded body with its plain bytes. Setting
// Accept-Encoding by hand disables the standard library's transparent gzip
// handling. A gzip body that was already inflated upstream is left alone.
func Decompress(_ *resty.Client, resp *resty.Response) error {
	body := resp.Body()
	if len(body) == 0 {
		return nil
	}
	var r io.Reader
	switch resp.Header().Get("Content-Encoding") {
	case "br":
		r = brotli.NewReader(bytes.NewReader(body))
	case "gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return nil
		}
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("gzip body: %w", err)
		}
		defer gz.Close()
		r = gz
	default:
		return nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("decompress body: %w", err)
	}
	resp.SetBody(b)
	return nil
}

// CheckStatus turns a non-2xx response into an error.
func CheckStatus(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return fmt.Errorf("%s %s: %s", resp.Request.Method, resp.Request.URL, resp.Status())
}

// DecodeGBK converts a GBK payload to UTF-8. Undecodable input is returned
// unchanged so numeric fields still parse; names are repaired downstream.
func DecodeGBK(b []byte) []byte {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(b)
	if err != nil {
		return b
	}
	return out
}
