package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name, body, cb, want string
		err                  bool
	}{
		{"named", `cb1({"a":1});`, "cb1", `{"a":1}`, false},
		{"any name", ` jsonpgz({"fundcode":"000001"});`, "", `{"fundcode":"000001"}`, false},
		{"empty args", `jsonpgz();`, "", "", false},
		{"wrong name", `other({});`, "cb1", "", true},
		{"no wrapper", `{"a":1}`, "", "", true},
		{"unterminated", `cb({"a":1}`, "", "", true},
	}
	for _, tt := range tests {
		got, err := Unwrap([]byte(tt.body), tt.cb)
		if (err != nil) != tt.err {
			t.Errorf("Unwrap(%s) error = %v, want error %v", tt.name, err, tt.err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("Unwrap(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestJSONPCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cb := r.URL.Query().Get("cb")
		fmt.Fprintf(w, `%s({"data":{"f43":3050}});`, cb)
	}))
	defer srv.Close()

	j := NewJSONP(NewClient(Options{Timeout: time.Second}), time.Second)
	body, err := j.Call(context.Background(), srv.URL, map[string]string{"secid": "1.000001"}, "cb")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if string(body) != `{"data":{"f43":3050}}` {
		t.Errorf("Call() = %s", body)
	}
	if n := j.Pending(); n != 0 {
		t.Errorf("Pending() = %d after success, want 0", n)
	}
}

func TestJSONPTimeoutReleasesCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	j := NewJSONP(NewClient(Options{Timeout: 5 * time.Second}), 50*time.Millisecond)
	_, err := j.Call(context.Background(), srv.URL, nil, "cb")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Call() error = %v, want ErrTimeout", err)
	}
	if n := j.Pending(); n != 0 {
		t.Errorf("Pending() = %d after timeout, want 0", n)
	}
}

func TestJSONPErrorReleasesCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	j := NewJSONP(NewClient(Options{Timeout: time.Second}), time.Second)
	if _, err := j.Call(context.Background(), srv.URL, nil, "cb"); err == nil {
		t.Errorf("Call() error = nil, want status error")
	}
	if n := j.Pending(); n != 0 {
		t.Errorf("Pending() = %d after error, want 0", n)
	}
}

func TestDecompressGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("plain text"))
	zw.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	resp, err := NewClient(Options{Timeout: time.Second}).R().Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(resp.Body()) != "plain text" {
		t.Errorf("Body() = %q, want plain text", resp.Body())
	}
}

func TestDecodeGBK(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("上证指数"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(DecodeGBK(gbk)); got != "上证指数" {
		t.Errorf("DecodeGBK() = %q, want 上证指数", got)
	}
}
