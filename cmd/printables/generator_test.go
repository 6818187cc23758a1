package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-printables/internal/config"
)

func TestHTTPGenerator_Generate(t *testing.T) {
	t.Parallel()

	img := pngBytes(t)
	var gotReq generateRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png; charset=binary")
		_, _ = w.Write(img)
	}))
	t.Cleanup(srv.Close)

	gen := newHTTPGenerator(config.GeneratorConfig{Endpoint: srv.URL, APIKey: "k-123"})
	data, contentType, err := gen.Generate(context.Background(), "a smiling sun", map[string]any{"seed": 42.0})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if contentType != "image/png" || len(data) != len(img) {
		t.Errorf("Generate() = %d bytes of %q", len(data), contentType)
	}
	if gotReq.Prompt != "a smiling sun" || gotReq.Params["seed"] != 42.0 {
		t.Errorf("request = %+v", gotReq)
	}
	if gotAuth != "Bearer k-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestHTTPGenerator_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
			want: "quota exceeded",
		},
		{
			name: "not an image",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("sorry, no picture today"))
			},
			want: "not an image",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			gen := newHTTPGenerator(config.GeneratorConfig{Endpoint: srv.URL})
			_, _, err := gen.Generate(context.Background(), "x", nil)
			if !errors.Is(err, errGeneratorResponse) {
				t.Fatalf("error = %v, want errGeneratorResponse", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestHTTPGenerator_NoAuthHeaderWithoutKey(t *testing.T) {
	t.Parallel()

	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			http.Error(w, "unexpected auth", http.StatusBadRequest)
			return
		}
		// No content type: detected from the bytes.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write(img)
	}))
	t.Cleanup(srv.Close)

	gen := newHTTPGenerator(config.GeneratorConfig{Endpoint: srv.URL, Timeout: time.Second})
	_, contentType, err := gen.Generate(context.Background(), "x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "image/png" {
		t.Errorf("contentType = %q, want image/png", contentType)
	}
	if gen.client.Timeout != time.Second {
		t.Errorf("client timeout = %v, want 1s", gen.client.Timeout)
	}
}
