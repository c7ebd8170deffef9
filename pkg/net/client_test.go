package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func TestGetHTTPClient(t *testing.T) {
	client := GetHTTPClient(0)
	require.NotNil(t, client)
	assert.Equal(t, TimeoutDefault, client.Timeout)

	client = GetHTTPClient(2 * time.Second)
	assert.Equal(t, 2*time.Second, client.Timeout)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"clinvar"}`))
	}))
	defer srv.Close()

	var p payload
	err := GetJSON(context.Background(), srv.Client(), srv.URL, &p)
	require.NoError(t, err)
	assert.Equal(t, "clinvar", p.Name)
}

func TestGetJSON_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var p payload
	err := GetJSON(context.Background(), srv.Client(), srv.URL, &p)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestGetJSON_Decode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	var p payload
	err := GetJSON(context.Background(), srv.Client(), srv.URL, &p)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestGetJSON_NilClient(t *testing.T) {
	var p payload
	assert.Error(t, GetJSON(context.Background(), nil, "http://localhost", &p))
}

func TestPrintHTTPResponse_Nil(t *testing.T) {
	// should not panic
	PrintHTTPResponse(nil)
}

func TestPrintHTTPResponse_WithResponse(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       http.NoBody,
	}
	// should not panic
	PrintHTTPResponse(resp)
}
