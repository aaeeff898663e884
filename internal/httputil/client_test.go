package httputil

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStandardClient_Wraps(t *testing.T) {
	customClient := &http.Client{}
	client := NewStandardClient(customClient)

	if client.Client != customClient {
		t.Error("expected custom client to be wrapped")
	}
}

func TestStandardClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("1 25544U 98067A\n"))
	}))
	defer server.Close()

	client := NewStandardClient(nil)
	req, err := http.NewRequest(http.MethodGet, server.URL+"/tle", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "1 25544U 98067A\n" {
		t.Errorf("got body %q", string(body))
	}
}

func TestMockHTTPClient_AddResponse(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, "feed one")
	mock.AddResponse(http.StatusOK, "feed two")

	if len(mock.Responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(mock.Responses))
	}
}

func TestMockHTTPClient_Do_ReturnsQueuedResponse(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, "ISS (ZARYA)\n")

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/tle", nil)
	resp, err := mock.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ISS (ZARYA)\n" {
		t.Errorf("got body %q", string(body))
	}

	if len(mock.Requests) != 1 {
		t.Errorf("got %d recorded requests, want 1", len(mock.Requests))
	}
}

func TestMockHTTPClient_Do_MultipleQueuedResponsesServedInOrder(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, "first")
	mock.AddResponse(http.StatusOK, "second")

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/tle", nil)

	resp1, _ := mock.Do(req)
	body1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()
	if string(body1) != "first" {
		t.Errorf("first response: got %q, want 'first'", string(body1))
	}

	resp2, _ := mock.Do(req)
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	if string(body2) != "second" {
		t.Errorf("second response: got %q, want 'second'", string(body2))
	}
}

func TestMockHTTPClient_AddErrorResponse(t *testing.T) {
	mock := NewMockHTTPClient()
	expectedErr := errors.New("connection refused")
	mock.AddErrorResponse(expectedErr)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/tle", nil)
	_, err := mock.Do(req)
	if err != expectedErr {
		t.Errorf("got error %v, want %v", err, expectedErr)
	}
}

func TestMockHTTPClient_DefaultResponse(t *testing.T) {
	// When no responses are queued, Do should return an empty 200 rather
	// than panic, so a test that forgets to queue a response fails loudly
	// in its own assertions instead of crashing the test binary.
	mock := NewMockHTTPClient()

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/tle", nil)
	resp, err := mock.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

