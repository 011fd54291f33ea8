package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

const delineateResponse = `{
	"boundaries": {
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {}, "geometry":
				{"type": "Polygon", "coordinates": [[[7.0,47.0],[7.1,47.0],[7.1,47.1],[7.0,47.0]]]}}
		]
	},
	"metadata": {"fieldCount": 1, "processingTime": 4200, "confidence": 0.91}
}`

func TestDelineateSuccess(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(delineateResponse))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	req := Request{
		BBox:    [2][2]float64{{47.0, 7.0}, {47.1, 7.1}},
		ModelID: "delineate-v1",
	}
	result, err := c.Delineate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if got.ModelID != "delineate-v1" {
		t.Fatalf("server saw modelId=%q", got.ModelID)
	}
	if got.BBox != req.BBox {
		t.Fatalf("server saw bbox=%v, want %v", got.BBox, req.BBox)
	}
	if len(result.Boundaries.Features) != 1 {
		t.Fatalf("boundaries=%d, want 1", len(result.Boundaries.Features))
	}
	if result.Metadata.FieldCount != 1 || result.Metadata.Confidence != 0.91 {
		t.Fatalf("metadata=%+v", result.Metadata)
	}
}

func TestDelineateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, 50*time.Millisecond, zap.NewNop())
	_, err := c.Delineate(context.Background(), Request{})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err=%v, want ErrTimeout", err)
	}
}

func TestDelineateRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": "bbox outside model coverage"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	_, err := c.Delineate(context.Background(), Request{})

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err=%v, want *RemoteError", err)
	}
	if remote.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", remote.StatusCode)
	}
	if remote.Message != "bbox outside model coverage" {
		t.Fatalf("message=%q", remote.Message)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatal("remote error must not look like a timeout")
	}
}

func TestDelineateNetworkError(t *testing.T) {
	// A closed server produces a connection error, not a timeout.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	_, err := c.Delineate(context.Background(), Request{})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err=%v, want *NetworkError", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatal("connection error must not look like a timeout")
	}
}

func TestDelineateRejectsMissingBoundaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata": {"fieldCount": 0}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	if _, err := c.Delineate(context.Background(), Request{}); err == nil {
		t.Fatal("response without boundaries accepted")
	}
}

func TestDefaultTimeoutApplied(t *testing.T) {
	c := New("http://localhost:1", 0, zap.NewNop())
	if c.Timeout() != DefaultTimeout {
		t.Fatalf("timeout=%v, want %v", c.Timeout(), DefaultTimeout)
	}
	c = New("http://localhost:1", -time.Second, zap.NewNop())
	if c.Timeout() != DefaultTimeout {
		t.Fatalf("negative timeout=%v, want %v", c.Timeout(), DefaultTimeout)
	}
}
