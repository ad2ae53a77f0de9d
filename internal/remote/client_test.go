package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSubmitSendsMultipartFields(t *testing.T) {
	var (
		gotFilename    string
		gotContentType string
		gotData        []byte
		gotCaption     string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		file, header, err := r.FormFile(FieldFile)
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotContentType = header.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(file)
		gotCaption = r.FormValue(FieldCaption)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"id":"m-1"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ack, err := client.Submit(context.Background(), Payload{
		Filename:    "beach.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xff, 0xd8, 0xff},
		Caption:     "sunset",
	})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if !ack.OK || ack.ID != "m-1" {
		t.Fatalf("unexpected ack %+v", ack)
	}
	if gotFilename != "beach.jpg" {
		t.Fatalf("expected filename beach.jpg, got %q", gotFilename)
	}
	if gotContentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg part, got %q", gotContentType)
	}
	if len(gotData) != 3 {
		t.Fatalf("expected 3 file bytes, got %d", len(gotData))
	}
	if gotCaption != "sunset" {
		t.Fatalf("expected caption sunset, got %q", gotCaption)
	}
}

func TestSubmitSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"quota"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Submit(context.Background(), Payload{Filename: "a.jpg"})
	var rejected *RemoteRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RemoteRejectedError, got %v", err)
	}
	if err.Error() != "quota" {
		t.Fatalf("expected quota detail, got %q", err.Error())
	}
}

func TestSubmitFallsBackToHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Submit(context.Background(), Payload{Filename: "a.jpg"})
	if err == nil || err.Error() != "HTTP 502" {
		t.Fatalf("expected HTTP 502, got %v", err)
	}
}

func TestSubmitTreatsUnreadableAckAsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Submit(context.Background(), Payload{Filename: "a.jpg"})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestSubmitSignsWhenSecretConfigured(t *testing.T) {
	var verified bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		verified = Verify("test-secret", r.Header.Get(HeaderTimestamp), body, r.Header.Get(HeaderSignature))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL, SigningSecret: "test-secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Submit(context.Background(), Payload{Filename: "a.jpg", Data: []byte("x")}); err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if !verified {
		t.Fatal("expected a verifiable signature")
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
