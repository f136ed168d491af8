package httpxfer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestUploadSendsBodyWithContentType(t *testing.T) {
	var gotBody []byte
	var gotType string
	var gotLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotType = r.Header.Get("Content-Type")
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "staged.pdf")
	if err := os.WriteFile(path, []byte("pdf bytes"), 0o600); err != nil {
		t.Fatalf("write staged file: %v", err)
	}

	client := New(5 * time.Second)
	if err := client.Upload(context.Background(), srv.URL, path, "application/pdf"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if string(gotBody) != "pdf bytes" {
		t.Fatalf("body = %q", gotBody)
	}
	if gotType != "application/pdf" {
		t.Fatalf("content type = %q", gotType)
	}
	if gotLength != int64(len("pdf bytes")) {
		t.Fatalf("content length = %d", gotLength)
	}
}

func TestUploadRejectedStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "SignatureDoesNotMatch", http.StatusForbidden)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "staged.pdf")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write staged file: %v", err)
	}

	client := New(5 * time.Second)
	if err := client.Upload(context.Background(), srv.URL, path, "application/pdf"); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestDownloadWritesLocalFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("object bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "c1_a.pdf")
	client := New(5 * time.Second)
	if err := client.Download(context.Background(), srv.URL, path); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "object bytes" {
		t.Fatalf("data = %q", data)
	}
}

func TestDownloadErrorStatusLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "NoSuchKey", http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "c1_a.pdf")
	client := New(5 * time.Second)
	if err := client.Download(context.Background(), srv.URL, path); err == nil {
		t.Fatalf("expected error on 404")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file on failed download")
	}
}
