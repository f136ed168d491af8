package domain

import (
	"strings"
	"testing"
)

func TestStorageNameShape(t *testing.T) {
	name := StorageName("claim-1", "application/pdf")
	if !strings.HasPrefix(name, "claim-1_") {
		t.Fatalf("expected claim prefix, got %s", name)
	}
	if !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("expected .pdf suffix, got %s", name)
	}

	other := StorageName("claim-1", "application/pdf")
	if name == other {
		t.Fatalf("expected unique names per allocation")
	}
}

func TestFileExt(t *testing.T) {
	cases := map[string]string{
		"application/pdf":          ".pdf",
		"image/png":                ".jpg",
		"image/jpeg":               ".jpg",
		"application/octet-stream": ".bin",
	}
	for mime, want := range cases {
		if got := FileExt(mime); got != want {
			t.Fatalf("FileExt(%s) = %s, want %s", mime, got, want)
		}
	}
}

func TestObjectKeyNamespacing(t *testing.T) {
	if got := ObjectKey("c1_x.pdf"); got != "medical_reports/c1_x.pdf" {
		t.Fatalf("unexpected key %s", got)
	}
}
