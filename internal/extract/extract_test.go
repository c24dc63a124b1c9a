package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestPlanOverviewPlainText(t *testing.T) {
	got, err := PlanOverview([]byte("3 bed 2 bath single family"), "text/plain", "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "3 bed 2 bath single family" {
		t.Fatalf("unexpected overview: %q", got)
	}
}

func TestPlanOverviewImageYieldsEmpty(t *testing.T) {
	got, err := PlanOverview([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png", "site.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty overview for image, got %q", got)
	}
}

func TestPlanOverviewDOCX(t *testing.T) {
	doc := `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>Two story residence</t></r></p>
    <p><r><t>Footprint 1800 sq ft</t></r></p>
  </body>
</document>`
	data := buildDOCX(t, doc)

	got, err := PlanOverview(data, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "plan.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "Two story residence") || !strings.Contains(got, "Footprint 1800 sq ft") {
		t.Fatalf("overview missing paragraphs: %q", got)
	}
}

func TestPlanOverviewDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	if _, err := PlanOverview(buf.Bytes(), "", "plan.docx"); err == nil {
		t.Fatal("expected error for docx without document.xml")
	}
}

func TestPlanOverviewTrimsLongText(t *testing.T) {
	long := strings.Repeat("a", overviewLimit+500)
	got, err := PlanOverview([]byte(long), "text/plain", "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != overviewLimit {
		t.Fatalf("expected overview trimmed to %d, got %d", overviewLimit, len(got))
	}
}

func TestPlanOverviewUnknownBinary(t *testing.T) {
	got, err := PlanOverview([]byte{0x00, 0x01, 0x02}, "application/octet-stream", "plan.bin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty overview, got %q", got)
	}
}
