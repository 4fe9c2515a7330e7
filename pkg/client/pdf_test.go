package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexapdf/nexa/pkg/domain"
)

func TestMergeRequiresTwoFiles(t *testing.T) {
	c := New("http://unused", nil)
	if _, err := c.Merge(context.Background(), []FormFile{{Name: "one.pdf"}}, nil); err == nil {
		t.Fatal("expected error for single-file merge")
	}
}

func TestMergePostsAllFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pdf/merge/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Errorf("got %d files under 'files', want 2", len(files))
		}
		w.Write([]byte("merged")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	dl, err := c.Merge(context.Background(), []FormFile{
		{Name: "a.pdf", Data: []byte("a")},
		{Name: "b.pdf", Data: []byte("b")},
	}, nil)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if dl.Filename != "merged.pdf" {
		t.Errorf("Filename = %q, want merged.pdf fallback", dl.Filename)
	}
}

func TestSplitSendsModeFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("split_type"); got != "range" {
			t.Errorf("split_type = %q", got)
		}
		if got := r.FormValue("split_value"); got != "1-3" {
			t.Errorf("split_value = %q", got)
		}
		w.Write([]byte("zip")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if _, err := c.Split(context.Background(), FormFile{Name: "doc.pdf", Data: []byte("x")}, "range", "1-3", nil); err != nil {
		t.Fatalf("Split() error: %v", err)
	}
}

func TestExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pdf/extract-text/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"text":"Page one (OCR)","page_count":1,"char_count":14}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	out, err := c.ExtractText(context.Background(), FormFile{Name: "scan.pdf", Data: []byte("x")}, nil)
	if err != nil {
		t.Fatalf("ExtractText() error: %v", err)
	}
	if out.Text != "Page one (OCR)" {
		t.Errorf("Text = %q", out.Text)
	}
	if !out.UsedOCR() {
		t.Error("expected UsedOCR()=true for (OCR)-marked text")
	}
	if out.PageCount != 1 || out.CharCount != 14 {
		t.Errorf("counts = %d/%d", out.PageCount, out.CharCount)
	}
}

func TestConvertRoutes(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("out")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	tests := []struct {
		op   domain.Operation
		path string
	}{
		{domain.OpWordToPDF, "/pdf/convert/word-to-pdf/"},
		{domain.OpPDFToWord, "/pdf/convert/pdf-to-word/"},
		{domain.OpExcelToPDF, "/pdf/convert/excel-to-pdf/"},
		{domain.OpPDFToExcel, "/pdf/convert/pdf-to-excel/"},
		{domain.OpPowerPointToPDF, "/pdf/convert/powerpoint-to-pdf/"},
		{domain.OpPDFToPowerPoint, "/pdf/convert/pdf-to-powerpoint/"},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			if _, err := c.Convert(context.Background(), tt.op, FormFile{Name: "f", Data: []byte("x")}, nil); err != nil {
				t.Fatalf("Convert(%s) error: %v", tt.op, err)
			}
			if gotPath != tt.path {
				t.Errorf("path = %q, want %q", gotPath, tt.path)
			}
		})
	}
}

func TestConvertRejectsNonConversion(t *testing.T) {
	c := New("http://unused", nil)
	if _, err := c.Convert(context.Background(), domain.OpMerge, FormFile{Name: "f"}, nil); err == nil {
		t.Fatal("expected error for non-conversion operation")
	}
}

func TestProcessingErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"file is not a valid PDF"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Compress(context.Background(), FormFile{Name: "bad.pdf", Data: []byte("x")}, nil)
	if !IsStatus(err, 400) {
		t.Fatalf("expected 400 APIError, got %v", err)
	}
}
