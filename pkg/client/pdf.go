package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/nexapdf/nexa/pkg/domain"
)

// FormFile is one file part of a multipart upload.
type FormFile struct {
	Field string
	Name  string
	Data  []byte
}

// UploadProgress receives the number of body bytes written so far and the
// total body size while an upload streams.
type UploadProgress func(written, total int64)

// progressReader wraps a reader and reports cumulative progress.
type progressReader struct {
	r       io.Reader
	total   int64
	written int64
	report  UploadProgress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		p.report(p.written, p.total)
	}
	return n, err
}

// doForm posts a multipart form and returns the raw response. The encoded
// body is buffered so a 401 refresh-and-retry can resend it.
func (c *Client) doForm(ctx context.Context, path string, fields map[string]string, files []FormFile, progress UploadProgress) (*http.Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form writer: %w", err)
	}

	payload := buf.Bytes()
	contentType := w.FormDataContentType()

	build := func() (*http.Request, error) {
		var body io.Reader = bytes.NewReader(payload)
		if progress != nil {
			body = &progressReader{r: body, total: int64(len(payload)), report: progress}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = int64(len(payload))
		return req, nil
	}

	resp, err := c.doWithRefresh(ctx, build)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close() //nolint:errcheck
		return nil, readAPIError(resp)
	}
	return resp, nil
}

// processToFile runs a multipart operation whose result is a binary download.
func (c *Client) processToFile(ctx context.Context, path string, fields map[string]string, files []FormFile, fallbackName string, progress UploadProgress) (*Download, error) {
	resp, err := c.doForm(ctx, path, fields, files, progress)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	return downloadFrom(resp, fallbackName)
}

// Merge combines two or more PDFs into one.
func (c *Client) Merge(ctx context.Context, files []FormFile, progress UploadProgress) (*Download, error) {
	if len(files) < 2 {
		return nil, fmt.Errorf("client.Merge: need at least 2 files, got %d", len(files))
	}
	for i := range files {
		files[i].Field = "files"
	}
	dl, err := c.processToFile(ctx, "/pdf/merge/", nil, files, "merged.pdf", progress)
	if err != nil {
		return nil, fmt.Errorf("client.Merge: %w", err)
	}
	return dl, nil
}

// Split splits a PDF by the given mode ("pages", "range", "every") and
// returns a zip of the parts.
func (c *Client) Split(ctx context.Context, file FormFile, splitType, splitValue string, progress UploadProgress) (*Download, error) {
	file.Field = "file"
	fields := map[string]string{"split_type": splitType}
	if splitValue != "" {
		fields["split_value"] = splitValue
	}
	dl, err := c.processToFile(ctx, "/pdf/split/", fields, []FormFile{file}, "split.zip", progress)
	if err != nil {
		return nil, fmt.Errorf("client.Split: %w", err)
	}
	return dl, nil
}

// Compress reduces a PDF's file size.
func (c *Client) Compress(ctx context.Context, file FormFile, progress UploadProgress) (*Download, error) {
	file.Field = "file"
	dl, err := c.processToFile(ctx, "/pdf/compress/", nil, []FormFile{file}, "compressed_"+file.Name, progress)
	if err != nil {
		return nil, fmt.Errorf("client.Compress: %w", err)
	}
	return dl, nil
}

// PDFToImages renders PDF pages to images ("jpg" or "png") at the given DPI
// and returns them zipped.
func (c *Client) PDFToImages(ctx context.Context, file FormFile, format string, dpi int, progress UploadProgress) (*Download, error) {
	file.Field = "file"
	fields := map[string]string{
		"format": format,
		"dpi":    strconv.Itoa(dpi),
	}
	dl, err := c.processToFile(ctx, "/pdf/convert/pdf-to-img/", fields, []FormFile{file}, "images.zip", progress)
	if err != nil {
		return nil, fmt.Errorf("client.PDFToImages: %w", err)
	}
	return dl, nil
}

// ImagesToPDF builds a single PDF from images. rotations, when non-nil, holds
// one clockwise angle per image.
func (c *Client) ImagesToPDF(ctx context.Context, files []FormFile, rotations []int, progress UploadProgress) (*Download, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("client.ImagesToPDF: no files")
	}
	for i := range files {
		files[i].Field = "files"
	}
	var fields map[string]string
	if rotations != nil {
		data, err := json.Marshal(rotations)
		if err != nil {
			return nil, fmt.Errorf("client.ImagesToPDF: marshal rotations: %w", err)
		}
		fields = map[string]string{"rotations": string(data)}
	}
	dl, err := c.processToFile(ctx, "/pdf/convert/img-to-pdf/", fields, files, "converted.pdf", progress)
	if err != nil {
		return nil, fmt.Errorf("client.ImagesToPDF: %w", err)
	}
	return dl, nil
}

// ExtractedText is the extract-text response. Text may carry an "(OCR)"
// marker when the backend fell back to OCR for scanned pages.
type ExtractedText struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count,omitempty"`
	CharCount int    `json:"char_count,omitempty"`
}

// UsedOCR reports whether the backend extracted via OCR.
func (t *ExtractedText) UsedOCR() bool {
	return strings.Contains(t.Text, "(OCR)")
}

// ExtractText pulls the text content out of a PDF.
func (c *Client) ExtractText(ctx context.Context, file FormFile, progress UploadProgress) (*ExtractedText, error) {
	file.Field = "file"
	resp, err := c.doForm(ctx, "/pdf/extract-text/", nil, []FormFile{file}, progress)
	if err != nil {
		return nil, fmt.Errorf("client.ExtractText: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var out ExtractedText
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("client.ExtractText: decode response: %w", err)
	}
	return &out, nil
}

// Watermark stamps text (or an image reference) onto every page.
// kind is "text" or "image".
func (c *Client) Watermark(ctx context.Context, file FormFile, watermark, kind string, progress UploadProgress) (*Download, error) {
	file.Field = "file"
	fields := map[string]string{
		"watermark": watermark,
		"type":      kind,
	}
	dl, err := c.processToFile(ctx, "/pdf/watermark/", fields, []FormFile{file}, "watermarked_"+file.Name, progress)
	if err != nil {
		return nil, fmt.Errorf("client.Watermark: %w", err)
	}
	return dl, nil
}

// Rotate rotates the given pages ("all", "1,3,5", or "2-6") by angle degrees.
func (c *Client) Rotate(ctx context.Context, file FormFile, pages string, angle int, progress UploadProgress) (*Download, error) {
	file.Field = "file"
	fields := map[string]string{
		"pages": pages,
		"angle": strconv.Itoa(angle),
	}
	dl, err := c.processToFile(ctx, "/pdf/rotate/", fields, []FormFile{file}, "rotated_"+file.Name, progress)
	if err != nil {
		return nil, fmt.Errorf("client.Rotate: %w", err)
	}
	return dl, nil
}

// Secure password-protects a PDF.
func (c *Client) Secure(ctx context.Context, file FormFile, password string, progress UploadProgress) (*Download, error) {
	file.Field = "file"
	fields := map[string]string{"user_password": password}
	dl, err := c.processToFile(ctx, "/pdf/secure/", fields, []FormFile{file}, "secured_"+file.Name, progress)
	if err != nil {
		return nil, fmt.Errorf("client.Secure: %w", err)
	}
	return dl, nil
}

// Unlock removes password protection from a PDF.
func (c *Client) Unlock(ctx context.Context, file FormFile, password string, progress UploadProgress) (*Download, error) {
	file.Field = "file"
	fields := map[string]string{"password": password}
	dl, err := c.processToFile(ctx, "/pdf/unlock/", fields, []FormFile{file}, "unlocked_"+file.Name, progress)
	if err != nil {
		return nil, fmt.Errorf("client.Unlock: %w", err)
	}
	return dl, nil
}

// Organize reorders, deletes, or duplicates pages. operation names the edit
// ("reorder", "delete", "duplicate") and pageOrder is a comma-separated page
// list interpreted by the backend.
func (c *Client) Organize(ctx context.Context, file FormFile, operation, pageOrder string, progress UploadProgress) (*Download, error) {
	file.Field = "file"
	fields := map[string]string{
		"operation":  operation,
		"page_order": pageOrder,
	}
	dl, err := c.processToFile(ctx, "/pdf/organize/", fields, []FormFile{file}, "organized_"+file.Name, progress)
	if err != nil {
		return nil, fmt.Errorf("client.Organize: %w", err)
	}
	return dl, nil
}

// Convert runs one of the document conversions (word/excel/powerpoint to and
// from PDF). op selects the backend route.
func (c *Client) Convert(ctx context.Context, op domain.Operation, file FormFile, progress UploadProgress) (*Download, error) {
	path, ok := conversionPaths[op]
	if !ok {
		return nil, fmt.Errorf("client.Convert: unsupported conversion %q", op)
	}
	file.Field = "file"
	dl, err := c.processToFile(ctx, path, nil, []FormFile{file}, "converted_"+file.Name, progress)
	if err != nil {
		return nil, fmt.Errorf("client.Convert: %w", err)
	}
	return dl, nil
}

var conversionPaths = map[domain.Operation]string{
	domain.OpWordToPDF:       "/pdf/convert/word-to-pdf/",
	domain.OpPDFToWord:       "/pdf/convert/pdf-to-word/",
	domain.OpExcelToPDF:      "/pdf/convert/excel-to-pdf/",
	domain.OpPDFToExcel:      "/pdf/convert/pdf-to-excel/",
	domain.OpPowerPointToPDF: "/pdf/convert/powerpoint-to-pdf/",
	domain.OpPDFToPowerPoint: "/pdf/convert/pdf-to-powerpoint/",
}
