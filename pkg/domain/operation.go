package domain

import "time"

// Operation identifies one PDF-processing action. Every operation is billed
// against the guest quota; authenticated users are unlimited.
type Operation string

const (
	OpMerge       Operation = "merge"
	OpSplit       Operation = "split"
	OpCompress    Operation = "compress"
	OpPDFToImages Operation = "pdf-to-img"
	OpImagesToPDF Operation = "img-to-pdf"
	OpExtractText Operation = "extract-text"
	OpWatermark   Operation = "watermark"
	OpRotate      Operation = "rotate"
	OpSecure      Operation = "secure"
	OpUnlock      Operation = "unlock"
	OpOrganize    Operation = "organize"

	// Document conversions.
	OpWordToPDF       Operation = "word-to-pdf"
	OpPDFToWord       Operation = "pdf-to-word"
	OpExcelToPDF      Operation = "excel-to-pdf"
	OpPDFToExcel      Operation = "pdf-to-excel"
	OpPowerPointToPDF Operation = "powerpoint-to-pdf"
	OpPDFToPowerPoint Operation = "pdf-to-powerpoint"
)

// Title returns the human-readable name used in menus and toasts.
func (o Operation) Title() string {
	if t, ok := operationTitles[o]; ok {
		return t
	}
	return string(o)
}

var operationTitles = map[Operation]string{
	OpMerge:           "Merge PDFs",
	OpSplit:           "Split PDF",
	OpCompress:        "Compress PDF",
	OpPDFToImages:     "PDF to Images",
	OpImagesToPDF:     "Images to PDF",
	OpExtractText:     "Extract Text",
	OpWatermark:       "Add Watermark",
	OpRotate:          "Rotate Pages",
	OpSecure:          "Protect PDF",
	OpUnlock:          "Unlock PDF",
	OpOrganize:        "Organize Pages",
	OpWordToPDF:       "Word to PDF",
	OpPDFToWord:       "PDF to Word",
	OpExcelToPDF:      "Excel to PDF",
	OpPDFToExcel:      "PDF to Excel",
	OpPowerPointToPDF: "PowerPoint to PDF",
	OpPDFToPowerPoint: "PDF to PowerPoint",
}

// OperationEvent announces a completed (or failed) processing call. It is a
// broadcast message only, never persisted state.
type OperationEvent struct {
	ID        string    `json:"id"`
	Type      Operation `json:"type"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is one row of the authenticated processing history.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	OperationType string    `json:"operation_type"`
	FileName      string    `json:"file_name"`
	FileSize      int64     `json:"file_size"`
	Success       bool      `json:"success"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
