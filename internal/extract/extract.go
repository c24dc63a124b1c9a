package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// overviewLimit caps how much extracted text is kept as a plan overview.
const overviewLimit = 4000

// PlanOverview extracts a short text overview from an uploaded plan document.
// PDFs and DOCX files yield their text content; images and unknown binary
// formats yield an empty overview without error.
func PlanOverview(data []byte, mimeType, fileName string) (string, error) {
	text, err := textFromBytes(data, mimeType, fileName)
	if err != nil {
		return "", err
	}
	return trimOverview(text), nil
}

func textFromBytes(data []byte, mimeType, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch {
	case mt == "application/pdf" || ext == ".pdf":
		return textFromPDF(data)
	case mt == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" || ext == ".docx":
		return textFromDOCX(data)
	case strings.HasPrefix(mt, "text/") || ext == ".txt":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("text file is not valid UTF-8")
		}
		return string(data), nil
	case strings.HasPrefix(mt, "image/"):
		return "", nil
	default:
		return "", nil
	}
}

func textFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole document.
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return text, nil
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"body>p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

func textFromDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, 32<<20))
	if err != nil {
		return "", fmt.Errorf("read document.xml: %w", err)
	}

	var body docxBody
	if err := xml.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var sb strings.Builder
	for _, p := range body.Paragraphs {
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				sb.WriteString(t)
			}
		}
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("docx contains no extractable text")
	}
	return text, nil
}

func trimOverview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= overviewLimit {
		return text
	}
	cut := text[:overviewLimit]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
