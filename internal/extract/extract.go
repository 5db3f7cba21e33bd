package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedFormat is returned when the declared document kind has no
	// extractor. Callers should reject such uploads before invoking Text, but
	// extraction checks again.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtraction is returned when a document of a supported kind cannot be
	// parsed (truncated file, wrong magic bytes, malformed XML).
	ErrExtraction = errors.New("document extraction failed")
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

// KindFromFilename maps a filename extension to a document kind.
// The second return is false for anything other than .pdf/.docx.
func KindFromFilename(name string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, true
	case ".docx":
		return KindDOCX, true
	}
	return "", false
}

// Text extracts the plain text of a document.
// PDF pages are concatenated in page order with no separator added between
// them. DOCX paragraphs are joined with a single newline in document order.
func Text(data []byte, kind Kind) (string, error) {
	switch kind {
	case KindPDF:
		return pdfText(data)
	case KindDOCX:
		return docxText(data)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
}

func pdfText(data []byte) (_ string, err error) {
	// The pdf package panics on some malformed inputs instead of returning an
	// error; convert that into ErrExtraction like any other parse failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrExtraction, i, err)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// docxText reads word/document.xml out of the DOCX zip container and walks
// its XML stream. Runs of character data inside <w:t> elements accumulate
// into the current paragraph; </w:p> closes it.
func docxText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a zip container: %v", ErrExtraction, err)
	}

	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("%w: word/document.xml missing", ErrExtraction)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer rc.Close()

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
