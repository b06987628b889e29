package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

var (
	ErrNoFile             = errors.New("no file provided")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrFileTooLarge       = errors.New("file too large")
	ErrEmptyDocument      = errors.New("no text content found in document")
	// ErrUnreadableDocument marks uploads whose bytes cannot be decoded as the claimed format.
	ErrUnreadableDocument = errors.New("document could not be read")
)

type DocumentParser interface {
	Parse(filename string, content []byte) (*ParsedDocument, error)
}

type ParsedDocument struct {
	Text      string
	Format    string
	PageCount int
}

type documentParser struct {
	maxSize int64
}

// NewDocumentParser returns a parser for .pdf and .docx resumes. maxSize <= 0 disables the size check.
func NewDocumentParser(maxSize int64) DocumentParser {
	return &documentParser{maxSize: maxSize}
}

func (p *documentParser) Parse(filename string, content []byte) (*ParsedDocument, error) {
	if strings.TrimSpace(filename) == "" || len(content) == 0 {
		return nil, ErrNoFile
	}
	if p.maxSize > 0 && int64(len(content)) > p.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d MB limit", ErrFileTooLarge, len(content), p.maxSize/(1024*1024))
	}

	var (
		doc *ParsedDocument
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		doc, err = extractPDF(content)
	case ".docx":
		doc, err = extractDOCX(content)
	case ".doc":
		return nil, fmt.Errorf("%w: legacy .doc format is not supported. Please convert to .docx or PDF", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %s. Please upload a PDF or Word document (.docx)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	doc.Text = CleanText(doc.Text)
	if doc.Text == "" {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// extractPDF reads page text with ledongthuc/pdf and falls back to MuPDF when that yields nothing.
func extractPDF(content []byte) (*ParsedDocument, error) {
	text, pages, err := extractPDFPlain(content)
	if err == nil && strings.TrimSpace(text) != "" {
		return &ParsedDocument{Text: text, Format: "pdf", PageCount: pages}, nil
	}

	fallback, fpages, ferr := extractPDFFitz(content)
	if ferr != nil {
		if err != nil {
			ferr = err
		}
		return nil, fmt.Errorf("%w: failed to process PDF file: %v", ErrUnreadableDocument, ferr)
	}
	return &ParsedDocument{Text: fallback, Format: "pdf", PageCount: fpages}, nil
}

func extractPDFPlain(content []byte) (text string, pages int, err error) {
	defer func() {
		// malformed PDFs can panic inside the reader
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, err
	}

	var b strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), pages, nil
}

func extractPDFFitz(content []byte) (string, int, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return "", 0, err
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), doc.NumPage(), nil
}

// extractDOCX walks word/document.xml in document order. Paragraphs become lines; table
// rows become one line with non-empty cells joined by " | ".
func extractDOCX(content []byte) (*ParsedDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to process Word document: %v", ErrUnreadableDocument, err)
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			if body, err = f.Open(); err != nil {
				return nil, fmt.Errorf("%w: failed to process Word document: %v", ErrUnreadableDocument, err)
			}
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: failed to process Word document: missing word/document.xml", ErrUnreadableDocument)
	}
	defer body.Close()

	var (
		lines  []string
		para   strings.Builder
		inText bool
		// one entry per open table; nested tables keep their own row
		tables []*tableState
	)

	dec := xml.NewDecoder(body)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to process Word document: %v", ErrUnreadableDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tables = append(tables, &tableState{})
			case "tr":
				if len(tables) > 0 {
					tables[len(tables)-1].cells = nil
				}
			case "tc":
				if len(tables) > 0 {
					tables[len(tables)-1].cell.Reset()
				}
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				para.Reset()
				if len(tables) > 0 {
					tables[len(tables)-1].appendText(text)
				} else if text != "" {
					lines = append(lines, text)
				}
			case "tc":
				if len(tables) > 0 {
					tb := tables[len(tables)-1]
					if text := strings.TrimSpace(tb.cell.String()); text != "" {
						tb.cells = append(tb.cells, text)
					}
				}
			case "tr":
				if len(tables) > 0 {
					tb := tables[len(tables)-1]
					if len(tb.cells) > 0 {
						tb.rows = append(tb.rows, strings.Join(tb.cells, " | "))
					}
					tb.cells = nil
				}
			case "tbl":
				if n := len(tables); n > 0 {
					tb := tables[n-1]
					tables = tables[:n-1]
					if n > 1 {
						// a nested table becomes text inside the enclosing cell
						tables[n-2].appendText(strings.Join(tb.rows, "; "))
					} else {
						lines = append(lines, tb.rows...)
					}
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	return &ParsedDocument{Text: strings.Join(lines, "\n"), Format: "docx"}, nil
}

type tableState struct {
	rows  []string
	cells []string
	cell  strings.Builder
}

func (t *tableState) appendText(text string) {
	if text == "" {
		return
	}
	if t.cell.Len() > 0 {
		t.cell.WriteString(" ")
	}
	t.cell.WriteString(text)
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	return strings.Join(nonEmptyLines(text), "\n")
}

// IsClientError reports whether err comes from a bad upload rather than a server fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrUnreadableDocument)
}
