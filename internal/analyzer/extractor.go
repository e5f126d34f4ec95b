package analyzer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// 支持的文件格式
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatDOC  = "doc"
	FormatTXT  = "txt"
)

const preambleHeading = "Preamble"

type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Document 提取结果
type Document struct {
	RawText     string    `json:"raw_text"`
	CleanedText string    `json:"cleaned_text"`
	PageCount   int       `json:"page_count"`
	WordCount   int       `json:"word_count"`
	CharCount   int       `json:"char_count"`
	Sections    []Section `json:"sections"`
}

// NormalizeFormat 去掉前导点并转小写，未知格式返回 ErrUnsupportedFormat
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch f {
	case FormatPDF, FormatDOCX, FormatDOC, FormatTXT:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Extract 读取文件并提取文本
func Extract(path, format string) (*Document, error) {
	f, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}

	var (
		raw   string
		pages = 1
	)
	switch f {
	case FormatPDF:
		raw, pages, err = extractPDF(path)
	case FormatDOCX, FormatDOC:
		raw, err = extractDOCX(path)
	case FormatTXT:
		raw, err = extractTXT(path)
	}
	if err != nil {
		return nil, err
	}

	return &Document{
		RawText:     raw,
		CleanedText: CleanText(raw),
		PageCount:   pages,
		WordCount:   len(strings.Fields(raw)),
		CharCount:   utf8.RuneCountInString(raw),
		Sections:    DetectSections(raw),
	}, nil
}

func extractPDF(path string) (text string, pages int, err error) {
	// 解析库在遇到损坏文件时可能 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pdf: %v", ErrExtraction, r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: pdf: %v", ErrExtraction, err)
	}
	defer file.Close()

	pages = reader.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("%w: pdf page %d: %v", ErrExtraction, i, err)
		}
		parts = append(parts, content)
	}

	return strings.Join(parts, "\n"), pages, nil
}

// extractDOCX 读取 OOXML 容器中的 word/document.xml，老式二进制 .doc 会在打开 zip 时失败
func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", ErrExtraction, err)
	}
	defer zr.Close()

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("%w: docx: %v", ErrExtraction, err)
			}
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%w: docx: word/document.xml not found", ErrExtraction)
	}
	defer body.Close()

	text, err := docxText(body)
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", ErrExtraction, err)
	}
	return text, nil
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		buf        strings.Builder
		paragraphs []string
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteByte('\t')
			case "br", "cr":
				buf.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	if buf.Len() > 0 {
		paragraphs = append(paragraphs, buf.String())
	}

	return strings.Join(paragraphs, "\n"), nil
}

func extractTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: txt: %v", ErrExtraction, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: txt: file is not valid UTF-8", ErrExtraction)
	}
	return string(data), nil
}

var artifactReplacer = strings.NewReplacer("\x0c", " ", "\u00a0", " ")

// CleanText 合并连续空白并去掉换页符和不间断空格
func CleanText(text string) string {
	return strings.Join(strings.Fields(artifactReplacer.Replace(text)), " ")
}

var (
	numberedHeading = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\S`)
	bareNumber      = regexp.MustCompile(`^\d+(\.\d+)*\.?$`)
	namedHeading    = regexp.MustCompile(`(?i)^(section|article)\s+(\d+(\.\d+)*|[ivxlcdm]+)\b`)
)

const maxHeadingLen = 80

// IsHeading 判断一行是否为条款标题
func IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	n := utf8.RuneCountInString(line)
	if n == 0 || n > maxHeadingLen {
		return false
	}

	if namedHeading.MatchString(line) || numberedHeading.MatchString(line) || bareNumber.MatchString(line) {
		return true
	}

	if n < 2 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// DetectSections 按标题切分，首个标题之前的内容归入 Preamble
func DetectSections(text string) []Section {
	var (
		sections []Section
		current  = Section{Heading: preambleHeading}
		body     []string
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if current.Heading != preambleHeading || content != "" {
			current.Content = content
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if IsHeading(trimmed) {
			flush()
			current = Section{Heading: trimmed}
			continue
		}
		body = append(body, trimmed)
	}
	flush()

	return sections
}
