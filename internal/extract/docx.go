package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// docxTokenRe matches paragraph starts, line breaks, and text runs in document order.
var docxTokenRe = regexp.MustCompile(`<w:p[\s>/]|<w:br[\s>/]|<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)

var errNoDocumentXML = errors.New("main document part not found")

// docxBody mirrors the parts of word/document.xml the structured reader needs.
// Tags without a namespace match on local name, so w:p, w:r and w:t all bind.
type docxBody struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

// docxParagraph collects the text of a w:p the way Word renders it: runs at any
// depth (including inside w:hyperlink), w:tab as a tab and w:br/w:cr as a newline.
// Page and column breaks and the tab stops in w:pPr contribute nothing.
type docxParagraph struct {
	Text string
}

func (p *docxParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var (
		b      strings.Builder
		depth  int
		inRun  int
		inText int
	)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch el.Name.Local {
			case "r":
				inRun++
			case "t":
				inText++
			case "tab":
				if inRun > 0 {
					b.WriteByte('\t')
				}
			case "cr":
				if inRun > 0 {
					b.WriteByte('\n')
				}
			case "br":
				if inRun > 0 && !isPageBreak(el) {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if depth == 0 {
				p.Text = b.String()
				return nil
			}
			depth--
			switch el.Name.Local {
			case "r":
				inRun--
			case "t":
				inText--
			}
		case xml.CharData:
			if inText > 0 && inRun > 0 {
				b.Write(el)
			}
		}
	}
}

func isPageBreak(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "type" {
			return a.Value == "page" || a.Value == "column"
		}
	}
	return false
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	for _, f := range zr.File {
		if f.Name != contentTypesPath {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return ""
		}
		content := string(data)
		if m := partNameRe.FindStringSubmatch(content); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
		if m := partNameRe2.FindStringSubmatch(content); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
		return ""
	}
	return ""
}

func docxMainPart(content []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a zip: %w", err)
	}
	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	for _, f := range zr.File {
		if f.Name == docPath {
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", f.Name, err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errNoDocumentXML, docPath)
}

// extractDOCX tries the structured paragraph reader first and falls back to a raw token
// scan of the XML when that fails or finds nothing.
func extractDOCX(content []byte) Result {
	docXML, err := docxMainPart(content)
	if err != nil {
		return failed(fmt.Errorf("extract DOCX: %w", err))
	}
	text, units, err := readDocxStructured(docXML)
	if err == nil && text != "" {
		return finish(text, units, nil)
	}
	var warnings []string
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("structured DOCX reader failed: %v", err))
	}
	text = scanDocxXML(docXML)
	return finish(text, approxUnits(text), warnings)
}

// readDocxStructured returns non-empty paragraphs joined by newlines; units is paragraphs/40.
func readDocxStructured(docXML []byte) (string, int, error) {
	var doc docxBody
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", 0, err
	}
	var paras []string
	for _, p := range doc.Body.Paragraphs {
		if p.Text != "" {
			paras = append(paras, p.Text)
		}
	}
	units := len(paras) / 40
	if units < 1 {
		units = 1
	}
	return strings.TrimSpace(strings.Join(paras, "\n")), units, nil
}

// scanDocxXML concatenates w:t text, inserting a newline at every w:p and w:br,
// then trims lines and drops blank ones.
func scanDocxXML(docXML []byte) string {
	var b strings.Builder
	for _, m := range docxTokenRe.FindAllSubmatch(docXML, -1) {
		if m[1] != nil || bytes.HasPrefix(m[0], []byte("<w:t")) {
			b.WriteString(html.UnescapeString(string(m[1])))
			continue
		}
		b.WriteByte('\n')
	}
	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if s := strings.TrimSpace(ln); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n")
}
