package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

const docxBodyPart = "word/document.xml"

// wordPrefix is the prefix WordprocessingML parts bind to the main
// namespace. DrawingML a:p/a:t are not merged.
const wordPrefix = "w"

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// isMergePart reports whether a package part carries visible text we merge.
func isMergePart(name string) bool {
	if name == docxBodyPart {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimSuffix(strings.TrimPrefix(name, "word/"), ".xml")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

// ValidateDocx checks that data is a zip package with a Word body part.
func ValidateDocx(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("not a docx package: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			return nil
		}
	}
	return fmt.Errorf("docx package has no %s", docxBodyPart)
}

// Placeholders lists the distinct {{field}} names used in the template's
// body, headers and footers, sorted.
func Placeholders(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a docx package: %w", err)
	}
	seen := map[string]struct{}{}
	for _, f := range zr.File {
		if !isMergePart(f.Name) {
			continue
		}
		raw, err := readPart(f)
		if err != nil {
			return nil, err
		}
		paras, err := scanParagraphs(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Name, err)
		}
		for _, para := range paras {
			for _, m := range placeholderRe.FindAllStringSubmatch(para.text(), -1) {
				seen[m[1]] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// MergeDocx substitutes {{field}} placeholders and repackages the document.
// Word often splits a placeholder across several runs; the value is written
// into the run where the placeholder starts and the leftover pieces are
// removed from the following runs, so that run's formatting wins. Paragraphs
// nested in text boxes are merged on their own. Unknown names are left as-is.
func MergeDocx(data []byte, values map[string]string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a docx package: %w", err)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	foundBody := false
	for _, f := range zr.File {
		raw, err := readPart(f)
		if err != nil {
			return nil, err
		}
		if isMergePart(f.Name) {
			if f.Name == docxBodyPart {
				foundBody = true
			}
			raw, err = mergePart(raw, values)
			if err != nil {
				return nil, fmt.Errorf("merge %s: %w", f.Name, err)
			}
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx: %w", err)
	}
	if !foundBody {
		return nil, fmt.Errorf("docx package has no %s", docxBodyPart)
	}
	return out.Bytes(), nil
}

// textElem is one w:t element, located by byte offsets into its part.
type textElem struct {
	start, openEnd int64 // start tag
	closeStart     int64 // end tag; equals end when self-closing
	end            int64
	prefix         string
	value          strings.Builder
}

func (e *textElem) selfClosing() bool { return e.closeStart == e.end }

type paragraph struct {
	texts []*textElem
}

func (p *paragraph) text() string {
	var b strings.Builder
	for _, t := range p.texts {
		b.WriteString(t.value.String())
	}
	return b.String()
}

// scanParagraphs walks a part's token stream and returns every w:p in the
// order it closes, so a text-box paragraph comes before the paragraph that
// anchors it. Each w:t belongs to its innermost paragraph.
func scanParagraphs(raw []byte) ([]*paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var (
		stack []*paragraph
		cur   *textElem
		out   []*paragraph
		prev  int64
	)
	for {
		tok, err := dec.RawToken()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		off := dec.InputOffset()
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordPrefix {
				break
			}
			switch t.Name.Local {
			case "p":
				stack = append(stack, &paragraph{})
			case "t":
				if len(stack) > 0 {
					cur = &textElem{start: prev, openEnd: off, prefix: t.Name.Space}
				}
			}
		case xml.CharData:
			if cur != nil {
				cur.value.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space != wordPrefix {
				break
			}
			switch t.Name.Local {
			case "t":
				if cur != nil {
					cur.closeStart, cur.end = prev, off
					top := stack[len(stack)-1]
					top.texts = append(top.texts, cur)
					cur = nil
				}
			case "p":
				if len(stack) == 0 || cur != nil {
					return nil, fmt.Errorf("unbalanced </%s:p> at offset %d", wordPrefix, off)
				}
				out = append(out, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
		}
		prev = off
	}
	if len(stack) > 0 || cur != nil {
		return nil, fmt.Errorf("unclosed paragraph")
	}
	return out, nil
}

type splice struct {
	start, end int64
	with       []byte
}

func mergePart(raw []byte, values map[string]string) ([]byte, error) {
	paras, err := scanParagraphs(raw)
	if err != nil {
		return nil, err
	}
	var edits []splice
	for _, para := range paras {
		edits = append(edits, mergeParagraph(raw, para, values)...)
	}
	if len(edits) == 0 {
		return raw, nil
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var b bytes.Buffer
	b.Grow(len(raw))
	var pos int64
	for _, e := range edits {
		b.Write(raw[pos:e.start])
		b.Write(e.with)
		pos = e.end
	}
	b.Write(raw[pos:])
	return b.Bytes(), nil
}

type placeholderMatch struct {
	start, end int
	with       string
}

// mergeParagraph replaces each placeholder in the text element where it
// starts and strips the rest of it from the elements it spills into.
func mergeParagraph(raw []byte, para *paragraph, values map[string]string) []splice {
	text := para.text()
	idx := placeholderRe.FindAllStringSubmatchIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	matches := make([]placeholderMatch, 0, len(idx))
	for _, m := range idx {
		with := text[m[0]:m[1]]
		if v, ok := values[text[m[2]:m[3]]]; ok {
			with = v
		}
		matches = append(matches, placeholderMatch{start: m[0], end: m[1], with: with})
	}

	var edits []splice
	from := 0
	for _, t := range para.texts {
		old := t.value.String()
		to := from + len(old)
		var b strings.Builder
		pos := from
		for _, m := range matches {
			if m.end <= from || m.start >= to {
				continue
			}
			if m.start > pos {
				b.WriteString(text[pos:m.start])
			}
			if m.start >= from {
				b.WriteString(m.with)
			}
			pos = min(m.end, to)
		}
		if pos < to {
			b.WriteString(text[pos:to])
		}
		from = to

		merged := b.String()
		switch {
		case merged == old:
		case merged == "":
			edits = append(edits, splice{t.openEnd, t.closeStart, nil})
		default:
			edits = append(edits, splice{t.start, t.end, mergedElem(raw, t, merged)})
		}
	}
	return edits
}

// mergedElem rebuilds t with merged as its content, keeping its attributes.
func mergedElem(raw []byte, t *textElem, merged string) []byte {
	open := string(raw[t.start:t.openEnd])
	closeTag := string(raw[t.closeStart:t.end])
	if t.selfClosing() {
		open = strings.TrimSpace(strings.TrimSuffix(open, "/>")) + ">"
		closeTag = "</" + t.prefix + ":t>"
	}
	var b bytes.Buffer
	b.WriteString(preserveSpace(open))
	_ = xml.EscapeText(&b, []byte(merged))
	b.WriteString(closeTag)
	return b.Bytes()
}

func preserveSpace(open string) string {
	if strings.Contains(open, "xml:space") {
		return open
	}
	return strings.TrimSuffix(open, ">") + ` xml:space="preserve">`
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return raw, nil
}
