package render

import (
	"bytes"
	"html"
	"io"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Editable blocks in a structured body: the 1st and 3rd top-level elements.
// The 2nd is typically a pull-quote and everything after the 3rd a fixed
// footer; both are left byte-for-byte untouched by Rebuild.
var editableBlocks = [...]int{0, 2}

const blockSeparator = "\n\n"

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

// lineBreakers end a line when they close inside a block.
var lineBreakers = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "blockquote": true,
}

var spaceRunRe = regexp.MustCompile(`[ \t\f\v\r\x{00a0}]+`)

// block is one top-level element. innerStart/innerEnd are byte offsets of its
// content inside the original body.
type block struct {
	tag        string
	innerStart int
	innerEnd   int
}

// blocks scans the body with the HTML tokenizer and returns its top-level
// non-void elements. Stray text and comments between elements are skipped.
// An end tag closes the innermost open element of that name along with any
// unclosed elements inside it; an end tag matching nothing open is ignored.
// An element left open at EOF extends to the end of the body.
func blocks(body string) []block {
	z := xhtml.NewTokenizer(strings.NewReader(body))
	var (
		out    []block
		offset int
		open   []string
		cur    block
	)
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			if z.Err() == io.EOF && len(open) > 0 {
				cur.innerEnd = len(body)
				out = append(out, cur)
			}
			return out
		}
		size := len(z.Raw())
		switch tt {
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				break
			}
			if len(open) == 0 {
				cur = block{tag: tag, innerStart: offset + size}
			}
			open = append(open, tag)
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			i := lastIndex(open, string(name))
			if i < 0 {
				break
			}
			open = open[:i]
			if len(open) == 0 {
				cur.innerEnd = offset
				out = append(out, cur)
			}
		}
		offset += size
	}
}

func lastIndex(stack []string, tag string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == tag {
			return i
		}
	}
	return -1
}

// blockText flattens one block's inner markup to plain lines: whitespace runs
// collapse to one space, <br> and closing block elements end a line, blank
// lines are dropped.
func blockText(inner string) string {
	z := xhtml.NewTokenizer(strings.NewReader(inner))
	var sb strings.Builder
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		switch tt {
		case xhtml.TextToken:
			sb.WriteString(strings.ReplaceAll(string(z.Text()), "\n", " "))
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				sb.WriteByte('\n')
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); lineBreakers[string(name)] {
				sb.WriteByte('\n')
			}
		}
	}
	return joinLines(strings.Split(sb.String(), "\n"))
}

func joinLines(lines []string) string {
	kept := lines[:0:0]
	for _, l := range lines {
		if l = strings.TrimSpace(spaceRunRe.ReplaceAllString(l, " ")); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

// ExtractEditable returns the plain text of the editable blocks. With a third
// block present the result is always "first\n\nthird", even when either part
// is empty, so Rebuild can split it back unambiguously.
func ExtractEditable(body string) string {
	bs := blocks(body)
	if len(bs) == 0 {
		return ""
	}
	first := blockText(body[bs[0].innerStart:bs[0].innerEnd])
	if len(bs) <= editableBlocks[1] {
		return first
	}
	third := blockText(body[bs[2].innerStart:bs[2].innerEnd])
	return first + blockSeparator + third
}

// Rebuild writes edited plain text back into the editable blocks of body.
// The text is split at its first blank line; the part before goes into the
// first block and the rest into the third. If there is no blank line only
// the first block changes. Every byte outside the replaced inner ranges is
// copied unchanged.
func Rebuild(body, text string) string {
	bs := blocks(body)
	if len(bs) == 0 {
		return body
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	parts := map[int]string{}
	if len(bs) > editableBlocks[1] {
		if i := strings.Index(text, blockSeparator); i >= 0 {
			parts[0] = text[:i]
			parts[2] = text[i+len(blockSeparator):]
		} else {
			parts[0] = text
		}
	} else {
		parts[0] = text
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(text))
	pos := 0
	for _, idx := range editableBlocks {
		p, ok := parts[idx]
		if !ok || idx >= len(bs) {
			continue
		}
		b := bs[idx]
		buf.WriteString(body[pos:b.innerStart])
		buf.WriteString(toMarkup(p))
		pos = b.innerEnd
	}
	buf.WriteString(body[pos:])
	return buf.String()
}

// toMarkup escapes plain text and turns its lines into <br>-separated markup.
func toMarkup(text string) string {
	lines := strings.Split(joinLines(strings.Split(text, "\n")), "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return strings.Join(lines, "<br>")
}

// EditableCount reports how many editable blocks body has (0, 1 or 2).
func EditableCount(body string) int {
	n := 0
	bs := blocks(body)
	for _, idx := range editableBlocks {
		if idx < len(bs) {
			n++
		}
	}
	return n
}
