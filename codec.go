package svginspect

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	minifyxml "github.com/tdewolff/minify/v2/xml"
	"golang.org/x/net/html/charset"
)

// Codec converts between the text held by the buffer host and a Document.
type Codec interface {
	Parse(text string) (*Document, error)
	Serialize(doc *Document) (string, error)
}

// XMLCodec is the default Codec. Names keep their prefixes verbatim, so a
// parse/serialize round trip does not rewrite namespaces.
type XMLCodec struct {
	// Compact strips insignificant whitespace from serialized output.
	Compact bool
}

// ParseSVG parses a string into a Document with the default codec.
func ParseSVG(content string) (*Document, error) {
	return XMLCodec{}.Parse(content)
}

// RenderDocument converts a Document back to a string.
func RenderDocument(doc *Document) string {
	if doc == nil {
		return ""
	}
	var sb strings.Builder
	for _, n := range doc.Nodes {
		renderNode(&sb, n)
	}
	return sb.String()
}

// RenderNode converts a node tree back to a string.
func RenderNode(n *Node) string {
	var sb strings.Builder
	renderNode(&sb, n)
	return sb.String()
}

var encodingDecl = regexp.MustCompile(`encoding\s*=\s*("[^"]*"|'[^']*')`)

func (c XMLCodec) Parse(text string) (*Document, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))
	decoder.Strict = true
	decoder.CharsetReader = charset.NewReaderLabel

	fail := func(err error) error {
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			return &ParseError{Line: se.Line, Err: errors.New(se.Msg)}
		}
		line, _ := decoder.InputPos()
		return &ParseError{Line: line, Err: err}
	}

	doc := &Document{}
	var stack []*Node
	attach := func(n *Node) {
		if len(stack) == 0 {
			doc.Nodes = append(doc.Nodes, n)
			return
		}
		stack[len(stack)-1].AppendChild(n)
	}

	for {
		// RawToken leaves prefixes untranslated; tag matching is done here.
		tok, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fail(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{Type: ElementNode, Data: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				el.Attr = append(el.Attr, Attribute{Key: qualifiedName(a.Name), Val: a.Value})
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, fail(errMultipleRoots)
				}
				doc.Root = el
			}
			attach(el)
			stack = append(stack, el)
		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 0 {
				return nil, fail(fmt.Errorf("unexpected end element </%s>", name))
			}
			if open := stack[len(stack)-1].Data; open != name {
				return nil, fail(fmt.Errorf("element <%s> closed by </%s>", open, name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			s := string(t)
			if len(stack) == 0 && strings.TrimSpace(s) != "" {
				return nil, fail(errTextOutside)
			}
			attach(NewText(s))
		case xml.Comment:
			attach(&Node{Type: CommentNode, Data: string(t)})
		case xml.ProcInst:
			inst := string(t.Inst)
			if t.Target == "xml" {
				// Output is always UTF-8 regardless of the input encoding.
				inst = encodingDecl.ReplaceAllString(inst, `encoding="UTF-8"`)
			}
			data := t.Target
			if inst != "" {
				data += " " + inst
			}
			attach(&Node{Type: ProcInstNode, Data: data})
		case xml.Directive:
			attach(&Node{Type: DirectiveNode, Data: string(t)})
		}
	}
	if len(stack) > 0 {
		return nil, fail(fmt.Errorf("element <%s> is never closed", stack[len(stack)-1].Data))
	}
	if doc.Root == nil {
		return nil, fail(errNoRoot)
	}
	return doc, nil
}

func (c XMLCodec) Serialize(doc *Document) (string, error) {
	out := RenderDocument(doc)
	if !c.Compact || out == "" {
		return out, nil
	}
	compact, err := getMinifier().String(svgMediaType, out)
	if err != nil {
		return "", fmt.Errorf("compact svg: %w", err)
	}
	return compact, nil
}

const svgMediaType = "image/svg+xml"

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

// getMinifier returns a configured XML minifier (singleton)
func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.AddFunc(svgMediaType, minifyxml.Minify)
	})
	return minifier
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	// Newlines and tabs stay literal so multi-line path data is written back
	// as it was read. A lone \r would be folded into \n on the next parse.
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		`"`, "&quot;",
		"\r", "&#xD;",
	)
)

func renderNode(sb *strings.Builder, n *Node) {
	switch n.Type {
	case ElementNode:
		sb.WriteByte('<')
		sb.WriteString(n.Data)
		for _, a := range n.Attr {
			sb.WriteByte(' ')
			sb.WriteString(a.Key)
			sb.WriteString(`="`)
			attrEscaper.WriteString(sb, a.Val)
			sb.WriteByte('"')
		}
		if len(n.nodes) == 0 {
			sb.WriteString("/>")
			return
		}
		sb.WriteByte('>')
		for _, c := range n.nodes {
			renderNode(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(n.Data)
		sb.WriteByte('>')
	case TextNode:
		textEscaper.WriteString(sb, n.Data)
	case CommentNode:
		sb.WriteString("<!--")
		sb.WriteString(n.Data)
		sb.WriteString("-->")
	case ProcInstNode:
		sb.WriteString("<?")
		sb.WriteString(n.Data)
		sb.WriteString("?>")
	case DirectiveNode:
		sb.WriteString("<!")
		sb.WriteString(n.Data)
		sb.WriteByte('>')
	}
}
