// Package casefile extracts compiler test cases from Markdown documents.
//
// A case starts at a heading "Test: <name>" and is followed by one ```rc
// fence holding the program, an optional ```config fence with YAML compiler
// settings, and one or more assertion fences:
//
//	asm            expected assembly, compared exactly
//	symbols        expected symbol table dump
//	compile-error  expected error message substring
//	warnings       expected warnings, one message per line
package casefile

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const InputFence = "rc"

const ConfigFence = "config"

// AssertionType names an assertion fence.
type AssertionType string

const (
	AssertAsm          AssertionType = "asm"
	AssertSymbols      AssertionType = "symbols"
	AssertCompileError AssertionType = "compile-error"
	AssertWarnings     AssertionType = "warnings"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

type Case struct {
	Name       string
	Input      string
	Config     string
	Line       int
	Assertions []Assertion
}

func isAssertion(lang string) bool {
	switch AssertionType(lang) {
	case AssertAsm, AssertSymbols, AssertCompileError, AssertWarnings:
		return true
	}
	return false
}

// Extract parses a Markdown document and returns its cases in order.
func Extract(markdown []byte) ([]Case, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var cases []Case
	var cur *Case
	flush := func() error {
		if cur == nil {
			return nil
		}
		if err := validate(cur); err != nil {
			return err
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			title := nodeText(n, markdown)
			if !strings.HasPrefix(title, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Case{Name: strings.TrimPrefix(title, "Test: "), Line: lineOf(n, markdown)}

		case *ast.FencedCodeBlock:
			lang := string(n.Language(markdown))
			line := lineOf(n, markdown)
			if lang == "" {
				return ast.WalkContinue, nil
			}
			if cur == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of a test case", line, lang)
			}
			content := blockText(n, markdown)
			switch {
			case lang == InputFence:
				if cur.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple %s fences in test '%s'", line, lang, cur.Name)
				}
				cur.Input = content
			case lang == ConfigFence:
				cur.Config = content
			case isAssertion(lang):
				cur.Assertions = append(cur.Assertions, Assertion{
					Type:    AssertionType(lang),
					Content: strings.TrimRight(content, "\n"),
					Line:    line,
				})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func validate(c *Case) error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("test '%s' has no %s fence", c.Name, InputFence)
	}
	if len(c.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", c.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockText(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of the node's first content line.
func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	return bytes.Count(source[:node.Lines().At(0).Start], []byte("\n")) + 1
}
