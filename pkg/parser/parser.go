// Package parser turns a Markdown document with embedded YAML operation
// blocks into a tree.Tree.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/opschema"
	"github.com/fractalic-ai/fractalic/pkg/tree"
	"gopkg.in/yaml.v3"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	opOpenRe    = regexp.MustCompile(`^@([a-z][a-z0-9_-]*)\s*$`)
	idSuffixRe  = regexp.MustCompile(`\{id=([A-Za-z][A-Za-z0-9_-]*)\}\s*$`)
	explicitIDR = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	slugCollapse = regexp.MustCompile(`[^a-z0-9]+`)
)

// KnownOperations is the recognized set of operation names.
var KnownOperations = map[string]bool{
	"import": true,
	"llm":    true,
	"shell":  true,
	"run":    true,
	"return": true,
	"goto":   true,
}

// Parse tokenizes src and builds a tree. src must be UTF-8 Markdown.
func Parse(src []byte) (*tree.Tree, error) {
	lines := strings.Split(string(src), "\n")
	nodes, err := tokenize(lines)
	if err != nil {
		return nil, err
	}
	assignHeadingIDs(nodes)
	t := tree.FromNodes(nodes)
	FinalizeOpIDs(t.Iter())
	return t, nil
}

// tokenize implements passes 1 and 2: line classification, then operation
// block recognition, folding runs of content lines into single nodes.
func tokenize(lines []string) ([]*tree.Node, error) {
	var out []*tree.Node
	var contentBuf []string
	contentLevel := 0

	// flushContent emits the buffered run as one content node. Blank lines at
	// either end of the run are separators and are dropped. Content sits one
	// level below its enclosing heading, so the heading's region owns it.
	flushContent := func() {
		start, end := 0, len(contentBuf)
		for start < end && strings.TrimSpace(contentBuf[start]) == "" {
			start++
		}
		for end > start && strings.TrimSpace(contentBuf[end-1]) == "" {
			end--
		}
		if start < end {
			out = append(out, &tree.Node{
				Kind:  tree.KindContent,
				Level: contentLevel + 1,
				Text:  strings.Join(contentBuf[start:end], "\n"),
				Role:  tree.RoleUser,
			})
		}
		contentBuf = nil
	}

	i := 0
	for i < len(lines) {
		line := lines[i]

		if m := headingRe.FindStringSubmatch(line); m != nil {
			flushContent()
			level := len(m[1])
			headingText := line
			out = append(out, &tree.Node{
				Kind:  tree.KindHeading,
				Level: level,
				Text:  headingText,
				Role:  tree.RoleUser,
			})
			contentLevel = level
			i++
			continue
		}

		if m := opOpenRe.FindStringSubmatch(line); m != nil {
			flushContent()
			name := m[1]
			if !KnownOperations[name] {
				return nil, ferr.New(ferr.KindParse, "unknown operation %q", "@"+name).At(fmt.Sprintf("line %d", i+1))
			}
			bodyStart := i + 1
			j := bodyStart
			for j < len(lines) && strings.TrimSpace(lines[j]) != "" {
				j++
			}
			bodyLines := lines[bodyStart:j]
			body := strings.Join(bodyLines, "\n")
			params, err := decodeYAMLBody(body, bodyStart+1)
			if err != nil {
				return nil, err
			}
			if err := opschema.Validate(name, params); err != nil {
				if fe, ok := err.(*ferr.Error); ok {
					return nil, fe.At(fmt.Sprintf("line %d", bodyStart+1))
				}
				return nil, err
			}
			out = append(out, &tree.Node{
				Kind:   tree.KindOperation,
				Level:  contentLevel,
				OpName: name,
				Text:   "@" + name,
				Params: params,
				Role:   tree.RoleUser,
			})
			i = j
			continue
		}

		contentBuf = append(contentBuf, line)
		i++
	}
	flushContent()
	return out, nil
}

// decodeYAMLBody parses the YAML scalar body of an operation. lineOffset is
// the 1-based source line the body starts at, used to enrich parse errors.
func decodeYAMLBody(body string, lineOffset int) (map[string]any, error) {
	if strings.TrimSpace(body) == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := yaml.Unmarshal([]byte(body), &params); err != nil {
		return nil, ferr.Wrap(ferr.KindParse, err, "invalid YAML operation body").At(fmt.Sprintf("line %d", lineOffset))
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

// FinalizeOpIDs sets id=op-<key> for every operation node once keys have
// been assigned by the tree. Exported so callers building fragments
// outside Parse (e.g. operation handlers minting output) can reuse it.
func FinalizeOpIDs(nodes []*tree.Node) {
	for _, n := range nodes {
		if n.Kind == tree.KindOperation && n.Key != "" {
			n.ID = "op-" + n.Key
		}
	}
}

// slugify implements the id derivation rule: lowercase, trim,
// replace runs of non-alphanumerics with '-'.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "section"
	}
	if !explicitIDR.MatchString(s) {
		s = "h-" + s
	}
	return s
}

// HeadingSlug derives a heading id from title text using the same rule
// assignHeadingIDs applies to parsed headings. Exported so operation
// handlers synthesizing a heading outside Parse (e.g. the @shell/@llm
// response wrapper) can mint a consistent id.
func HeadingSlug(title string) string { return slugify(title) }

// headingID extracts the explicit {id=slug} suffix from a heading line, or
// derives one from the header text.
func headingID(headingLine string) (string, error) {
	if m := idSuffixRe.FindStringSubmatch(headingLine); m != nil {
		id := m[1]
		if !explicitIDR.MatchString(id) {
			return "", ferr.New(ferr.KindParse, "invalid heading id %q", id)
		}
		return id, nil
	}
	text := headingRe.FindStringSubmatch(headingLine)
	title := headingLine
	if text != nil {
		title = text[2]
	}
	title = idSuffixRe.ReplaceAllString(title, "")
	return slugify(title), nil
}

// assignHeadingIDs walks the flat node list, deriving/validating heading
// ids and resolving same-parent collisions by appending -2, -3, ... in
// document order. Parent region is the nearest enclosing heading
// with a strictly smaller level, tracked with a level stack.
func assignHeadingIDs(nodes []*tree.Node) {
	type frame struct {
		level int
		key   string // parent scope key: "" for root, else the parent heading's derived id path
	}
	var stack []frame
	seen := map[string]map[string]int{} // parentScopeKey -> baseID -> count

	scopeOf := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1].key
	}

	for _, n := range nodes {
		if n.Kind != tree.KindHeading {
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].level >= n.Level {
			stack = stack[:len(stack)-1]
		}
		scope := scopeOf()

		base, err := headingID(n.Text)
		if err != nil {
			base = slugify(n.Text)
		}
		if seen[scope] == nil {
			seen[scope] = map[string]int{}
		}
		count := seen[scope][base]
		id := base
		if count > 0 {
			id = fmt.Sprintf("%s-%d", base, count+1)
		}
		seen[scope][base] = count + 1
		n.ID = id

		stack = append(stack, frame{level: n.Level, key: scope + "/" + id})
	}
}
