package directive

import (
	"regexp"
	"strings"

	"github.com/rumdl-go/rumdl/internal/mdcontext"
)

// Regex patterns for directive parsing. Rule codes may be native
// (MD013, no-bare-urls) or namespaced; commas separate multiple codes.
var (
	nativePattern = regexp.MustCompile(
		`(?i)<!--\s*rumdl-(disable-next-line|disable-line|disable-file|disable|enable)` +
			`(?:\s+([A-Za-z0-9_,\s/.-]+))?\s*-->`)

	markdownlintPattern = regexp.MustCompile(
		`(?i)<!--\s*markdownlint-(disable-next-line|disable-line|disable-file|disable|capture|restore|enable|configure-file)` +
			`(?:\s+([A-Za-z0-9_,\s/.-]+))?\s*-->`)
)

// RuleValidator reports whether a rule code is known to the registry.
type RuleValidator func(string) bool

// Parse extracts every inline directive from ctx's HTML comments.
func Parse(ctx *mdcontext.Context, validator RuleValidator) *ParseResult {
	result := &ParseResult{}
	buf := ctx.Buffer()

	for _, r := range ctx.HTMLCommentRanges().All() {
		text := string(buf.Slice(r.Start, r.End))
		line := buf.LineAt(r.Start)

		if d, err := parseOne(text, line, nativePattern, SourceNative); d != nil || err != nil {
			recordResult(d, err, validator, result)
			continue
		}
		if d, err := parseOne(text, line, markdownlintPattern, SourceMarkdownlint); d != nil || err != nil {
			recordResult(d, err, validator, result)
			continue
		}
	}

	closeBlocks(result.Directives)
	return result
}

// closeBlocks resolves each TypeDisableBlock's open-ended AppliesTo.End by
// finding the nearest following TypeEnable that shares a rule code (or
// "all" on either side), in document order. A block with no matching
// enable runs to end of file.
func closeBlocks(directives []Directive) {
	for i := range directives {
		d := &directives[i]
		if d.Type != TypeDisableBlock {
			continue
		}
		d.AppliesTo.End = FileRange().End
		for j := i + 1; j < len(directives); j++ {
			other := directives[j]
			if other.Type != TypeEnable {
				continue
			}
			if blockOverlapsRules(d.Rules, other.Rules) {
				d.AppliesTo.End = other.Line - 1
				break
			}
		}
	}
}

func blockOverlapsRules(blockRules, enableRules []string) bool {
	for _, r := range enableRules {
		if r == "all" {
			return true
		}
	}
	for _, br := range blockRules {
		if br == "all" {
			return true
		}
		for _, er := range enableRules {
			if br == er {
				return true
			}
		}
	}
	return false
}

func recordResult(d *Directive, err *ParseError, validator RuleValidator, result *ParseResult) {
	if err != nil {
		result.Errors = append(result.Errors, *err)
	}
	if d != nil {
		validateDirective(d, validator, result)
	}
}

func validateDirective(d *Directive, validator RuleValidator, result *ParseResult) {
	if validator != nil {
		var unknown []string
		for _, rule := range d.Rules {
			if rule != "all" && !validator(rule) {
				unknown = append(unknown, rule)
			}
		}
		if len(unknown) > 0 {
			result.Errors = append(result.Errors, ParseError{
				Line:    d.Line,
				Message: "unknown rule code(s): " + strings.Join(unknown, ", "),
				RawText: d.RawText,
			})
		}
	}
	result.Directives = append(result.Directives, *d)
}

func parseOne(text string, line int, pattern *regexp.Regexp, source DirectiveSource) (*Directive, *ParseError) {
	matches := pattern.FindStringSubmatch(text)
	if matches == nil {
		return nil, nil
	}

	keyword := strings.ToLower(matches[1])
	rulesStr := ""
	if len(matches) > 2 {
		rulesStr = matches[2]
	}

	switch keyword {
	case "capture", "restore", "configure-file":
		// markdownlint state-stack directives with no rumdl analog; accepted
		// syntactically (so they don't generate parse errors when migrating
		// a document) but produce no suppression.
		return nil, nil
	}

	var rules []string
	if rulesStr == "" {
		rules = []string{"all"}
	} else {
		var err error
		rules, err = parseRuleList(rulesStr)
		if err != nil {
			return nil, &ParseError{Line: line, Message: err.Error(), RawText: text}
		}
	}

	d := &Directive{
		Rules:   rules,
		Line:    line,
		RawText: text,
		Source:  source,
	}

	switch keyword {
	case "disable-line":
		d.Type = TypeDisableLine
		d.AppliesTo = LineRange{Start: line, End: line}
	case "disable-next-line":
		d.Type = TypeDisableNextLine
		d.AppliesTo = LineRange{Start: line + 1, End: line + 1}
	case "disable-file":
		d.Type = TypeDisableFile
		d.AppliesTo = FileRange()
	case "disable":
		d.Type = TypeDisableBlock
		d.AppliesTo = LineRange{Start: line, End: -1} // closed by Parse's caller via closeBlocks
	case "enable":
		d.Type = TypeEnable
		d.AppliesTo = LineRange{Start: line, End: line}
	default:
		return nil, nil
	}

	return d, nil
}

// parseRuleList parses a comma-separated list of rule codes.
func parseRuleList(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	rules := make([]string, 0, len(parts))
	for _, part := range parts {
		rule := strings.TrimSpace(part)
		if rule == "" {
			continue
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return nil, errEmptyRuleList
	}
	return rules, nil
}

var errEmptyRuleList = parseRuleError{msg: "empty rule list"}

type parseRuleError struct{ msg string }

func (e parseRuleError) Error() string { return e.msg }
