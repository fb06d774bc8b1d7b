// Package secretsincodeblock scans fenced code block content for hardcoded
// secrets using gitleaks' curated pattern database. Code samples pasted
// into documentation are a common place for a real credential to leak.
package secretsincodeblock

import (
	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/rumdl-go/rumdl/internal/rules"
)

// Rule implements secret detection in fenced code block content.
type Rule struct {
	detector *detect.Detector
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "secrets-in-code-block",
		Name:             "Secrets in fenced code block",
		Description:      "Detects hardcoded secrets, API keys, and credentials inside fenced code blocks",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/secrets-in-code-block.md",
		DefaultSeverity:  rules.SeverityError,
		Category:         "security",
		EnabledByDefault: true,
		IsExperimental:   true,
	}
}

// Check scans every fenced code block for secrets.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	if r.detector == nil {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return nil
		}
		r.detector = d
	}

	buf := input.Context.Buffer()

	var violations []rules.Violation
	for _, span := range input.Context.FencedCodeRanges().All() {
		content := buf.Slice(span.Start, span.End)
		if len(content) == 0 {
			continue
		}
		findings := r.detector.DetectString(string(content))
		for _, finding := range findings {
			msg := finding.Description
			if msg == "" {
				msg = "potential secret detected"
			}
			v := rules.NewViolation(
				rules.NewLocationFromByteRange(input.File, buf, span.Start, span.End),
				r.Metadata().Code,
				msg+" in fenced code block",
				r.Metadata().DefaultSeverity,
			).WithDetail(
				"found: " + redact(finding.Secret) + " (rule: " + finding.RuleID + "). " +
					"Remove real credentials from documentation and replace them with placeholders.",
			)
			violations = append(violations, v)
		}
	}
	return violations
}

// redact returns a display-safe fragment of a detected secret.
func redact(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// New creates a new Rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }
