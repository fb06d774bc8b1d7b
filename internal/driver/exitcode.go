package driver

import "github.com/rumdl-go/rumdl/internal/rules"

// ParseFailLevel parses the --fail-level value into a severity threshold.
// "none" has no Severity equivalent and is reported back to the caller via
// the ok return so DetermineExitCode can special-case it without the
// Severity enum growing a value that means "never fail".
func ParseFailLevel(level string) (threshold rules.Severity, never bool, err error) {
	if level == "" {
		level = "style"
	}
	if level == "none" {
		return 0, true, nil
	}
	sev, err := rules.ParseSeverity(level)
	if err != nil {
		return 0, false, err
	}
	return sev, false, nil
}

// DetermineExitCode maps a processed violation list and a --fail-level
// string to the process exit code. A bad fail-level string is a
// configuration error, not a violation.
func DetermineExitCode(violations []rules.Violation, failLevel string) (int, error) {
	threshold, never, err := ParseFailLevel(failLevel)
	if err != nil {
		return ExitConfigError, err
	}
	if never {
		return ExitSuccess, nil
	}
	for _, v := range violations {
		if v.Severity.IsAtLeast(threshold) {
			return ExitViolations, nil
		}
	}
	return ExitSuccess, nil
}
