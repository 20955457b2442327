// Package extcheck adapts an external command-line linter (typically
// pylint) to the script.Checker interface. The source unit is piped to
// the command's stdin; findings are read from stdout, one per line, in
// the form "LINE:CATEGORY:MESSAGE".
package extcheck

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/viewlint-labs/viewlint/pkg/script"
)

// Checker runs a configured external command per source unit.
type Checker struct {
	command []string
}

// New returns a checker for the given argv. Returns nil when argv is
// empty, which disables script checking.
func New(command []string) *Checker {
	if len(command) == 0 {
		return nil
	}
	return &Checker{command: command}
}

// Check implements script.Checker.
func (c *Checker) Check(source string) ([]script.Finding, error) {
	cmd := exec.Command(c.command[0], c.command[1:]...)
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Linters exit nonzero when they find problems; only a failure to
	// run at all is an error.
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", c.command[0], err)
		}
	}
	return parseFindings(stdout.Bytes()), nil
}

// parseFindings reads "LINE:CATEGORY:MESSAGE" lines, skipping anything
// that does not parse.
func parseFindings(out []byte) []script.Finding {
	var findings []script.Finding
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 3)
		if len(parts) != 3 {
			continue
		}
		line, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || line < 1 {
			continue
		}
		findings = append(findings, script.Finding{
			Line:     line,
			Category: strings.TrimSpace(parts[1]),
			Message:  strings.TrimSpace(parts[2]),
		})
	}
	return findings
}
