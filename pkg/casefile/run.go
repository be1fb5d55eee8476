package casefile

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/driver"
)

// Failure describes one assertion that did not hold.
type Failure struct {
	Assertion Assertion
	Message   string
	Diff      string
}

func (f Failure) String() string {
	s := fmt.Sprintf("line %d: %s: %s", f.Assertion.Line, f.Assertion.Type, f.Message)
	if f.Diff != "" {
		s += "\n" + f.Diff
	}
	return s
}

// Run compiles the case and checks every assertion. A malformed config
// fence is returned as an error; assertion mismatches are failures.
func Run(c Case, logger *slog.Logger) ([]Failure, error) {
	cfg := config.NewConfig()
	if strings.TrimSpace(c.Config) != "" {
		var err error
		if cfg, err = config.Parse([]byte(c.Config)); err != nil {
			return nil, fmt.Errorf("test '%s': %w", c.Name, err)
		}
	}

	res, compileErr := driver.New(cfg, logger).CompileString(c.Name+".rc", c.Input)

	var failures []Failure
	fail := func(a Assertion, diff, format string, args ...interface{}) {
		failures = append(failures, Failure{Assertion: a, Message: fmt.Sprintf(format, args...), Diff: diff})
	}

	for _, a := range c.Assertions {
		if a.Type == AssertCompileError {
			switch {
			case compileErr == nil:
				fail(a, "", "expected a compile error containing %q, compilation succeeded", a.Content)
			case !strings.Contains(compileErr.Error(), a.Content):
				fail(a, "", "expected a compile error containing %q, got %q", a.Content, compileErr.Error())
			}
			continue
		}
		if compileErr != nil {
			fail(a, "", "unexpected compile error: %v", compileErr)
			continue
		}

		var got string
		switch a.Type {
		case AssertAsm:
			got = res.Asm
		case AssertSymbols:
			got = res.Bindings.Dump()
		case AssertWarnings:
			var lines []string
			for _, d := range res.Bindings.Diagnostics {
				lines = append(lines, fmt.Sprintf("%s [-W%s]", d.Msg, cfg.Warnings[d.Warning].Name))
			}
			got = strings.Join(lines, "\n")
		}
		want := strings.TrimRight(a.Content, "\n")
		got = strings.TrimRight(got, "\n")
		if diff := cmp.Diff(want, got); diff != "" {
			fail(a, diff, "output mismatch (-want +got)")
		}
	}
	return failures, nil
}
