package corpus

import (
	"context"
	"slices"
	"testing"

	"github.com/mgomes/classcore/core"
)

func TestReferenceProgramsProduceExpectedOutput(t *testing.T) {
	engine := core.MustNewEngine(core.Config{})
	for _, example := range All() {
		t.Run(example.Name, func(t *testing.T) {
			source, err := example.Source()
			if err != nil {
				t.Fatalf("read source: %v", err)
			}
			program, err := engine.LoadYAML(source)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			result, err := program.RunEntry(context.Background(), example.Entry, nil, core.RunOptions{})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !slices.Equal(result.Output, example.Expect) {
				t.Fatalf("output mismatch: got %q want %q", result.Output, example.Expect)
			}
		})
	}
}

func TestLookupUnknownExample(t *testing.T) {
	if _, err := Lookup("missing"); err == nil {
		t.Fatalf("expected error for unknown example")
	}
	if _, err := Lookup("fib"); err != nil {
		t.Fatalf("lookup fib: %v", err)
	}
}
