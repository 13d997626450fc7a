package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func staticMain(body string) string {
	return `types:
  - class: Holder
    fields:
      - {name: count, type: int}
      - {name: flag, type: boolean}
      - {name: label, type: String}
  - class: App
    methods:
      - name: main
        static: true
        body:
` + body
}

func TestArithmeticWrapsAtInt32(t *testing.T) {
	program := loadProgramDefault(t, staticMain(`          - println: {binary: "+", left: 2147483647, right: 1}
          - println: {binary: "-", left: -2147483648, right: 1}
          - println: {binary: "*", left: 65536, right: 65536}
          - println: {binary: "/", left: -2147483648, right: -1}
          - println: {binary: "%", left: -7, right: 3}
          - println: {neg: -2147483648}
`))
	result := runEntry(t, program, "App.main")
	expectOutput(t, result, "-2147483648", "2147483647", "0", "-2147483648", "-1", "-2147483648")
}

func TestDivisionByZeroKeepsPartialOutput(t *testing.T) {
	program := loadProgramDefault(t, staticMain(`          - var: {name: zero, type: int, init: 0}
          - println: "before"
          - println: {binary: "/", left: 1, right: zero}
          - println: "after"
`))
	result, err := program.RunEntry(context.Background(), "App.main", nil, RunOptions{})
	re := expectRuntimeError(t, err, ErrArithmetic)
	expectOutput(t, result, "before")
	if !strings.Contains(re.Message, "division by zero") {
		t.Fatalf("unexpected message %q", re.Message)
	}
}

func TestStringConcatenationAndComparison(t *testing.T) {
	program := loadProgramDefault(t, staticMain(`          - println: {binary: "+", left: "n=", right: 5}
          - println: {binary: "+", left: 1, right: {binary: "+", left: 2, right: "x"}}
          - println: {binary: "+", left: "flag ", right: true}
          - println: {binary: "+", left: "v=", right: ~}
          - println: {binary: "==", left: "a", right: "a"}
          - println: {binary: "&&", left: {binary: "<", left: 1, right: 2}, right: {not: false}}
          - println: {binary: "||", left: false, right: {binary: ">=", left: 2, right: 3}}
`))
	result := runEntry(t, program, "App.main")
	expectOutput(t, result, "n=5", "12x", "flag true", "v=null", "true", "true", "false")
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	program := loadProgramDefault(t, staticMain(`          - var: {name: zero, type: int, init: 0}
          - println: {binary: "&&", left: false, right: {binary: "==", left: {binary: "/", left: 1, right: zero}, right: 1}}
          - println: {binary: "||", left: true, right: {binary: "==", left: {binary: "/", left: 1, right: zero}, right: 1}}
`))
	result := runEntry(t, program, "App.main")
	expectOutput(t, result, "false", "true")
}

func TestWhileLoopAndLocals(t *testing.T) {
	program := loadProgramDefault(t, staticMain(`          - var: {name: i, type: int, init: 1}
          - var: {name: sum, type: int, init: 0}
          - while:
              cond: {binary: "<=", left: i, right: 10}
              body:
                - assign: {target: sum, value: {binary: "+", left: sum, right: i}}
                - assign: {target: i, value: {binary: "+", left: i, right: 1}}
          - println: sum
`))
	result := runEntry(t, program, "App.main")
	expectOutput(t, result, "55")
}

func TestFieldDefaultsAndRendering(t *testing.T) {
	program := loadProgramDefault(t, staticMain(`          - var: {name: h, type: Holder, init: {new: Holder}}
          - println: {field: count, of: h}
          - println: {field: flag, of: h}
          - println: {field: label, of: h}
          - println: h
          - var: {name: other, type: Holder, init: {new: Holder}}
          - println: other
          - println: {binary: "==", left: h, right: other}
          - println: {binary: "==", left: h, right: h}
`))
	result := runEntry(t, program, "App.main")
	expectOutput(t, result, "0", "false", "null", "Holder@1", "Holder@2", "false", "true")
}

func TestNullReceiverIsRuntimeError(t *testing.T) {
	program := loadProgramDefault(t, speakSource+`  - class: Crash
    methods:
      - name: main
        static: true
        body:
          - var: {name: s, type: ISpeak}
          - println: "start"
          - expr: {call: speak, on: s}
`)
	result, err := program.RunEntry(context.Background(), "Crash.main", nil, RunOptions{})
	expectRuntimeError(t, err, ErrNullReceiver)
	expectOutput(t, result, "start")
}

func TestNullFieldAccessIsRuntimeError(t *testing.T) {
	program := loadProgramDefault(t, staticMain(`          - var: {name: h, type: Holder}
          - println: {field: count, of: h}
`))
	_, err := program.RunEntry(context.Background(), "App.main", nil, RunOptions{})
	expectRuntimeError(t, err, ErrNullReceiver)
}

func TestStepQuotaStopsRunawayLoop(t *testing.T) {
	program := loadProgramWithConfig(t, Config{StepQuota: 200}, staticMain(`          - println: "spin"
          - while:
              cond: true
              body: []
`))
	result, err := program.RunEntry(context.Background(), "App.main", nil, RunOptions{})
	expectRuntimeError(t, err, ErrStepQuotaExceeded)
	expectOutput(t, result, "spin")
	if result.Steps <= 200 {
		t.Fatalf("expected steps past the quota, got %d", result.Steps)
	}
}

func TestInstanceQuota(t *testing.T) {
	program := loadProgramWithConfig(t, Config{InstanceQuota: 3}, staticMain(`          - while:
              cond: true
              body:
                - expr: {new: Holder}
`))
	_, err := program.RunEntry(context.Background(), "App.main", nil, RunOptions{})
	expectRuntimeError(t, err, ErrInstanceQuotaExceeded)
}

func TestOutputStreamsToWriter(t *testing.T) {
	program := loadProgramDefault(t, speakSource)
	var buf bytes.Buffer
	result, err := program.RunEntry(context.Background(), "Main.main", nil, RunOptions{Output: &buf})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if buf.String() != "Bob\nMeoow!\n" {
		t.Fatalf("unexpected streamed output %q", buf.String())
	}
	if result.RunID == "" {
		t.Fatalf("expected run id")
	}
}

func TestRunEntryArgumentsUseRuntimeTypes(t *testing.T) {
	program := loadProgramDefault(t, overloadSource)
	result, err := program.Run(context.Background(), "AnotherOverload", "greet", []Value{NewString("Ann")}, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	expectOutput(t, result, "Hello, ", "Ann")

	result, err = program.Run(context.Background(), "AnotherOverload", "greet", nil, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Value.String() != "Good morning!" || len(result.Output) != 0 {
		t.Fatalf("unexpected result %v %q", result.Value, result.Output)
	}
}

func TestRunFailuresBeforeExecution(t *testing.T) {
	program := loadProgramDefault(t, overloadSource)

	if _, err := program.Run(context.Background(), "Ghost", "main", nil, RunOptions{}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
	result, err := program.Run(context.Background(), "AnotherOverload", "greet", []Value{NewInt(1)}, RunOptions{})
	if !errors.Is(err, ErrNoMatchingOverload) || result != nil {
		t.Fatalf("expected no matching overload and no result, got %v %v", result, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := program.Run(ctx, "AnotherOverload", "main", nil, RunOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}

	if _, err := program.RunEntry(context.Background(), "nodot", nil, RunOptions{}); err == nil {
		t.Fatalf("expected malformed entry error")
	}
}

func TestMissingReturnYieldsDefault(t *testing.T) {
	program := loadProgramDefault(t, `types:
  - class: App
    methods:
      - name: maybe
        static: true
        params: [{name: b, type: boolean}]
        returns: int
        body:
          - if:
              cond: b
              then:
                - return: 7
      - name: main
        static: true
        body:
          - println: {call: maybe, args: [true]}
          - println: {call: maybe, args: [false]}
`)
	result := runEntry(t, program, "App.main")
	expectOutput(t, result, "7", "0")
}

func TestEngineDefaults(t *testing.T) {
	engine := MustNewEngine(Config{})
	cfg := engine.Config()
	if cfg.RecursionLimit != 1024 || cfg.StepQuota != 100_000_000 || cfg.InstanceQuota != 100_000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Logger == nil {
		t.Fatalf("expected a logger")
	}
	if !strings.Contains(engine.ConfigSummary(), "recursion limit 1024") {
		t.Fatalf("unexpected summary %q", engine.ConfigSummary())
	}
}

func TestNegativeStepQuotaIsUnlimited(t *testing.T) {
	engine := MustNewEngine(Config{StepQuota: -5})
	if engine.Config().StepQuota != -1 {
		t.Fatalf("expected normalized unlimited quota, got %d", engine.Config().StepQuota)
	}
	if !strings.Contains(engine.ConfigSummary(), "step quota unlimited") {
		t.Fatalf("unexpected summary %q", engine.ConfigSummary())
	}

	program := loadProgramWithConfig(t, Config{StepQuota: -1}, staticMain(`          - var: {name: i, type: int, init: 0}
          - while:
              cond: {binary: "<", left: i, right: 5000}
              body:
                - assign: {target: i, value: {binary: "+", left: i, right: 1}}
          - println: i
`))
	result := runEntry(t, program, "App.main")
	expectOutput(t, result, "5000")
	if result.Steps <= 20_000 {
		t.Fatalf("expected the loop to be counted, got %d steps", result.Steps)
	}
}

func TestCancelledContextStopsUnboundedLoop(t *testing.T) {
	program := loadProgramWithConfig(t, Config{StepQuota: -1}, staticMain(`          - println: "spin"
          - while:
              cond: true
              body: []
`))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := program.RunEntry(ctx, "App.main", nil, RunOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	expectOutput(t, result, "spin")
}

func TestSplitEntry(t *testing.T) {
	typeName, method, err := SplitEntry("Fib.main")
	if err != nil || typeName != "Fib" || method != "main" {
		t.Fatalf("unexpected split %q %q %v", typeName, method, err)
	}
	for _, bad := range []string{"", "Fib", ".main", "Fib."} {
		if _, _, err := SplitEntry(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestEntryReturnsInstance(t *testing.T) {
	program := loadProgramDefault(t, `types:
  - class: Holder
    fields:
      - {name: count, type: int}
    constructor:
      params: [{name: n, type: int}]
      body:
        - assign: {target: {field: count}, value: n}
  - class: App
    methods:
      - name: make
        static: true
        returns: Holder
        body:
          - expr: {new: Holder, args: [1]}
          - return: {new: Holder, args: [7]}
`)
	result := runEntry(t, program, "App.make")
	inst := result.Value.Instance()
	if inst == nil || inst.Class.Name != "Holder" {
		t.Fatalf("expected a Holder, got %v", result.Value)
	}
	if inst.ID() != 2 {
		t.Fatalf("expected second allocation, got id %d", inst.ID())
	}
	if count, ok := inst.Field("count"); !ok || count.Int() != 7 {
		t.Fatalf("unexpected count %v", count)
	}
	if _, ok := inst.Field("missing"); ok {
		t.Fatalf("unexpected field")
	}
}
