package core

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func loadProgramWithConfig(t testing.TB, cfg Config, source string) *Program {
	t.Helper()
	engine := MustNewEngine(cfg)
	program, err := engine.LoadYAML([]byte(source))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return program
}

func loadProgramDefault(t testing.TB, source string) *Program {
	t.Helper()
	return loadProgramWithConfig(t, Config{}, source)
}

func runEntry(t testing.TB, program *Program, entry string, args ...Value) *Result {
	t.Helper()
	result, err := program.RunEntry(context.Background(), entry, args, RunOptions{})
	if err != nil {
		t.Fatalf("run %s failed: %v", entry, err)
	}
	return result
}

func expectOutput(t testing.TB, result *Result, want ...string) {
	t.Helper()
	if !slices.Equal(result.Output, want) {
		t.Fatalf("output mismatch: got %q want %q", result.Output, want)
	}
}

func expectLoadError(t testing.TB, source string, want error) error {
	t.Helper()
	_, err := MustNewEngine(Config{}).LoadYAML([]byte(source))
	if err == nil {
		t.Fatalf("expected %v, load succeeded", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	return err
}

func expectRuntimeError(t testing.TB, err error, want error) *RuntimeError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected runtime error %v", want)
	}
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	return re
}

const speakSource = `types:
  - interface: ISpeak
    methods:
      - name: speak
  - class: Human
    implements: [ISpeak]
    fields:
      - {name: name, type: String}
    constructor:
      params:
        - {name: name, type: String}
      body:
        - assign: {target: {field: name, of: this}, value: name}
    methods:
      - name: speak
        body:
          - println: {field: name, of: this}
  - class: Cat
    implements: [ISpeak]
    methods:
      - name: speak
        body:
          - println: "Meoow!"
  - class: Main
    methods:
      - name: callSpeaker
        params:
          - {name: object, type: ISpeak}
        body:
          - expr: {call: speak, on: object}
      - name: main
        static: true
        body:
          - var: {name: bob, type: Human, init: {new: Human, args: ["Bob"]}}
          - var: {name: cat, type: Cat, init: {new: Cat}}
          - var: {name: main, type: Main, init: {new: Main}}
          - expr: {call: callSpeaker, on: main, args: [bob]}
          - expr: {call: callSpeaker, on: main, args: [cat]}
`

const fibSource = `types:
  - class: Fib
    methods:
      - name: fibonacci
        params:
          - {name: n, type: int}
        returns: int
        body:
          - if:
              cond: {binary: "<", left: n, right: 2}
              then:
                - return: n
          - return:
              binary: "+"
              left: {call: fibonacci, on: this, args: [{binary: "-", left: n, right: 1}]}
              right: {call: fibonacci, on: this, args: [{binary: "-", left: n, right: 2}]}
      - name: main
        static: true
        body:
          - var: {name: fib, type: Fib, init: {new: Fib}}
          - var: {name: result, type: int, init: {call: fibonacci, on: fib, args: [9]}}
          - println: result
`

const overloadSource = `types:
  - class: AnotherOverload
    methods:
      - name: greet
        returns: String
        body:
          - return: "Good morning!"
      - name: greet
        params:
          - {name: name, type: String}
        body:
          - println: "Hello, "
          - println: name
      - name: main
        static: true
        body:
          - var: {name: ov, type: AnotherOverload, init: {new: AnotherOverload}}
          - println: {call: greet, on: ov}
          - expr: {call: greet, on: ov, args: ["Mark"]}
`
