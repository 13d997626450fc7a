package core

import (
	"context"
	"testing"
)

func TestDynamicDispatchThroughInterface(t *testing.T) {
	program := loadProgramDefault(t, speakSource)
	result := runEntry(t, program, "Main.main")
	expectOutput(t, result, "Bob", "Meoow!")
}

func TestOverloadProgramOutput(t *testing.T) {
	program := loadProgramDefault(t, overloadSource)
	result := runEntry(t, program, "AnotherOverload.main")
	expectOutput(t, result, "Good morning!", "Hello, ", "Mark")
}

func TestGoBuiltDeclarationsRun(t *testing.T) {
	decls := speakDecls()
	decls = append(decls, &TypeDecl{
		Kind: DeclClass,
		Name: "Main",
		Methods: []*MethodSignature{{
			Name:   "main",
			Static: true,
			Body: []Statement{
				&VarStmt{Name: "s", Type: "ISpeak", Init: &NewExpr{Type: "Human", Args: []Expression{&StringLiteral{Value: "Ada"}}}},
				&ExprStmt{Expr: &CallExpr{Receiver: &LocalExpr{Name: "s"}, Method: "speak"}},
				&AssignStmt{Target: &LocalExpr{Name: "s"}, Value: &NewExpr{Type: "Cat"}},
				&ExprStmt{Expr: &CallExpr{Receiver: &LocalExpr{Name: "s"}, Method: "speak"}},
			},
		}},
	})
	program, err := MustNewEngine(Config{}).Load(decls)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	result := runEntry(t, program, "Main.main")
	expectOutput(t, result, "Ada", "Meoow!")
}

const zooSource = `types:
  - interface: ISpeak
    methods:
      - name: speak
  - class: Animal
    implements: [ISpeak]
    fields:
      - {name: sound, type: String}
    methods:
      - name: speak
        body:
          - println: "..."
      - name: describe
        returns: String
        body:
          - return: {binary: "+", left: "I say ", right: {call: noise}}
      - name: noise
        returns: String
        body:
          - return: "nothing"
  - class: Dog
    extends: Animal
    methods:
      - name: speak
        body:
          - println: "Woof"
      - name: noise
        returns: String
        body:
          - return: "woof"
  - class: Puppy
    extends: Dog
  - class: Zoo
    methods:
      - name: hear
        params: [{name: s, type: ISpeak}]
        body:
          - expr: {call: speak, on: s}
      - name: main
        static: true
        body:
          - var: {name: zoo, type: Zoo, init: {new: Zoo}}
          - expr: {call: hear, on: zoo, args: [{new: Animal}]}
          - expr: {call: hear, on: zoo, args: [{new: Dog}]}
          - expr: {call: hear, on: zoo, args: [{new: Puppy}]}
          - var: {name: a, type: Animal, init: {new: Puppy}}
          - expr: {call: speak, on: a}
          - println: {call: describe, on: a}
`

func TestDispatchFollowsRuntimeClassThroughInheritance(t *testing.T) {
	program := loadProgramDefault(t, zooSource)
	result := runEntry(t, program, "Zoo.main")
	expectOutput(t, result, "...", "Woof", "Woof", "Woof", "I say woof")
}

func TestInheritedInstanceEntry(t *testing.T) {
	program := loadProgramDefault(t, zooSource)
	result, err := program.Run(context.Background(), "Puppy", "describe", nil, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Value.String() != "I say woof" {
		t.Fatalf("unexpected value %q", result.Value.String())
	}
}

func TestStaticCallsBypassDispatch(t *testing.T) {
	program := loadProgramDefault(t, `types:
  - class: MathUtil
    methods:
      - name: twice
        static: true
        params: [{name: n, type: int}]
        returns: int
        body:
          - return: {binary: "*", left: n, right: 2}
  - class: App
    methods:
      - name: main
        static: true
        body:
          - println: {static: twice, type: MathUtil, args: [21]}
`)
	result := runEntry(t, program, "App.main")
	expectOutput(t, result, "42")
}
