package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeYAMLSpeakDeclarations(t *testing.T) {
	decls, err := DecodeYAML([]byte(speakSource))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decls) != 4 {
		t.Fatalf("expected 4 declarations, got %d", len(decls))
	}
	iface := decls[0]
	if iface.Kind != DeclInterface || iface.Name != "ISpeak" || len(iface.Methods) != 1 {
		t.Fatalf("unexpected interface decl: %+v", iface)
	}
	if iface.Methods[0].Body != nil {
		t.Fatalf("interface method should have no body")
	}

	human := decls[1]
	if human.Kind != DeclClass || len(human.Implements) != 1 || human.Implements[0] != "ISpeak" {
		t.Fatalf("unexpected Human decl: %+v", human)
	}
	if human.Constructor == nil || human.Constructor.String() != "Human(String)" {
		t.Fatalf("unexpected constructor: %v", human.Constructor)
	}
	assign, ok := human.Constructor.Body[0].(*AssignStmt)
	if !ok {
		t.Fatalf("expected assignment, got %T", human.Constructor.Body[0])
	}
	target, ok := assign.Target.(*FieldExpr)
	if !ok || target.Name != "name" {
		t.Fatalf("unexpected target %#v", assign.Target)
	}
	if _, ok := target.Object.(*ThisExpr); !ok {
		t.Fatalf("expected this as field owner, got %T", target.Object)
	}
	if local, ok := assign.Value.(*LocalExpr); !ok || local.Name != "name" {
		t.Fatalf("unexpected value %#v", assign.Value)
	}

	main := decls[3]
	if len(main.Methods) != 2 || !main.Methods[1].Static {
		t.Fatalf("expected static main, got %+v", main.Methods)
	}
	if main.Methods[0].Owner != "Main" {
		t.Fatalf("owner not recorded: %q", main.Methods[0].Owner)
	}
}

func TestDecodeYAMLScalarExpressions(t *testing.T) {
	decls, err := DecodeYAML([]byte(`types:
  - class: Scalars
    methods:
      - name: run
        params: [{name: x, type: int}]
        body:
          - println: "quoted"
          - println: 'single'
          - println: 42
          - println: -7
          - println: true
          - println: x
          - println: this
          - println: ~
          - println: {string: plain}
          - return:
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	body := decls[0].Methods[0].Body
	printed := func(i int) Expression {
		stmt, ok := body[i].(*PrintStmt)
		if !ok {
			t.Fatalf("statement %d: expected println, got %T", i, body[i])
		}
		return stmt.Value
	}

	if lit, ok := printed(0).(*StringLiteral); !ok || lit.Value != "quoted" {
		t.Fatalf("expected string literal, got %#v", printed(0))
	}
	if lit, ok := printed(1).(*StringLiteral); !ok || lit.Value != "single" {
		t.Fatalf("expected string literal, got %#v", printed(1))
	}
	if lit, ok := printed(2).(*IntegerLiteral); !ok || lit.Value != 42 {
		t.Fatalf("expected 42, got %#v", printed(2))
	}
	if lit, ok := printed(3).(*IntegerLiteral); !ok || lit.Value != -7 {
		t.Fatalf("expected -7, got %#v", printed(3))
	}
	if lit, ok := printed(4).(*BoolLiteral); !ok || !lit.Value {
		t.Fatalf("expected true, got %#v", printed(4))
	}
	if local, ok := printed(5).(*LocalExpr); !ok || local.Name != "x" {
		t.Fatalf("expected local x, got %#v", printed(5))
	}
	if _, ok := printed(6).(*ThisExpr); !ok {
		t.Fatalf("expected this, got %#v", printed(6))
	}
	if _, ok := printed(7).(*NullLiteral); !ok {
		t.Fatalf("expected null, got %#v", printed(7))
	}
	if lit, ok := printed(8).(*StringLiteral); !ok || lit.Value != "plain" {
		t.Fatalf("expected string literal, got %#v", printed(8))
	}
	if ret, ok := body[9].(*ReturnStmt); !ok || ret.Value != nil {
		t.Fatalf("expected bare return, got %#v", body[9])
	}
}

func TestDecodeYAMLRecordsPositions(t *testing.T) {
	decls, err := DecodeYAML([]byte(fibSource))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fib := decls[0].Methods[0]
	if fib.Pos().Line != 4 {
		t.Fatalf("expected fibonacci at line 4, got %+v", fib.Pos())
	}
	ifStmt, ok := fib.Body[0].(*IfStmt)
	if !ok {
		t.Fatalf("expected if statement, got %T", fib.Body[0])
	}
	if ifStmt.Condition.Pos().Line != 10 {
		t.Fatalf("expected condition at line 10, got %+v", ifStmt.Condition.Pos())
	}
}

func TestDecodeYAMLRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{name: "not yaml", source: "types: [", wantMsg: "invalid declaration"},
		{name: "empty", source: "", wantMsg: "empty declaration document"},
		{name: "no types", source: "types_: []", wantMsg: `unexpected key "types_"`},
		{name: "both kinds", source: "types:\n  - {class: A, interface: B}", wantMsg: "both class and interface"},
		{name: "no kind", source: "types:\n  - {fields: []}", wantMsg: "class or interface key"},
		{name: "unknown statement", source: "types:\n  - class: A\n    methods:\n      - name: m\n        body:\n          - loop: x", wantMsg: `unexpected key "loop"`},
		{name: "two statements", source: "types:\n  - class: A\n    methods:\n      - name: m\n        body:\n          - {println: 1, expr: 2}", wantMsg: "exactly one"},
		{name: "int overflow", source: "types:\n  - class: A\n    methods:\n      - name: m\n        body:\n          - println: 3000000000", wantMsg: "does not fit"},
		{name: "bad operator", source: "types:\n  - class: A\n    methods:\n      - name: m\n        body:\n          - println: {binary: \"**\", left: 1, right: 2}", wantMsg: "unknown binary operator"},
		{name: "bad local", source: "types:\n  - class: A\n    methods:\n      - name: m\n        body:\n          - println: hello world", wantMsg: "quote string literals"},
		{name: "assign literal", source: "types:\n  - class: A\n    methods:\n      - name: m\n        body:\n          - assign: {target: 1, value: 2}", wantMsg: "assignment target"},
		{name: "method without name", source: "types:\n  - class: A\n    methods:\n      - returns: int", wantMsg: "method needs a name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(tc.source))
			if !errors.Is(err, ErrInvalidDeclaration) {
				t.Fatalf("expected invalid declaration, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected %q in %v", tc.wantMsg, err)
			}
		})
	}
}

func TestDecodeYAMLErrorCarriesPosition(t *testing.T) {
	_, err := DecodeYAML([]byte("types:\n  - class: A\n    bogus: 1\n"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Pos.Line != 3 || loadErr.Pos.Column != 5 {
		t.Fatalf("unexpected position %+v", loadErr.Pos)
	}
	if !strings.Contains(err.Error(), "(line 3, column 5)") {
		t.Fatalf("position missing from message: %v", err)
	}
}
