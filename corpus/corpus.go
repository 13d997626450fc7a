// Package corpus embeds the reference programs the core must reproduce.
package corpus

import (
	"embed"
	"fmt"
	"slices"
)

//go:embed programs/*.yaml
var programs embed.FS

// Program is one embedded reference program with its entry point and the
// lines it must print.
type Program struct {
	Name   string
	Entry  string
	Expect []string
	file   string
}

var registry = []Program{
	{Name: "fib", Entry: "Fib.main", Expect: []string{"34"}, file: "programs/fib.yaml"},
	{Name: "overloading", Entry: "AnotherOverload.main", Expect: []string{"Good morning!", "Hello, ", "Mark"}, file: "programs/overloading.yaml"},
	{Name: "speak", Entry: "Main.main", Expect: []string{"Bob", "Meoow!"}, file: "programs/speak.yaml"},
}

func Names() []string {
	names := make([]string, len(registry))
	for i, p := range registry {
		names[i] = p.Name
	}
	return names
}

func All() []Program {
	return slices.Clone(registry)
}

func Lookup(name string) (Program, error) {
	for _, p := range registry {
		if p.Name == name {
			return p, nil
		}
	}
	return Program{}, fmt.Errorf("unknown example %q (available: %v)", name, Names())
}

// Source returns the YAML document of p.
func (p Program) Source() ([]byte, error) {
	return programs.ReadFile(p.file)
}
