// Package manifest implements source.Host over a YAML description of
// packages, types and members. It can express nesting and member flags that
// Go source never produces, which makes it the fixture format for generator
// tests and for `ecsgen generate --manifest`.
package manifest

// File is the top-level manifest document.
type File struct {
	Packages []PackageEntry `yaml:"packages"`
}

// PackageEntry describes one package.
type PackageEntry struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
	// File is the default source file for types in this package.
	File string `yaml:"file"`
	// Imports maps a qualifier to an import path. Qualifiers that are not
	// listed resolve against the names of other manifest packages.
	Imports map[string]string `yaml:"imports"`
	Types   []TypeEntry       `yaml:"types"`
}

// TypeEntry describes a type declaration, or a function scope when Kind is
// "func".
type TypeEntry struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`
	Access    string   `yaml:"access"`
	Modifiers []string `yaml:"modifiers"`
	Bases     []string `yaml:"bases"`
	// Implements lists interfaces satisfied without being named as bases.
	Implements []string      `yaml:"implements"`
	File       string        `yaml:"file"`
	Line       int           `yaml:"line"`
	Members    []MemberEntry `yaml:"members"`
	// Types are declared inside this one.
	Types []TypeEntry `yaml:"types"`
}

// MemberEntry describes a method, property or indexer.
type MemberEntry struct {
	Name       string       `yaml:"name"`
	Kind       string       `yaml:"kind"`
	Access     string       `yaml:"access"`
	Static     bool         `yaml:"static"`
	Generic    bool         `yaml:"generic"`
	Override   bool         `yaml:"override"`
	Sealed     bool         `yaml:"sealed"`
	Params     []ParamEntry `yaml:"params"`
	Result     string       `yaml:"result"`
	ResultMode string       `yaml:"result_mode"`
	// Type is the property type.
	Type   string `yaml:"type"`
	Get    *bool  `yaml:"get"`
	Set    bool   `yaml:"set"`
	Getter string `yaml:"getter"`
	Setter string `yaml:"setter"`
	Line   int    `yaml:"line"`
}

// ParamEntry describes a parameter.
type ParamEntry struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Mode string `yaml:"mode"`
}
