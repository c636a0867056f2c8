package lexer

import "fmt"

// Diagnostic describes a problem found in the source.
type Diagnostic struct {
	Message    string
	SourceName string
	Line       int
	LineText   string
	Column     int
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.SourceName, d.Line, d.Column, d.Message)
}

// Reporter receives diagnostics. Errors make the compilation fail; warnings
// describe input that was accepted under a fallback rule.
type Reporter interface {
	Warning(d Diagnostic)
	Error(d Diagnostic)
}

// Collector is a Reporter that keeps everything it is given.
type Collector struct {
	Warnings []Diagnostic
	Errors   []Diagnostic
}

func (c *Collector) Warning(d Diagnostic) { c.Warnings = append(c.Warnings, d) }
func (c *Collector) Error(d Diagnostic)   { c.Errors = append(c.Errors, d) }

// HasErrors reports whether any error was collected.
func (c *Collector) HasErrors() bool { return len(c.Errors) > 0 }
