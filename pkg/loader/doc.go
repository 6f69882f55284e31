// Package loader resolves qualified names to files across ordered search roots.
//
// A name such as `Mail\Templates\Welcome_Body` maps to the relative path
// Mail/Templates/Welcome/Body plus the configured extension: namespace
// separators become directory separators and underscores in the final
// segment do too. Roots are searched in order and the first existing file
// wins, so a root listed earlier shadows the same file in later roots.
//
// When a namespace prefix is set, names outside that namespace never match.
//
//	l := loader.New([]string{"includes/submodules", "includes"},
//	    loader.WithExtension(".sql"),
//	)
//	q, err := l.ReadFile(`Reports\Monthly_Totals`)
//
// Go programs cannot load code at runtime, so the loader serves assets that
// are addressed by name: templates, SQL files, fixtures.
package loader
