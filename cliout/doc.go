// Package cliout provides structured output formatting for CLI commands.
//
// # Output Formats
//
//   - default: human-readable text with colors and Unicode symbols
//   - json: indented JSON for scripting
//   - yaml: YAML for scripting and config snippets
//
// Commands build one value and let Print pick the rendering:
//
//	if err := cliout.SetFormat(outputFlag); err != nil {
//	    return err
//	}
//	return cliout.Print(view, func() {
//	    cliout.Header("Brokers")
//	    cliout.Label("Scheme", view.Scheme)
//	})
//
// # Colors
//
// Colors are used only when stdout is a terminal and NO_COLOR is unset.
// ForceColor and NoColor override the detection; AutoColor restores it.
// Symbols fall back to ASCII on legacy Windows consoles.
package cliout
