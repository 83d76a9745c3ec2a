package ui

import (
	"fmt"
	"io"
)

// PrintWarning writes a styled warning line to w.
func PrintWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, WarningStyle().Render(SymbolWarning+" "+msg))
}

// PrintSuccess writes a styled success line to w.
func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, SuccessStyle().Render(SymbolSuccess)+" "+msg)
}

// PrintError writes a styled error line to w.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, ErrorStyle().Render(SymbolFail)+" "+msg)
}
