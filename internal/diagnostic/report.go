package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

var (
	red  = color.New(color.FgRed).SprintFunc()
	cyan = color.New(color.FgCyan).SprintFunc()
	dim  = color.New(color.Faint).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

// Format renders a diagnostic as a one-line headline plus indented detail
// lines, colorized unless the caller disabled color globally
// (color.NoColor).
func Format(d *Diagnostic) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n", red(d.Code), dim("["+d.Phase+"]"), bold(d.Message))

	info := Lookup(d.Code)
	fmt.Fprintf(&sb, "  %s\n", info.Description)

	if d.Term != 0 {
		fmt.Fprintf(&sb, "  %s %d\n", cyan("term:"), d.Term)
	}
	if d.Expected != 0 {
		fmt.Fprintf(&sb, "  %s %d\n", cyan("expected:"), d.Expected)
	}
	if d.Actual != 0 {
		fmt.Fprintf(&sb, "  %s %d\n", cyan("actual:"), d.Actual)
	}

	if len(d.Data) > 0 {
		keys := make([]string, 0, len(d.Data))
		for k := range d.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s %v\n", cyan(k+":"), d.Data[k])
		}
	}
	return sb.String()
}
