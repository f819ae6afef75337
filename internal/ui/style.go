package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintLogo renders the colored riskloom logo.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	bars := color.New(color.FgYellow)
	threads := color.New(color.FgCyan, color.Faint)
	sep := color.New(color.FgCyan)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	bars.Fprintln(w, "   |  ==== ======   ===  ===== |")
	threads.Fprintln(w, "   |  |  |  |  |  |  |  |  |  |")
	sep.Fprintln(w, "   |==========================|")
	brand.Fprintln(w, "   |  R  I  S  K  L  O  O  M  |")
	sep.Fprintln(w, "   |==========================|")
	threads.Fprintln(w, "   |  |  |  |  |  |  |  |  |  |")
	bars.Fprintln(w, "   |   ===== ==  ======= ==== |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintf(w, "   %s Schedule & risk analysis\n", Dim("🧵"))
	fmt.Fprintln(w)
}

// resourceColors is a palette of distinct bold colors for differentiating resources.
var resourceColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// resourceColorIndex hashes an ID to a palette index.
func resourceColorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(resourceColors)))
}

// Resource returns a resource ID in its stable palette color.
func Resource(id string) string {
	return resourceColors[resourceColorIndex(id)](id)
}

// RiskIcon returns a colored marker for a task risk tag.
func RiskIcon(risk string) string {
	switch risk {
	case "High":
		return Red("▲")
	case "Medium":
		return Yellow("■")
	default:
		return Green("●")
	}
}

// Category returns a colored simulation risk category.
func Category(c string) string {
	switch c {
	case "HIGH":
		return BoldRed("🔴 HIGH")
	case "MEDIUM":
		return BoldYellow("🟡 MEDIUM")
	case "LOW":
		return BoldGreen("🟢 LOW")
	default:
		return Dim("n/a")
	}
}

// Status returns a colored optimizer status.
func Status(s string) string {
	switch s {
	case "optimal":
		return Green("optimal")
	case "timed_out":
		return Yellow("timed out")
	default:
		return Dim("no improvement")
	}
}
