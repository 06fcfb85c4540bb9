package files

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ContentDiff renders a line diff between current and desired content.
// Added lines start with "+ ", removed lines with "- ", and runs of
// unchanged lines collapse into a single marker.
func ContentDiff(current, desired string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(current, desired)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		text := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range text {
				sb.WriteString("+ " + line + "\n")
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range text {
				sb.WriteString("- " + line + "\n")
			}
		case diffmatchpatch.DiffEqual:
			fmt.Fprintf(&sb, "  … %d unchanged line(s)\n", len(text))
		}
	}
	return sb.String()
}
