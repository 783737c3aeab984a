package combine

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-\.]`)
var multipleSpaces = regexp.MustCompile(`\s+`)

// scratchName turns an uploaded file name into a safe scratch file name. The
// index prefix keeps names unique and sortable in upload order.
func scratchName(index int, original string) string {
	base := filepath.Base(strings.TrimSpace(original))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	base = multipleSpaces.ReplaceAllString(base, "_")
	base = unsafeNameChars.ReplaceAllString(base, "")
	base = strings.TrimLeft(base, ".")

	if len(base) > 100 {
		ext := filepath.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = base[:100-len(ext)] + ext
	}
	if base == "" {
		base = "video.mp4"
	}
	return fmt.Sprintf("%03d_%s", index, base)
}

// BuildManifest renders a concat demuxer list, one file per line, in the
// given order.
func BuildManifest(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
