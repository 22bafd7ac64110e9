package writer

import (
	"regexp"
	"strconv"
)

// specPattern matches a single %d/%x filename specifier, with an optional
// width, e.g. %d, %5d, %05x. The canonical HIPO convention is that this
// specifier names the split number (e.g. "out-%d.hipo"); run and stream
// identifiers have no specifier of their own and are always carried via
// the streamId/splitN suffix appended when no specifier is present.
var specPattern = regexp.MustCompile(`%(0?)(\d*)([dx])`)

// renderFilename substitutes the split-number specifier into template per
// §4.H. A specifier lacking a leading zero is normalised by inserting one,
// so a bare %d never produces a width-dependent run of spaces. A template
// with no specifier at all is tolerated by appending ".streamId.splitN",
// so multiple streams or splits never collide on one path.
func renderFilename(template string, splitNumber, streamID int) string {
	found := false

	rendered := specPattern.ReplaceAllStringFunc(template, func(spec string) string {
		found = true
		m := specPattern.FindStringSubmatch(spec)
		verb, width := m[3], m[2]
		if width == "" {
			width = "1"
		}
		w, _ := strconv.Atoi(width)

		base := 10
		if verb == "x" {
			base = 16
		}
		return zeroPad(strconv.FormatInt(int64(splitNumber), base), w)
	})

	if !found {
		rendered += "." + strconv.Itoa(streamID) + ".split" + strconv.Itoa(splitNumber)
	}

	return rendered
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
