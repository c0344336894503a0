package exporter

import (
	"regexp"
	"strconv"
)

var scriptNameCall = regexp.MustCompile(`Script\.name\(\)`)

// Compile turns a widget source into a loadable artifact. Every
// Script.name() call is replaced with the quoted widget name, so the
// widget still knows who it is when it runs from the cache, and the body
// is wrapped into an async function exported as the module value.
func Compile(name string, src []byte) []byte {
	lit := []byte(strconv.Quote(name))
	body := scriptNameCall.ReplaceAllLiteral(src, lit)

	out := make([]byte, 0, len(body)+64)
	out = append(out, "module.exports = async function() {\n"...)
	out = append(out, body...)
	out = append(out, "\n}"...)
	return out
}
