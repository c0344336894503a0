package update

import (
	"fmt"
	"strconv"

	"github.com/mzeryck/widgetsched/internal/exporter"
)

// Launcher returns the script written for a new schedule. Running it asks
// the host to render whatever the schedule selects.
func Launcher(marker, name string) []byte {
	return fmt.Appendf(nil, `%s
// icon-color: deep-blue; icon-glyph: calendar-alt;
%s

const schedule = %s
print("rendering " + schedule)
`, marker, exporter.ScheduleMarker, strconv.Quote(name))
}
