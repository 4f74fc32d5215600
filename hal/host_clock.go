package hal

import "time"

// processStart anchors the fallback clocks; it carries the runtime's monotonic reading.
var processStart = time.Now()
