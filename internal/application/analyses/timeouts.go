package analyses

import "time"

const incidentTimeout = 3 * time.Second
