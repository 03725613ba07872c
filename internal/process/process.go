// Package process manages child processes started for cell execution.
package process

import "time"

// waitDelay bounds how long Wait blocks on open pipes after the child is
// killed, e.g. when a grandchild still holds stdout.
const waitDelay = 2 * time.Second
