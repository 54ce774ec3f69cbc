// Package builtin ships the generic tasks the engine registers out of the
// box. Domain-specific tasks (scanners, scoring, reporting) live with the
// host and are registered through the same constructor contract.
package builtin

import (
	"github.com/taskwing/taskwing/engine/task"
)

const (
	TaskEcho        = "echo"
	TaskHTTPRequest = "http_request"
	TaskCommand     = "command"
)

// Register installs every built-in task into the registry.
func Register(reg *task.Registry) {
	reg.Register(TaskEcho, NewEcho)
	reg.Register(TaskHTTPRequest, NewHTTPRequest)
	reg.Register(TaskCommand, NewCommand)
}
