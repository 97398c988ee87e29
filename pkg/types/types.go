package types

import "time"

const (
	FieldApps             = "apps"
	FieldName             = "name"
	FieldScript           = "script"
	FieldInterpreter      = "interpreter"
	FieldCwd              = "cwd"
	FieldInstances        = "instances"
	FieldAutorestart      = "autorestart"
	FieldWatch            = "watch"
	FieldMaxMemoryRestart = "max_memory_restart"
	FieldEnv              = "env"

	DefaultInstances   = 1
	DefaultAutorestart = true
	DefaultWatch       = false

	// InterpreterNone makes the supervisor execute the script directly.
	InterpreterNone = "none"

	MaximumProcessNameSize = 64

	DefaultDeclarationFile = "ecosystem.config.yml"
	LockFileSuffix         = ".lock"

	WatchDebounceInterval = 200 * time.Millisecond
)
