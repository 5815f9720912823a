package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	StoreError      = 3
	ExportBlocked   = 4
	ExportError     = 5
	Inconsistent    = 6
)
