package events

import "time"

// CompileStart is emitted before documents are built and passes run.
type CompileStart struct {
	Sources int
}

// CompileFinish is emitted once a compile finished or failed.
type CompileFinish struct {
	Documents int
	Err       error
	Duration  time.Duration
}

// PassStart is emitted before a pass transforms a context.
type PassStart struct {
	Pass      string
	Documents int
}

// PassFinish is emitted after a pass returned or panicked.
type PassFinish struct {
	Pass      string
	Documents int
	Err       error
	Duration  time.Duration
}
