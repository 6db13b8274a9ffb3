package engine

import (
	"github.com/btcsuite/btclog"

	"github.com/lnopeningd/openingd/build"
)

// log is the engine package's subsystem logger. All output goes to stderr;
// stdout is reserved for the supervisor control wire.
var log btclog.Logger = build.NewSubLogger("ENGN")
