// Command openingd is the channel-opening engine subprocess. It owns three
// file descriptors handed to it by its supervisor: stdin (control-in),
// stdout (control-out), and fd 3 (the encrypted peer byte stream), and
// negotiates exactly one channel before exiting.
package main

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
	"github.com/jessevdk/go-flags"

	"github.com/lnopeningd/openingd/build"
	"github.com/lnopeningd/openingd/ctrlwire"
	"github.com/lnopeningd/openingd/engine"
)

const appVersion = "0.1.0"

var log = build.NewSubLogger("OPNG")

type cliOptions struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DebugLevel  string `long:"debuglevel" description:"Logging level for all subsystems" default:"info"`
}

// stdioSupervisor is the Supervisor implementation used outside of tests:
// control-in/control-out framed over stdin/stdout via package ctrlwire.
type stdioSupervisor struct {
	in  *os.File
	out *os.File
}

func (s *stdioSupervisor) Send(msg ctrlwire.Message) error {
	return ctrlwire.WriteMessage(s.out, msg)
}

func (s *stdioSupervisor) Recv() (ctrlwire.Message, error) {
	return ctrlwire.ReadMessage(s.in)
}

func main() {
	os.Exit(run())
}

// run contains everything main would otherwise do inline; it exists so that
// os.Exit, the one process-exit call this binary makes, happens exactly
// once, at the top.
func run() int {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}

	if opts.ShowVersion {
		fmt.Println("openingd version", appVersion)
		return 0
	}

	if err := build.SetLevel(opts.DebugLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sup := &stdioSupervisor{in: os.Stdin, out: os.Stdout}
	peer := engine.NewPeerConn(os.NewFile(3, "peer"))

	return negotiate(sup, peer)
}

// negotiate runs the init -> dispatch -> terminal-result -> exit_req
// sequence and returns the process exit status.
func negotiate(sup engine.Supervisor, peer engine.PeerConn) int {
	initMsg, err := sup.Recv()
	if err != nil {
		log.Errorf("read init: %v", errors.Wrap(err, 1))
		return 1
	}
	init, ok := initMsg.(*ctrlwire.Init)
	if !ok {
		log.Errorf("expected init, got %T", initMsg)
		return 1
	}

	cfg, err := engine.NewConfig(init)
	if err != nil {
		return reportFatal(sup, err)
	}

	roleMsg, err := sup.Recv()
	if err != nil {
		log.Errorf("read role selector: %v", errors.Wrap(err, 1))
		return 1
	}

	var result *ctrlwire.Result
	switch m := roleMsg.(type) {
	case *ctrlwire.Open:
		result, err = engine.RunFunder(cfg, peer, sup, m)
	case *ctrlwire.Accept:
		result, err = engine.RunFundee(cfg, peer, m)
	default:
		log.Errorf("expected open or accept, got %T", roleMsg)
		return 1
	}
	if err != nil {
		return reportFatal(sup, err)
	}

	// Terminal success: send the result, then stop touching the peer
	// stream. fd 3 was inherited from the supervisor at spawn, so the
	// supervisor already holds its own valid descriptor; no further
	// OS-level handoff is needed, only this ordering guarantee.
	if err := sup.Send(result); err != nil {
		log.Errorf("send result: %v", errors.Wrap(err, 1))
		return 1
	}

	exitMsg, err := sup.Recv()
	if err != nil {
		log.Errorf("read exit_req: %v", errors.Wrap(err, 1))
		return 1
	}
	if _, ok := exitMsg.(*ctrlwire.ExitReq); !ok {
		log.Errorf("expected exit_req, got %T", exitMsg)
		return 1
	}

	return 0
}

// reportFatal maps a *engine.ChannelError or *engine.LocalError to a
// ctrlwire.Fatal message, sends it best-effort, and picks the process exit
// status from the failure kind.
func reportFatal(sup engine.Supervisor, err error) int {
	var kind ctrlwire.FatalKind
	switch e := err.(type) {
	case *engine.ChannelError:
		kind = e.Kind
	case *engine.LocalError:
		kind = e.Kind
	default:
		log.Errorf("unexpected engine error: %v", errors.Wrap(err, 1))
		return 1
	}

	log.Errorf("channel negotiation failed: %v", err)

	if sendErr := sup.Send(&ctrlwire.Fatal{Kind: kind, Message: err.Error()}); sendErr != nil {
		log.Errorf("send fatal: %v", errors.Wrap(sendErr, 1))
	}

	return int(kind)
}
