package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/deskstream/receiver"
	"github.com/deskstream/receiver/internal/logging"
	"github.com/deskstream/receiver/internal/window"
)

var log = logging.DefaultLogger.WithTag("main")

// Populated via -ldflags="-X ...".
var version = "dev"

var (
	flagNoInput bool
	flagStats   bool
	flagAudio   int
	flagHelp    bool
	flagVersion bool
)

func init() {
	flag.BoolVarP(&flagNoInput, "no-input", "", false, "Disable input forwarding")
	flag.BoolVarP(&flagStats, "stats", "", false, "Report per-keyframe statistics")
	flag.IntVarP(&flagAudio, "audio", "", 0, "Enable audio with the given ring size, in samples")
	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

const helpString = `Desktop-streaming receiver

Usage: receiver <ip>:<port> [OPTION]...

Options:
      --no-input       Do not forward local input to the server
      --stats          Report per-keyframe statistics on stdout
      --audio=SAMPLES  Enable audio playback with a jitter buffer of
                         SAMPLES samples (default: audio disabled)
  -h, --help           Print usage information and exit
  -v, --version        Print version information and exit

The log level is read from the LOGLEVEL environment variable, e.g.
LOGLEVEL=debug or LOGLEVEL=decode=debug,input=warn.
`

func main() {
	flag.Parse()

	if flagHelp {
		fmt.Print(helpString)
		os.Exit(0)
	}
	if flagVersion {
		fmt.Println("receiver", version)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		fmt.Print(helpString)
		os.Exit(1)
	}
	if flagAudio < 0 {
		log.Error("Invalid audio ring size %d", flagAudio)
		os.Exit(1)
	}

	client, err := receiver.New(receiver.Config{
		Addr:            flag.Arg(0),
		NoInput:         flagNoInput,
		Stats:           flagStats,
		AudioRingFrames: flagAudio,
	}, func(handlers window.EventHandlers) (window.Window, error) {
		// A compositor client would attach here; run headless without.
		return window.NewHeadless()
	})
	if err != nil {
		log.Error("Failed to create client: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Received %v, shutting down", sig)
		client.Shutdown()
	}()

	err = client.Run()
	client.Close()
	if err != nil {
		log.Error("Session failed: %v", err)
		os.Exit(1)
	}
}
