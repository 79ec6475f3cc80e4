package rtl

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/airwave-labs/modeswatch/internal/sdr"
	"github.com/airwave-labs/modeswatch/internal/sdr/driver"
)

const (
	Runtime = "rtl_sdr"
	Device  = "RTL-SDR"
)

// handler builds the rtl_sdr command line for a raw I/Q capture.
type handler struct {
	binPath string
	args    []string
}

// New locates the rtl_sdr binary and builds its argument list from
// args, returning an sdr.Handler ready to hand to sdr.NewCapture.
// Accepting an sdr.CmdArgsBuilder rather than *Config directly keeps
// this constructor usable with any tool config that knows how to build
// its own command line, not just rtl.Config.
func New(args sdr.CmdArgsBuilder) (sdr.Handler, error) {
	binPath, err := driver.FindRuntime(Runtime)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}

	argv, err := args.Args()
	if err != nil {
		return nil, fmt.Errorf("error creating args: %w", err)
	}

	return &handler{binPath, argv}, nil
}

// Cmd returns an exec.Cmd for the rtl_sdr binary.
func (h *handler) Cmd(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, h.binPath, h.args...)
}

func (h *handler) Device() string {
	return Device
}
