package recognizer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ayusman/gestureos/internal/dispatch"
)

// maxLineBytes bounds a single NDJSON prediction line.
const maxLineBytes = 64 * 1024

// Process runs an external recognizer command and submits every prediction
// it prints on stdout, one JSON document per line.
type Process struct {
	command []string
	decoder Decoder
	logger  *zap.SugaredLogger
}

var _ dispatch.Source = (*Process)(nil)

// NewProcess creates a Process for command. A leading python or python3 is
// replaced by a virtual environment interpreter when one is found.
func NewProcess(command []string, decoder Decoder, logger *zap.SugaredLogger) *Process {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Process{
		command: command,
		decoder: decoder,
		logger:  logger,
	}
}

// Name implements dispatch.Source.
func (p *Process) Name() string {
	return "recognizer"
}

// Run implements dispatch.Source. The child process is killed when ctx is
// cancelled. Malformed lines are logged and skipped.
func (p *Process) Run(ctx context.Context, submit dispatch.SubmitFunc) error {
	if len(p.command) == 0 {
		return errors.New("recognizer command not configured")
	}

	name := p.command[0]
	if name == "python" || name == "python3" {
		if venv := findVenvPython(); venv != "" {
			name = venv
		}
	}

	cmd := exec.CommandContext(ctx, name, p.command[1:]...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("start recognizer: %w", err)
	}

	p.logger.Infow("Recognizer started", "command", p.command, "pid", cmd.Process.Pid)

	readErr := readLines(stdout, maxLineBytes, func(line []byte) {
		pair, err := p.decoder.Decode(line)
		if err != nil {
			p.logger.Warnw("Skipping recognizer line", "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		submit(pair)
	}, func(n int) {
		p.logger.Warnw("Skipping oversized recognizer line", "bytes", n, "limit", maxLineBytes)
	})

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if readErr != nil {
		return fmt.Errorf("read recognizer output: %w", readErr)
	}
	if waitErr != nil {
		return fmt.Errorf("recognizer exited: %w", waitErr)
	}
	return nil
}

// readLines calls fn with every non-empty line of r, without its line
// ending. Lines longer than limit bytes are discarded and reported to tooLong,
// and reading continues with the next line. fn must not retain the slice.
func readLines(r io.Reader, limit int, fn func(line []byte), tooLong func(n int)) error {
	br := bufio.NewReaderSize(r, limit)
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			n := len(line)
			for errors.Is(err, bufio.ErrBufferFull) {
				line, err = br.ReadSlice('\n')
				n += len(line)
			}
			tooLong(n)
		} else if line = bytes.TrimRight(line, "\r\n"); len(line) > 0 {
			fn(line)
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}

// findVenvPython looks for a Python interpreter in a virtual environment
// next to the working directory, the executable or ~/.gestureos.
func findVenvPython() string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(os.Getenv("HOME"), ".gestureos/venv/bin/python"),
	}
	if execDir != "" {
		candidates = append(candidates, filepath.Join(execDir, "venv/bin/python"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
