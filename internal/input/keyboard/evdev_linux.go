//go:build linux

package keyboard

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// pollTimeoutMs bounds each epoll wait so cancellation is noticed.
const pollTimeoutMs = 250

// EvdevReader reads key events from /dev/input/event* devices with epoll.
type EvdevReader struct {
	paths []string
}

// NewEvdevReader creates a reader for the given device paths.
func NewEvdevReader(paths []string) *EvdevReader {
	return &EvdevReader{paths: paths}
}

// ReadKeys implements KeyReader.
func (r *EvdevReader) ReadKeys(ctx context.Context, h KeyHandler) error {
	if len(r.paths) == 0 {
		return errors.New("no input devices configured")
	}

	files := make([]*os.File, 0, len(r.paths))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, path := range r.paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input device: %w", err)
		}
		files = append(files, f)
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	byFd := make(map[int32]*os.File, len(files))
	for _, f := range files {
		fd := int(f.Fd())
		byFd[int32(fd)] = f
		event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			return fmt.Errorf("epoll_ctl_add %s: %w", f.Name(), err)
		}
	}

	ready := make([]unix.EpollEvent, 16)
	buf := make([]byte, binary.Size(inputEvent{}))
	reader := bytes.NewReader(buf)

	for ctx.Err() == nil {
		n, err := unix.EpollWait(epfd, ready, pollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			f := byFd[ready[i].Fd]
			if ready[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return fmt.Errorf("input device hangup: %s", f.Name())
			}
			if _, err := f.Read(buf); err != nil {
				return fmt.Errorf("read %s: %w", f.Name(), err)
			}

			reader.Reset(buf)
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				continue
			}
			handleEvent(ev, h)
		}
	}
	return ctx.Err()
}
