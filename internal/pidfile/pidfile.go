// Package pidfile keeps a second relay from polling the same bot on one host.
package pidfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"hostrelay/pkg/logging"
)

// ErrAlreadyRunning is returned when the PID file names a live process.
var ErrAlreadyRunning = errors.New("another instance is already running")

// For mocking in tests
var (
	pidExists = func(ctx context.Context, pid int32) (bool, error) {
		return process.PidExistsWithContext(ctx, pid)
	}
	processName = func(ctx context.Context, pid int32) (string, error) {
		p, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			return "", err
		}
		return p.NameWithContext(ctx)
	}
	currentPID = os.Getpid
)

// File is an acquired PID file.
type File struct {
	path string
	pid  int
}

// Acquire creates path holding the current PID. Creation is exclusive, so of
// two relays starting together only one gets the file. A file left by a
// process that no longer exists is treated as stale and replaced once.
func Acquire(ctx context.Context, path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pid file directory: %w", err)
	}

	self := currentPID()
	for attempt := 0; ; attempt++ {
		err := create(path, self)
		if err == nil {
			logging.Debug("PIDFile", "wrote pid %d to %s", self, path)
			return &File{path: path, pid: self}, nil
		}
		if !errors.Is(err, os.ErrExist) || attempt > 0 {
			return nil, fmt.Errorf("failed to create pid file %s: %w", path, err)
		}

		pid, err := read(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Removed by its owner in between.
			continue
		case err == nil && pid == self:
			return &File{path: path, pid: self}, nil
		case err == nil:
			running, aliveErr := alive(ctx, pid)
			if aliveErr != nil {
				logging.Warn("PIDFile", "could not check process %d: %v", pid, aliveErr)
			}
			if running {
				return nil, fmt.Errorf("%w (pid %d, %s)", ErrAlreadyRunning, pid, path)
			}
			logging.Info("PIDFile", "removing stale pid file for process %d", pid)
		default:
			logging.Warn("PIDFile", "replacing unreadable pid file: %v", err)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale pid file %s: %w", path, err)
		}
	}
}

// create writes pid to a new file at path and fails with os.ErrExist when
// the file is already there.
func create(path string, pid int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(strconv.Itoa(pid) + "\n"); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Release removes the file if it still holds our PID.
func (f *File) Release() error {
	if f == nil {
		return nil
	}
	pid, err := read(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if pid != f.pid {
		logging.Warn("PIDFile", "%s now belongs to pid %d, leaving it", f.path, pid)
		return nil
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove pid file %s: %w", f.path, err)
	}
	return nil
}

func read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %s", path)
	}
	return pid, nil
}

// alive reports whether pid runs a process with our executable name. A
// recycled PID belonging to another program does not block startup.
func alive(ctx context.Context, pid int) (bool, error) {
	exists, err := pidExists(ctx, int32(pid))
	if err != nil || !exists {
		return false, err
	}
	name, err := processName(ctx, int32(pid))
	if err != nil {
		// Cannot tell; err on the side of not starting twice.
		return true, nil
	}
	self := filepath.Base(os.Args[0])
	return name == "" || strings.HasPrefix(self, name) || strings.HasPrefix(name, self), nil
}
