package configstore

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prompt-stack/rudi/internal/errorkinds"
)

const (
	lockPollInterval = 50 * time.Millisecond
	lockTimeout      = 5 * time.Second
)

// acquireLock creates path with O_CREATE|O_EXCL semantics, retrying every
// 50ms up to 5s. A lock whose owning PID no longer exists (checked with
// a zero signal) is considered stale and removed by the current caller
// (spec §4.F).
func acquireLock(path string) (release func(), err error) {
	deadline := time.Now().Add(lockTimeout)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d", os.Getpid())
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}

		if staleLock(path) {
			os.Remove(path)
			continue
		}

		if time.Now().After(deadline) {
			return nil, &errorkinds.LockContentionError{Path: path}
		}
		time.Sleep(lockPollInterval)
	}
}

// staleLock reports whether path's recorded PID refers to a dead process.
func staleLock(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	// Signal 0 performs no-op error checking: ESRCH means the process is
	// gone, and the lock it left behind is stale.
	sigErr := proc.Signal(syscall.Signal(0))
	return sigErr != nil
}
