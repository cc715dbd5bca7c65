package transport

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// socketMode restricts the local-domain socket to the owner, narrowing
// exposure the same way the teacher's proc/cgroup packages narrow access
// to host-visible resources they open.
const socketMode = 0o600

// Listen removes any stale socket file at path and binds a new
// SOCK_STREAM unix listener there with owner-only permissions.
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("transport: remove stale socket: %w", err)
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("transport: listen: %w", err)
	}
	if err := unix.Chmod(path, socketMode); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("transport: chmod socket: %w", err)
	}
	return l, nil
}
