//go:build !windows

package fsutil

import "os"

func chown(path string, uid, gid int) error {
	return os.Chown(path, uid, gid)
}
