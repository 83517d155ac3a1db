//go:build windows

package fsutil

func chown(string, int, int) error {
	return nil
}
