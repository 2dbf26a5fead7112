package file

import "os"

// Exists returns a bool indicating whether the specified path exists. Errors
// other than the path not existing are treated as the path existing, since
// the caller will encounter them again as soon as it touches the path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
