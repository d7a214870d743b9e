//go:build windows

package tactile

// The empty title argument keeps start from treating a quoted path as the
// window title.
func openerInvocation() (string, []string) {
	return "cmd", []string{"/c", "start", ""}
}
