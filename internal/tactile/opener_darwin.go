//go:build darwin

package tactile

func openerInvocation() (string, []string) {
	return "open", nil
}
