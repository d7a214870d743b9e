//go:build !windows && !darwin

package tactile

func openerInvocation() (string, []string) {
	return "xdg-open", nil
}
