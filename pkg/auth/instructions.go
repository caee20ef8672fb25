package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowSetupGuide explains the ways a password can reach kigaroo
func ShowSetupGuide(w io.Writer, username string) {
	if username == "" {
		username = "<username>"
	}

	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "KIGAROO LOGIN SETUP")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "kigaroo logs in with the same username and password you use on the")
	fmt.Fprintln(w, "gallery website. Provide the password in one of these ways:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Store it once in the system keychain (recommended):")
	fmt.Fprintf(w, "       kigaroo auth login %s\n", username)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  2. Export it for the current shell or put it in a .env file:")
	fmt.Fprintf(w, "       export KIGAROO_USERNAME=%s\n", username)
	fmt.Fprintln(w, "       export KIGAROO_PASSWORD=...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  3. Set site.password in kigaroo.yaml (keep the file private).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "When the keychain is unavailable, passwords are kept in an encrypted")
	fmt.Fprintln(w, "file in the kigaroo config directory. Set KIGAROO_PASSPHRASE to")
	fmt.Fprintln(w, "choose its passphrase.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
