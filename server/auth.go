package server

import (
	"bytes"
	"os"

	"toolbelt/logging"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// publicKeyAuth admits a session when the client's key appears in the
// server's authorized keys file. Both outcomes are logged with the key
// fingerprint for the audit trail.
func (s *Server) publicKeyAuth(ctx ssh.Context, key ssh.PublicKey) bool {
	fingerprint := gossh.FingerprintSHA256(key)
	if isKeyAuthorized(key, s.authorizedKeys) {
		logging.Logger.Info("ssh key accepted",
			"user", ctx.User(),
			"fingerprint", fingerprint,
			"key_type", key.Type())
		return true
	}
	logging.Logger.Warn("ssh key rejected",
		"user", ctx.User(),
		"fingerprint", fingerprint,
		"key_type", key.Type())
	return false
}

// isKeyAuthorized scans an authorized_keys file for the client key.
// Comments, blank lines and unparseable lines are skipped; a missing
// file admits nobody.
func isKeyAuthorized(key ssh.PublicKey, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Logger.Warn("authorized keys unreadable", "path", path, "error", err)
		return false
	}

	want := key.Marshal()
	for len(data) > 0 {
		authorized, _, _, rest, err := gossh.ParseAuthorizedKey(data)
		if err != nil {
			if i := bytes.IndexByte(data, '\n'); i >= 0 {
				data = data[i+1:]
				continue
			}
			break
		}
		if bytes.Equal(want, authorized.Marshal()) {
			return true
		}
		data = rest
	}
	return false
}
