package jnlp

import (
	"crypto/tls"
)

// insecureTLSConfig disables certificate verification. MirthConnect
// servers are commonly deployed behind a self-signed cert; JAR signature
// verification (internal/verify) is this launcher's actual trust
// boundary, not transport TLS.
func insecureTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}
