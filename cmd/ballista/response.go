package main

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// Response codes for the launch command, per spec.md §6.
const (
	codeSuccess             = 0
	codeVerificationFailure = 1
	codeGenericFailure      = -1
)

// certInfo is the "cert" object spec.md §6 attaches to a launch response
// when a signer certificate was recovered from a failed verification, so
// the UI can offer to pin it.
type certInfo struct {
	DER       string `json:"der"`
	Subject   string `json:"subject"`
	Issuer    string `json:"issuer"`
	ExpiresOn string `json:"expires_on"`
}

// certInfoOf builds the RDN-string cert payload spec.md §6 describes.
// pkix.Name.String() already produces exactly the format spec.md §6
// calls for: comma-separated "short-name=value" pairs in reverse RDN
// iteration order (RFC 2253), so no custom formatting is needed here.
func certInfoOf(cert *x509.Certificate) *certInfo {
	if cert == nil {
		return nil
	}
	return &certInfo{
		DER:       base64.StdEncoding.EncodeToString(cert.Raw),
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		ExpiresOn: cert.NotAfter.Format(time.RFC3339),
	}
}

// launchResponse is the JSON object spec.md §6 describes for launch
// results: code 0 on success, 1 for a verification failure (optionally
// carrying the offending signer certificate), -1 for any other failure.
type launchResponse struct {
	Code int       `json:"code"`
	Msg  string    `json:"msg,omitempty"`
	Cert *certInfo `json:"cert,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorString renders a non-launch command failure as a bare
// human-readable string, per spec.md §6 ("a string containing a
// human-readable error").
func writeErrorString(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
