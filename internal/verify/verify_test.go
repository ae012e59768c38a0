package verify

import (
	"archive/zip"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/digitorus/pkcs7"
)

// buildJar writes a JAR-shaped zip file to dir, signed by key/cert, with a
// single class entry. tamperClass and tamperSF let a case corrupt the
// signed content after signing, simulating the scenarios spec.md §8
// enumerates (tampered-app-class.jar, tampered-sf.jar).
func buildJar(t *testing.T, dir string, key *ecdsa.PrivateKey, cert *x509.Certificate, tamperClass, tamperSF bool) string {
	t.Helper()

	const className = "com/example/App.class"
	classBytes := []byte("not real bytecode, just test content")

	classDigest := sha256.Sum256(classBytes)
	classDigestB64 := base64.StdEncoding.EncodeToString(classDigest[:])

	manifest := "Manifest-Version: 1.0\r\n\r\n" +
		"Name: " + className + "\r\n" +
		"SHA-256-Digest: " + classDigestB64 + "\r\n"
	manifestDigest := sha256.Sum256([]byte(manifest))
	manifestDigestB64 := base64.StdEncoding.EncodeToString(manifestDigest[:])

	sf := "Signature-Version: 1.0\r\n" +
		"SHA-256-Digest-Manifest: " + manifestDigestB64 + "\r\n\r\n" +
		"Name: " + className + "\r\n" +
		"SHA-256-Digest: " + classDigestB64 + "\r\n"

	signed := []byte(sf)
	if tamperSF {
		signed = append(append([]byte(nil), signed...), '\r', '\n')
	}

	sd, err := pkcs7.NewSignedData([]byte(sf))
	if err != nil {
		t.Fatalf("NewSignedData: %v", err)
	}
	if err := sd.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		t.Fatalf("AddSigner: %v", err)
	}
	sd.Detach()
	sigBlock, err := sd.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if tamperClass {
		classBytes = append(append([]byte(nil), classBytes...), 'X')
	}

	path := filepath.Join(dir, "test.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)

	writeEntry(t, zw, "META-INF/MANIFEST.MF", []byte(manifest))
	writeEntry(t, zw, "META-INF/CODESIGN.SF", signed)
	writeEntry(t, zw, "META-INF/CODESIGN.RSA", sigBlock)
	writeEntry(t, zw, className, classBytes)

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeEntry(t *testing.T, zw *zip.Writer, name string, data []byte) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
}

func testCert(t *testing.T) (*ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "ballista-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return key, cert
}

func TestVerifyJarUnsigned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	writeEntry(t, zw, "META-INF/MANIFEST.MF", []byte("Manifest-Version: 1.0\r\n"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	err = JAR(context.Background(), path, x509.NewCertPool())
	if err == nil {
		t.Fatal("want error for unsigned JAR, got nil")
	}
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("want *verify.Error, got %T: %v", err, err)
	}
}

func TestVerifyJarValidWithPinnedCert(t *testing.T) {
	key, cert := testCert(t)
	dir := t.TempDir()
	path := buildJar(t, dir, key, cert, false, false)

	empty := x509.NewCertPool()
	if err := JAR(context.Background(), path, empty); err == nil {
		t.Fatal("want error before the signer cert is trusted, got nil")
	}

	pinned := x509.NewCertPool()
	pinned.AddCert(cert)
	if err := JAR(context.Background(), path, pinned); err != nil {
		t.Fatalf("JAR: want success once signer cert is trusted, got %v", err)
	}
}

func TestVerifyJarTamperedClass(t *testing.T) {
	key, cert := testCert(t)
	dir := t.TempDir()
	path := buildJar(t, dir, key, cert, true, false)

	pool := x509.NewCertPool()
	pool.AddCert(cert)
	if err := JAR(context.Background(), path, pool); err == nil {
		t.Fatal("want error for tampered class entry, got nil")
	}
}

func TestVerifyJarTamperedSF(t *testing.T) {
	key, cert := testCert(t)
	dir := t.TempDir()
	path := buildJar(t, dir, key, cert, false, true)

	pool := x509.NewCertPool()
	pool.AddCert(cert)
	err := JAR(context.Background(), path, pool)
	if err == nil {
		t.Fatal("want error for tampered .SF file, got nil")
	}
}

func TestRSAKeySigning(t *testing.T) {
	// Sanity check that pkcs7 verifies a detached signature made with an
	// RSA key (the common real-world case for JAR signing), not just the
	// ECDSA key used by the JAR cases here. No JAR is built.
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "ballista-rsa-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}

	sd, err := pkcs7.NewSignedData([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if err := sd.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		t.Fatal(err)
	}
	sd.Detach()
	sigBlock, err := sd.Finish()
	if err != nil {
		t.Fatal(err)
	}

	p7, err := pkcs7.Parse(sigBlock)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p7.Content = []byte("hello")
	pool := x509.NewCertPool()
	pool.AddCert(cert)
	if err := p7.VerifyWithChain(pool); err != nil {
		t.Fatalf("VerifyWithChain: %v", err)
	}
}

func TestDiscoverSignaturesPrefersServerSF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	writeEntry(t, zw, "META-INF/MANIFEST.MF", []byte("Manifest-Version: 1.0\r\n"))
	writeEntry(t, zw, "META-INF/SERVER.SF", []byte("Signature-Version: 1.0\r\n"))
	writeEntry(t, zw, "META-INF/OTHER.SF", []byte("Signature-Version: 1.0\r\n"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	sigs := discoverSignatures(&zr.Reader)
	if len(sigs) != 1 || sigs[0].sfName != serverSFEntry || sigs[0].prefix != serverSFPrefix {
		t.Fatalf("discoverSignatures = %+v, want single SERVER.SF entry", sigs)
	}
}

