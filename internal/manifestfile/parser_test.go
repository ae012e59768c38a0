package manifestfile

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Fixtures below mirror the MANIFEST.MF / RSA.SF test-resources used to
// validate the reference continuation-line parser, reproduced here as
// inline literals since no JAR fixtures are bundled with this module.

const manifestFixture = "Manifest-Version: 1.0\r\n" +
	"Created-By: Apache Maven 3.6.0\r\n" +
	"Built-By: dbugger\r\n" +
	"Build-Jdk: 1.8.0_352\r\n" +
	"Application-Name: Catapult Test Jar\r\n" +
	"authors: Sereen Systems: Kiran Ayyagari\r\n" +
	"url: \r\n" +
	"\r\n" +
	"Name: META-INF/maven/com.sereen.catapult/catapult-test-jar/pom.xml\r\n" +
	"SHA-256-Digest: hYrjJTvk33E2hMAm3jQFv94npqhurT1xC/89tZnhrpM=\r\n" +
	"\r\n" +
	"Name: com/sereen/catapult/Main.class\r\n" +
	"SHA-256-Digest: 2jmj7l5rSw0yVb/vlWAYkK/YBwk=\r\n"

const signatureFileFixture = "Signature-Version: 1.0\r\n" +
	"SHA-256-Digest-Manifest-Main-Attributes: SrvXwDOQW2uH7eiPwlfR+ZwyjWW9AbEfM7dU3f4rDKo=\r\n" +
	"SHA-256-Digest-Manifest: VncmygtfITJAO9mhhNipU9kWkFhAMqFErwtkfZsGXBc=\r\n" +
	"Created-By: 1.8.0_352 (Azul Systems, Inc.)\r\n" +
	"\r\n" +
	"Name: META-INF/maven/com.sereen.catapult/catapult-test-jar/pom.xml\r\n" +
	"SHA-256-Digest: hYrjJTvk33E2hMAm3jQFv94npqhurT1xC/89tZnhrpM=\r\n"

func TestParseManifest(t *testing.T) {
	m, err := Parse(context.Background(), "MANIFEST.MF", strings.NewReader(manifestFixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.DigestAlgName != "" {
		t.Errorf("DigestAlgName = %q, want empty", m.DigestAlgName)
	}

	wantAttribs := map[string]string{
		"Created-By":       "Apache Maven 3.6.0",
		"Application-Name": "Catapult Test Jar",
		"Build-Jdk":        "1.8.0_352",
		"Built-By":         "dbugger",
		"url":              "",
		"authors":          "Sereen Systems: Kiran Ayyagari",
		"Manifest-Version": "1.0",
	}
	for k, v := range wantAttribs {
		if got := m.MainAttribs[k]; got != v {
			t.Errorf("MainAttribs[%q] = %q, want %q", k, got, v)
		}
	}

	wantDigests := map[string]NameDigest{
		"META-INF/maven/com.sereen.catapult/catapult-test-jar/pom.xml": {
			Algorithm: "SHA-256",
			Value:     "hYrjJTvk33E2hMAm3jQFv94npqhurT1xC/89tZnhrpM=",
		},
		"com/sereen/catapult/Main.class": {
			Algorithm: "SHA-256",
			Value:     "2jmj7l5rSw0yVb/vlWAYkK/YBwk=",
		},
	}
	if diff := cmp.Diff(wantDigests, m.NameDigests); diff != "" {
		t.Errorf("NameDigests mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSignatureFile(t *testing.T) {
	m, err := Parse(context.Background(), "RSA.SF", strings.NewReader(signatureFileFixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.DigestAlgName != "SHA-256" {
		t.Errorf("DigestAlgName = %q, want SHA-256", m.DigestAlgName)
	}
	wantAttribs := map[string]string{
		"Signature-Version": "1.0",
		"SHA-256-Digest-Manifest-Main-Attributes": "SrvXwDOQW2uH7eiPwlfR+ZwyjWW9AbEfM7dU3f4rDKo=",
		"SHA-256-Digest-Manifest":                 "VncmygtfITJAO9mhhNipU9kWkFhAMqFErwtkfZsGXBc=",
		"Created-By":                              "1.8.0_352 (Azul Systems, Inc.)",
	}
	for k, v := range wantAttribs {
		if got := m.MainAttribs[k]; got != v {
			t.Errorf("MainAttribs[%q] = %q, want %q", k, got, v)
		}
	}

	d, ok, err := m.ManifestDigest()
	if err != nil {
		t.Fatalf("ManifestDigest: %v", err)
	}
	if !ok {
		t.Fatal("ManifestDigest: not found")
	}
	if d.Algorithm() != "SHA-256" || d.String() != "VncmygtfITJAO9mhhNipU9kWkFhAMqFErwtkfZsGXBc=" {
		t.Errorf("ManifestDigest = %+v, want SHA-256 VncmygtfITJAO9mhhNipU9kWkFhAMqFErwtkfZsGXBc=", d)
	}
}

func TestParseContinuationLine(t *testing.T) {
	// A value split across a continuation line: the leading single space
	// on the second physical line is removed and no newline is inserted.
	const fixture = "Name: com/sereen/catapult/very/long/package/name/ContinuedC\r\n" +
		" lass.class\r\nSHA-256-Digest: 2jmj7l5rSw0yVb/vlWAYkK/YBwk=\r\n"
	m, err := Parse(context.Background(), "MANIFEST.MF", strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := NameDigest{Algorithm: "SHA-256", Value: "2jmj7l5rSw0yVb/vlWAYkK/YBwk="}
	got, ok := m.NameDigests["com/sereen/catapult/very/long/package/name/ContinuedClass.class"]
	if !ok {
		t.Fatalf("NameDigests missing entry; got %v", m.NameDigests)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NameDigests entry mismatch (-want +got):\n%s", diff)
	}

	const continued = "Name: a/B.class\r\n" +
		"SHA-256-\r\n" +
		" Digest: 2jmj7l5rSw0yVb/vlWAYkK/YBwk=\r\n"
	m2, err := Parse(context.Background(), "MANIFEST.MF", strings.NewReader(continued))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got2, ok := m2.NameDigests["a/B.class"]
	if !ok {
		t.Fatalf("NameDigests missing continuation-joined entry; got %v", m2.NameDigests)
	}
	if diff := cmp.Diff(want, got2); diff != "" {
		t.Errorf("continuation-joined NameDigests mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyLineEndsDigestSearch(t *testing.T) {
	const fixture = "Name: a/B.class\r\n" +
		"\r\n" +
		"Name: c/D.class\r\n" +
		"SHA-256-Digest: 2jmj7l5rSw0yVb/vlWAYkK/YBwk=\r\n"
	m, err := Parse(context.Background(), "MANIFEST.MF", strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := m.NameDigests["a/B.class"]; ok {
		t.Errorf("a/B.class should have no recorded digest")
	}
	if _, ok := m.NameDigests["c/D.class"]; !ok {
		t.Errorf("c/D.class should have a recorded digest")
	}
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	bad := string([]byte("Name: a/B.class\r\nSHA-256-Digest: \xff\xfe\r\n"))
	if _, err := Parse(context.Background(), "MANIFEST.MF", strings.NewReader(bad)); err == nil {
		t.Fatal("Parse: want error for invalid UTF-8, got nil")
	}
}
