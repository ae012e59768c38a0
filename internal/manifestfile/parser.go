// Package manifestfile implements a parser for JAR-manifest-shaped
// documents: both META-INF/MANIFEST.MF itself and the per-signature-file
// ".SF" documents produced by jarsigner, which share the same grammar.
//
// https://docs.oracle.com/en/java/javase/17/docs/specs/jar/jar.html#jar-manifest
package manifestfile

import (
	"bufio"
	"context"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/quay/zlog"
)

const (
	digestKeySuffix         = "-Digest"
	digestManifestKeySuffix = "-Digest-Manifest"
)

// NameDigest is a per-entry digest recorded in a manifest's "Name:" section:
// an algorithm (the "-Digest" key with the suffix stripped) and its base64
// value.
type NameDigest struct {
	Algorithm string
	Value     string
}

// Manifest is the parsed form of a MANIFEST.MF or .SF document (spec.md §3).
type Manifest struct {
	// FileName is the origin file name, for diagnostics only.
	FileName string
	// DigestAlgName is the algorithm named by a "<ALG>-Digest-Manifest"
	// main attribute, if present. Required for a valid signature file.
	DigestAlgName string
	// MainAttribs holds every main-section attribute, keyed by its literal
	// name (names are not case-folded, matching how jarsigner treats the
	// file in practice).
	MainAttribs map[string]string
	// NameDigests maps a JAR entry name to its recorded digest.
	NameDigests map[string]NameDigest
}

// Parse reads a manifest-shaped document from r and returns its parsed
// form. The name is recorded for diagnostics and does not affect parsing.
//
// Per spec.md §4.1, the input is expected to be UTF-8 text; malformed UTF-8
// surfaces as a parse error rather than producing replacement characters.
func Parse(ctx context.Context, name string, r io.Reader) (*Manifest, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "manifestfile/Parse", "manifest", name)

	strict := unicode.UTF8.NewDecoder()
	br := bufio.NewReader(transform.NewReader(r, strict))

	m := &Manifest{
		FileName:    name,
		MainAttribs: make(map[string]string),
		NameDigests: make(map[string]NameDigest),
	}

	for {
		line, ok := readLogicalLine(br)
		if !ok {
			break
		}
		if line == "" {
			continue // section separator between the top level and first entry
		}
		k, v, ok := splitKV(line)
		if !ok {
			continue
		}

		switch {
		case k == "Name":
			entryName := strings.TrimSpace(v)
			if err := m.readEntrySection(br, entryName); err != nil {
				return nil, err
			}
		case strings.HasSuffix(k, digestManifestKeySuffix):
			m.DigestAlgName = strings.TrimSuffix(k, digestManifestKeySuffix)
			m.MainAttribs[k] = strings.TrimSpace(v)
		default:
			m.MainAttribs[k] = strings.TrimSpace(v)
		}
	}
	// readLogicalLine treats any read error as the end of input; the
	// transform reader keeps its error, so a failure of the underlying
	// reader shows up again here.
	if _, _, err := br.ReadRune(); err != nil && err != io.EOF {
		return nil, mkErr("reading "+name, err)
	}

	zlog.Debug(ctx).
		Int("main_attribs", len(m.MainAttribs)).
		Int("name_digests", len(m.NameDigests)).
		Msg("parsed manifest")
	return m, nil
}

// readEntrySection scans logical lines of a "Name:" section, looking for
// the first key ending in "-Digest". If the section ends (an empty logical
// line, or EOF) before such a key is found, the section is skipped silently
// per spec.md §4.1.
func (m *Manifest) readEntrySection(br *bufio.Reader, entryName string) error {
	for {
		line, ok := readLogicalLine(br)
		if !ok {
			return nil
		}
		if line == "" {
			return nil
		}
		k, v, ok := splitKV(line)
		if !ok {
			continue
		}
		if strings.HasSuffix(k, digestKeySuffix) {
			alg := strings.TrimSuffix(k, digestKeySuffix)
			m.NameDigests[entryName] = NameDigest{
				Algorithm: alg,
				Value:     strings.TrimSpace(v),
			}
			return nil
		}
		// Not a digest key; keep scanning the rest of this section.
	}
}

// splitKV splits a logical line at its first colon into key/value, with
// the value trimmed of surrounding whitespace. An empty line reports ok
// == false (it's a section separator, not a key/value pair).
func splitKV(line string) (key, value string, ok bool) {
	if line == "" {
		return "", "", false
	}
	i := strings.IndexByte(line, ':')
	if i == -1 {
		return line, "", true
	}
	return line[:i], strings.TrimSpace(line[i+1:]), true
}

// readLogicalLine reads one logical line, honoring the manifest
// continuation rule: a physical line beginning with a single space
// continues the previous logical line (with that leading space removed and
// no newline inserted). Both LF and CR?LF terminate a physical line.
//
// Returns ok == false only when nothing at all could be read (clean EOF
// before any rune of a new logical line).
func readLogicalLine(br *bufio.Reader) (string, bool) {
	var sb strings.Builder
	started := false

	for {
		r, _, err := br.ReadRune()
		if err != nil {
			if started {
				return sb.String(), true
			}
			return "", false
		}
		started = true

		switch r {
		case '\n':
			if !continuesAfterNewline(br) {
				return sb.String(), true
			}
		case '\r':
			nr, _, err := br.ReadRune()
			if err != nil {
				return sb.String(), true
			}
			switch nr {
			case '\n':
				if !continuesAfterNewline(br) {
					return sb.String(), true
				}
			case ' ':
				// continuation: the space after a bare CR is consumed.
			default:
				br.UnreadRune()
				return sb.String(), true
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// continuesAfterNewline peeks the rune following a line terminator. If it's
// a single space, that space is consumed and the logical line continues;
// otherwise the line has ended and the peeked rune is pushed back.
func continuesAfterNewline(br *bufio.Reader) bool {
	nr, _, err := br.ReadRune()
	if err != nil {
		return false
	}
	if nr != ' ' {
		br.UnreadRune()
		return false
	}
	return true
}
