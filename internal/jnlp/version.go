package jnlp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/kayyagari/ballista"
)

// nineOrNewer is the constraint a j2se hint's version must satisfy for its
// vm-args to be worth emitting via JDK_JAVA_OPTIONS: that environment
// variable is silently ignored by JVMs older than 9, so there's no need to
// probe which JVM will actually run — only hints that target 9+ are ever
// worth setting it for.
var nineOrNewer = mustConstraint(">=9.0.0")

func mustConstraint(expr string) semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(err)
	}
	return c
}

// SelectVMArgs returns the java-vm-args of the first j2se hint whose
// version targets Java 9 or newer, generalizing the reference
// implementation's "version string contains 1.9" substring check into
// real version comparison (a JNLP j2se version attribute is a
// space-separated list of alternatives, each optionally suffixed with "+"
// or "*").
func SelectVMArgs(j2ses []ballista.J2SE) (string, bool) {
	for _, j := range j2ses {
		if j.JavaVMArgs == "" {
			continue
		}
		for _, alt := range strings.Fields(j.Version) {
			major, err := javaMajor(alt)
			if err != nil {
				// A malformed version alternative can't be compared
				// numerically; fall back to the reference
				// implementation's raw "contains 1.9" substring check
				// rather than silently dropping the hint.
				if strings.Contains(alt, "1.9") {
					return j.JavaVMArgs, true
				}
				continue
			}
			v, err := semver.NewVersion(fmt.Sprintf("%d.0.0", major))
			if err != nil {
				continue
			}
			if nineOrNewer.Check(v) {
				return j.JavaVMArgs, true
			}
		}
	}
	return "", false
}

// javaMajor extracts the major Java release a single version alternative
// (e.g. "1.8+", "9", "11.0.16_8*") refers to, accounting for the pre-9
// "1.x" naming scheme where the real release number is the second
// component.
func javaMajor(alt string) (int, error) {
	s := strings.TrimSuffix(strings.TrimSuffix(alt, "+"), "*")
	s = strings.ReplaceAll(s, "_", ".")
	parts := strings.Split(s, ".")
	if len(parts) == 0 || parts[0] == "" {
		return 0, fmt.Errorf("jnlp: empty version alternative")
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("jnlp: invalid version alternative %q: %w", alt, err)
	}
	if major == 1 && len(parts) > 1 {
		if minor, err := strconv.Atoi(parts[1]); err == nil {
			return minor, nil
		}
	}
	return major, nil
}
