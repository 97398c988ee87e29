package spec

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/docker/go-units"
)

var memoryUnits = []struct {
	suffix string
	size   int64
}{
	{"P", units.PiB},
	{"T", units.TiB},
	{"G", units.GiB},
	{"M", units.MiB},
	{"K", units.KiB},
}

// ParseMemory converts a memory quantity such as "500M", "1G" or "200K" to
// bytes. Units are binary multiples and a bare number is a whole byte count.
// The result is always positive.
func ParseMemory(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty memory quantity")
	}
	if strings.Contains(s, ".") && !strings.ContainsAny(strings.ToLower(s), "kmgtp") {
		return 0, errors.Newf("invalid memory quantity %q, a byte count must be a whole number", s)
	}
	size, err := units.RAMInBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid memory quantity %q", s)
	}
	if size <= 0 {
		return 0, errors.Newf("memory quantity %q must be positive", s)
	}
	return size, nil
}

// FormatMemory renders bytes with the largest unit that divides it exactly,
// so that ParseMemory(FormatMemory(n)) == n.
func FormatMemory(size int64) string {
	for _, u := range memoryUnits {
		if size >= u.size && size%u.size == 0 {
			return fmt.Sprintf("%d%s", size/u.size, u.suffix)
		}
	}
	return fmt.Sprintf("%d", size)
}
