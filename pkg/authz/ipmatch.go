package authz

import (
	"net/netip"
	"strings"
)

// IPInRange reports whether ip falls inside spec. A spec is a CIDR block
// ("10.0.0.0/8"), an inclusive dash range ("10.0.0.1-10.0.0.50") or a
// single address. Unparseable input never matches.
func IPInRange(ip, spec string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	spec = strings.TrimSpace(spec)

	switch {
	case strings.Contains(spec, "/"):
		prefix, err := netip.ParsePrefix(spec)
		if err != nil {
			return false
		}
		return prefix.Masked().Contains(addr)
	case strings.Contains(spec, "-"):
		lo, hi, ok := strings.Cut(spec, "-")
		if !ok {
			return false
		}
		start, err := netip.ParseAddr(strings.TrimSpace(lo))
		if err != nil {
			return false
		}
		end, err := netip.ParseAddr(strings.TrimSpace(hi))
		if err != nil {
			return false
		}
		start, end = start.Unmap(), end.Unmap()
		if start.BitLen() != addr.BitLen() || end.BitLen() != addr.BitLen() {
			return false
		}
		return start.Compare(addr) <= 0 && addr.Compare(end) <= 0
	default:
		exact, err := netip.ParseAddr(spec)
		if err != nil {
			return false
		}
		return exact.Unmap() == addr
	}
}

// IPInAnyRange reports whether ip matches at least one spec.
func IPInAnyRange(ip string, specs []string) bool {
	for _, spec := range specs {
		if IPInRange(ip, spec) {
			return true
		}
	}
	return false
}
