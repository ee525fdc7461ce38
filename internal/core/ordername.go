package core

import "strings"

// OrderNames converts between the upstream numbering ("172086_4848")
// and the downstream display name ("#KC4848") for the same order.
type OrderNames struct {
	UpstreamPrefix string // e.g. "172086_"
	DisplayPrefix  string // e.g. "#KC"
}

// ToDisplay maps an upstream order number to the downstream display
// name.
func (n OrderNames) ToDisplay(orderNo string) string {
	return strings.Replace(orderNo, n.UpstreamPrefix, n.DisplayPrefix, 1)
}

// ToUpstream maps a downstream display name to the upstream order
// number.
func (n OrderNames) ToUpstream(name string) string {
	return strings.Replace(name, n.DisplayPrefix, n.UpstreamPrefix, 1)
}

// EnsureDisplay prepends the display prefix when a bare order name
// lacks it.
func (n OrderNames) EnsureDisplay(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return s
	}
	if strings.HasPrefix(strings.ToUpper(s), strings.ToUpper(n.DisplayPrefix)) {
		return s
	}
	return n.DisplayPrefix + s
}
