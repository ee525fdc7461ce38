package core

import "testing"

func TestOrderNames(t *testing.T) {
	names := OrderNames{UpstreamPrefix: "172086_", DisplayPrefix: "#KC"}

	if got := names.ToDisplay("172086_4848"); got != "#KC4848" {
		t.Errorf("ToDisplay = %q", got)
	}
	if got := names.ToUpstream("#KC4848"); got != "172086_4848" {
		t.Errorf("ToUpstream = %q", got)
	}
	if got := names.ToDisplay("other_4848"); got != "other_4848" {
		t.Errorf("ToDisplay on foreign number = %q, want unchanged", got)
	}
}

func TestEnsureDisplay(t *testing.T) {
	names := OrderNames{UpstreamPrefix: "172086_", DisplayPrefix: "#KC"}

	tests := []struct{ in, want string }{
		{"#KC4848", "#KC4848"},
		{"#kc4848", "#kc4848"},
		{"4848", "#KC4848"},
		{" 4848 ", "#KC4848"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := names.EnsureDisplay(tt.in); got != tt.want {
			t.Errorf("EnsureDisplay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
