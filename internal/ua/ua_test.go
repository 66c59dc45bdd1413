package ua

import "testing"

func TestParseDeviceClass(t *testing.T) {
	cases := []struct {
		raw    string
		device string
		bot    bool
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1", "Mobile", false},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36", "Desktop", false},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "Bot", true},
	}
	for _, c := range cases {
		info := Parse(c.raw)
		if info.Device != c.device || info.IsBot != c.bot {
			t.Errorf("Parse(%q) = device %q bot %v; want %q %v", c.raw, info.Device, info.IsBot, c.device, c.bot)
		}
	}
}

func TestVersionToString(t *testing.T) {
	info := Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1")
	if info.OSVersion != "17.4" {
		t.Fatalf("OSVersion = %q, want 17.4", info.OSVersion)
	}
	if info.Label() != "mobile" {
		t.Fatalf("Label = %q", info.Label())
	}
}
