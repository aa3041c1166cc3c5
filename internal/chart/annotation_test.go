package chart

import "testing"

func TestMirrorNameRoundTrip(t *testing.T) {
	name := MirrorName("Resistance", 42)
	if name != "Resistance_copied_42" {
		t.Fatalf("unexpected mirror name: %q", name)
	}
	if !IsMirror(name) {
		t.Fatalf("expected %q to be detected as mirror", name)
	}
	if IsMirror("Resistance") {
		t.Fatal("user-authored name misclassified as mirror")
	}
}

func TestNormalizeColor(t *testing.T) {
	cases := map[string]string{
		"#ff0000":  "#FF0000",
		"00AaFf":   "#00AAFF",
		" #123456": "#123456",
		"red":      DefaultLineColor,
		"":         DefaultLineColor,
		"#12345":   DefaultLineColor,
		"#12345G":  DefaultLineColor,
	}
	for input, want := range cases {
		if got := NormalizeColor(input); got != want {
			t.Fatalf("NormalizeColor(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseTimeframe(t *testing.T) {
	tf, ok := ParseTimeframe(" m15 ")
	if !ok || tf != TimeframeM15 {
		t.Fatalf("ParseTimeframe failed: %v %v", tf, ok)
	}
	if _, ok := ParseTimeframe("H2"); ok {
		t.Fatal("expected unknown timeframe to fail")
	}
}

func TestDefaultTimeframeOrder(t *testing.T) {
	for i := 1; i < len(DefaultTimeframes); i++ {
		if DefaultTimeframes[i-1].Minutes() <= DefaultTimeframes[i].Minutes() {
			t.Fatalf("default order not longest to shortest at index %d", i)
		}
	}
}
