package utils

import "testing"

func TestFormatSEK(t *testing.T) {
	cases := []struct {
		ore  int64
		want string
	}{
		{54500, "545.00"},
		{45000, "450.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-150, "-1.50"},
		{100050, "1000.50"},
	}
	for _, c := range cases {
		if got := FormatSEK(c.ore); got != c.want {
			t.Errorf("FormatSEK(%d) = %q, want %q", c.ore, got, c.want)
		}
	}
}

func TestParseSEKToOre(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"545", 54500},
		{"545.00", 54500},
		{"545.5", 54550},
		{"545,50", 54550},
		{"450.00 kr", 45000},
		{"0.05", 5},
		{"-1.50", -150},
	}
	for _, c := range cases {
		got, err := ParseSEKToOre(c.in)
		if err != nil {
			t.Errorf("ParseSEKToOre(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseSEKToOre(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseSEKToOreRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12.3.4", "545.009", "1.234"} {
		if _, err := ParseSEKToOre(in); err == nil {
			t.Errorf("ParseSEKToOre(%q) should fail", in)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, ore := range []int64{0, 1, 99, 100, 54500, 123456789} {
		got, err := ParseSEKToOre(FormatSEK(ore))
		if err != nil {
			t.Fatalf("round trip %d: %v", ore, err)
		}
		if got != ore {
			t.Errorf("round trip %d -> %d", ore, got)
		}
	}
}

func TestRoundOre(t *testing.T) {
	if got := RoundOre(42.5 * 1000); got != 42500 {
		t.Errorf("RoundOre = %d, want 42500", got)
	}
	if got := RoundOre(0.5); got != 1 {
		t.Errorf("RoundOre(0.5) = %d, want 1 (half away from zero)", got)
	}
	if got := RoundOre(-0.5); got != -1 {
		t.Errorf("RoundOre(-0.5) = %d, want -1", got)
	}
}

func TestAbsOre(t *testing.T) {
	if AbsOre(54500, 54900) != 400 || AbsOre(54900, 54500) != 400 {
		t.Errorf("AbsOre should be symmetric")
	}
}
