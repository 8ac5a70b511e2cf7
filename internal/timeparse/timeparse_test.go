package timeparse

import (
	"errors"
	"testing"
	"time"
)

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	return time.FixedZone("PDT", -7*60*60)
}

func TestParse(t *testing.T) {
	t.Parallel()

	loc := mustLoc(t)
	anchor := time.Date(2029, 9, 14, 17, 19, 0, 0, loc)

	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"now", "now", anchor},
		{"clock am", "6:30 am", time.Date(2029, 9, 14, 6, 30, 0, 0, loc)},
		{"clock pm no space", "6:26pm", time.Date(2029, 9, 14, 18, 26, 0, 0, loc)},
		{"clock hour only", "6am", time.Date(2029, 9, 14, 6, 0, 0, 0, loc)},
		{"clock seconds", "8:32:33 pm", time.Date(2029, 9, 14, 20, 32, 33, 0, loc)},
		{"midnight as 12 am", "12:00 am", time.Date(2029, 9, 14, 0, 0, 0, 0, loc)},
		{"noon as 12 pm", "12:00 pm", time.Date(2029, 9, 14, 12, 0, 0, 0, loc)},
		{"24h clock", "23:15", time.Date(2029, 9, 14, 23, 15, 0, 0, loc)},
		{"at prefix", "at 7:00 PM", time.Date(2029, 9, 14, 19, 0, 0, 0, loc)},
		{"noon word", "noon", time.Date(2029, 9, 14, 12, 0, 0, 0, loc)},
		{"bare duration", "6 minutes", anchor.Add(6 * time.Minute)},
		{"from now", "59 minutes from now", anchor.Add(59 * time.Minute)},
		{"ago", "2 hours ago", anchor.Add(-2 * time.Hour)},
		{"an hour", "an hour from now", anchor.Add(time.Hour)},
		{"after anchor", "6 minutes after 10:15 am", time.Date(2029, 9, 14, 10, 21, 0, 0, loc)},
		{"before anchor", "1 day before 10:15 am", time.Date(2029, 9, 13, 10, 15, 0, 0, loc)},
		{"tomorrow midnight", "tomorrow at 12:00 am", time.Date(2029, 9, 15, 0, 0, 0, 0, loc)},
		{"yesterday clock", "yesterday 6:00 pm", time.Date(2029, 9, 13, 18, 0, 0, 0, loc)},
		{"today", "today", time.Date(2029, 9, 14, 0, 0, 0, 0, loc)},
		{"us date", "9/14/29 10:15am", time.Date(2029, 9, 14, 10, 15, 0, 0, loc)},
		{"us date four digit year", "1/19/2025 5:51 pm", time.Date(2025, 1, 19, 17, 51, 0, 0, loc)},
		{"iso with zone", "2029-09-14 10:15:00 -0700", time.Date(2029, 9, 14, 10, 15, 0, 0, loc)},
		{"rfc3339", "2029-09-14T17:15:00Z", time.Date(2029, 9, 14, 17, 15, 0, 0, time.UTC)},
		{"iso date and clock", "2029-09-14 6:30 am", time.Date(2029, 9, 14, 6, 30, 0, 0, loc)},
		{"extra whitespace", "  6:30    AM ", time.Date(2029, 9, 14, 6, 30, 0, 0, loc)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tc.in, anchor)
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error: %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("Parse(%q): want %v, got %v", tc.in, tc.want, got)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2029, 9, 14, 17, 19, 0, 0, time.UTC)
	for _, in := range []string{
		"",
		"   ",
		"gibberish",
		"13:00 pm",
		"0:30 am",
		"6",
		"6:75 am",
		"2/30/2029",
		"5 fortnights",
		"6 minutes from now please",
		"3 minutes after nonsense",
	} {
		if _, err := Parse(in, anchor); !errors.Is(err, ErrParse) {
			t.Errorf("Parse(%q): want ErrParse, got %v", in, err)
		}
	}
}

func TestParse_AnchorOnly(t *testing.T) {
	t.Parallel()

	a1 := time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)
	a2 := time.Date(2031, 6, 30, 22, 0, 0, 0, time.UTC)

	cases := []struct {
		in   string
		want time.Duration
	}{
		{"6 minutes from now", 6 * time.Minute},
		{"2 hours ago", -2 * time.Hour},
		{"in 3 hours", 3 * time.Hour},
	}
	for _, tc := range cases {
		got1, err1 := Parse(tc.in, a1)
		got2, err2 := Parse(tc.in, a2)
		if err1 != nil || err2 != nil {
			t.Fatalf("Parse(%q): unexpected errors %v, %v", tc.in, err1, err2)
		}
		if got1.Sub(a1) != tc.want || got2.Sub(a2) != tc.want {
			t.Fatalf("Parse(%q) must follow the anchor: %v, %v", tc.in, got1, got2)
		}
	}
}

func TestParse_NaturalPhrases(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2029, 9, 14, 17, 19, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"3 days ago", anchor.Add(-72 * time.Hour)},
		{"in 2 hours", anchor.Add(2 * time.Hour)},
		{"In 30 Minutes", anchor.Add(30 * time.Minute)},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in, anchor)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("Parse(%q): want %v, got %v", tc.in, tc.want, got)
		}
	}

	// a phrase recognised only in part is not accepted
	for _, in := range []string{"in 2 hours or so", "maybe 3 days ago"} {
		if _, err := Parse(in, anchor); !errors.Is(err, ErrParse) {
			t.Fatalf("Parse(%q): want ErrParse, got %v", in, err)
		}
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Duration{
		"6 minutes":  6 * time.Minute,
		"5 minutes":  5 * time.Minute,
		"1 minute":   time.Minute,
		"an hour":    time.Hour,
		"2 hrs":      2 * time.Hour,
		"90 seconds": 90 * time.Second,
		"0 minutes":  0,
		"6m":         6 * time.Minute,
		"1 week":     7 * 24 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil {
			t.Errorf("ParseDuration(%q): unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDuration(%q): want %v, got %v", in, want, got)
		}
	}

	for _, in := range []string{"", "six minutes", "6 minutes from now", "-5m", "soon"} {
		if _, err := ParseDuration(in); !errors.Is(err, ErrParse) {
			t.Errorf("ParseDuration(%q): want ErrParse, got %v", in, err)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	if !Valid("11:00 pm") {
		t.Fatalf("11:00 pm should be valid")
	}
	if Valid("25:00") {
		t.Fatalf("25:00 should be invalid")
	}
}
