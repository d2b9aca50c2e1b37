package selector

import "testing"

func TestParseTimeCommandValid(t *testing.T) {
	if _, ok := ParseTimeCommand("2024,1,15,10,30,45"); !ok {
		t.Fatal("expected valid parse")
	}
}

func TestParseTimeCommandInvalid(t *testing.T) {
	cases := []string{
		"",
		"2024,13,1,0,0,0",
		"2024,0,1,0,0,0",
		"2024,1,32,0,0,0",
		"2024,2,30,0,0,0",
		"2023,2,29,0,0,0",
		"2024,1,1,24,0,0",
		"not,a,time,at,all,x",
	}
	for _, c := range cases {
		if _, ok := ParseTimeCommand(c); ok {
			t.Errorf("expected failure for %q", c)
		}
	}
}

func TestParseMseedBTime(t *testing.T) {
	payload := make([]byte, 512)
	payload[20], payload[21] = 0x07, 0xE8 // year 2024
	payload[22], payload[23] = 0x00, 0x0F // doy 15
	payload[24], payload[25], payload[26] = 10, 30, 45

	got, ok := ParseMseedBTime(payload)
	if !ok {
		t.Fatal("expected valid parse")
	}
	want, _ := ParseTimeCommand("2024,1,15,10,30,45")
	if !got.Equal(want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseMseedBTimeInvalid(t *testing.T) {
	if _, ok := ParseMseedBTime(make([]byte, 20)); ok {
		t.Error("expected failure for short payload")
	}
	if _, ok := ParseMseedBTime(make([]byte, 512)); ok {
		t.Error("expected failure for year 0")
	}
}

func TestTimeWindowContains(t *testing.T) {
	tw, ok := ParseTimeWindow("2024,1,1,0,0,0", "2024,1,31,23,59,59")
	if !ok {
		t.Fatal("expected valid window")
	}

	mid, _ := ParseTimeCommand("2024,1,15,12,0,0")
	if !tw.Contains(mid) {
		t.Error("expected mid to be contained")
	}
	if !tw.Contains(tw.Start) {
		t.Error("expected start boundary to be contained")
	}
	if !tw.Contains(tw.End) {
		t.Error("expected end boundary to be contained")
	}

	before, _ := ParseTimeCommand("2023,12,31,23,59,59")
	if tw.Contains(before) {
		t.Error("expected before-start to be excluded")
	}
	after, _ := ParseTimeCommand("2024,2,1,0,0,0")
	if tw.Contains(after) {
		t.Error("expected after-end to be excluded")
	}
}

func TestTimeWindowOpenEnded(t *testing.T) {
	tw, ok := ParseTimeWindow("2024,1,1,0,0,0", "")
	if !ok {
		t.Fatal("expected valid window")
	}
	if !tw.Contains(tw.Start) {
		t.Error("expected start to be contained")
	}
	future, _ := ParseTimeCommand("2030,12,31,23,59,59")
	if !tw.Contains(future) {
		t.Error("expected future timestamp to be contained")
	}
	before, _ := ParseTimeCommand("2023,12,31,23,59,59")
	if tw.Contains(before) {
		t.Error("expected before-start to be excluded")
	}
}

func TestTimestampOrdering(t *testing.T) {
	t1, _ := ParseTimeCommand("2024,1,1,0,0,0")
	t2, _ := ParseTimeCommand("2024,1,1,0,0,1")
	t3, _ := ParseTimeCommand("2024,6,15,12,0,0")
	t4, _ := ParseTimeCommand("2025,1,1,0,0,0")

	if !t1.Before(t2) || !t2.Before(t3) || !t3.Before(t4) {
		t.Error("expected strictly increasing order")
	}
	if !t1.Equal(t1) {
		t.Error("expected timestamp to equal itself")
	}
}
