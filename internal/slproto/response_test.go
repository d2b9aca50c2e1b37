package slproto

import "testing"

func TestParseLineOk(t *testing.T) {
	for _, s := range []string{"OK", "ok", "OK\r\n"} {
		r, err := ParseLine(s)
		if err != nil || r.Kind != RespOk {
			t.Errorf("ParseLine(%q) = %+v, %v", s, r, err)
		}
	}
}

func TestParseLineEnd(t *testing.T) {
	for _, s := range []string{"END", "end"} {
		r, err := ParseLine(s)
		if err != nil || r.Kind != RespEnd {
			t.Errorf("ParseLine(%q) = %+v, %v", s, r, err)
		}
	}
}

func TestParseLineErrorNoCode(t *testing.T) {
	r, err := ParseLine("ERROR")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if r.Kind != RespError || r.HasCode || r.Message != "" {
		t.Errorf("got %+v", r)
	}
}

func TestParseLineErrorWithCode(t *testing.T) {
	r, err := ParseLine("ERROR UNSUPPORTED unknown command")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !r.HasCode || r.Code != ErrCodeUnsupported || r.Message != "unknown command" {
		t.Errorf("got %+v", r)
	}
}

func TestParseLineErrorUnknownCodeBecomesDescription(t *testing.T) {
	r, err := ParseLine("ERROR something went wrong")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if r.HasCode || r.Message != "something went wrong" {
		t.Errorf("got %+v", r)
	}
}

func TestParseLineErrorAllCodes(t *testing.T) {
	codes := []ErrorCode{ErrCodeUnsupported, ErrCodeUnexpected, ErrCodeUnauthorized, ErrCodeLimit, ErrCodeArguments, ErrCodeAuth, ErrCodeInternal}
	for _, c := range codes {
		r, err := ParseLine("ERROR " + c.String() + " test")
		if err != nil {
			t.Fatalf("ParseLine: %v", err)
		}
		if !r.HasCode || r.Code != c || r.Message != "test" {
			t.Errorf("code %v: got %+v", c, r)
		}
	}
}

func TestParseHelloWithCapabilities(t *testing.T) {
	r, err := ParseHello("SeedLink v3.1 (2020.075) :: SLPROTO:4.0 SLPROTO:3.1", "IRIS DMC")
	if err != nil {
		t.Fatalf("ParseHello: %v", err)
	}
	if r.Software != "SeedLink" || r.Version != "v3.1" || r.Extra != "(2020.075) :: SLPROTO:4.0 SLPROTO:3.1" || r.Organization != "IRIS DMC" {
		t.Errorf("got %+v", r)
	}
}

func TestParseHelloWithoutCapabilities(t *testing.T) {
	r, err := ParseHello("SeedLink v3.1", "GFZ Potsdam")
	if err != nil {
		t.Fatalf("ParseHello: %v", err)
	}
	if r.Software != "SeedLink" || r.Version != "v3.1" || r.Extra != "" || r.Organization != "GFZ Potsdam" {
		t.Errorf("got %+v", r)
	}
}

func TestParseLineUnknown(t *testing.T) {
	if _, err := ParseLine("FOOBAR"); err == nil {
		t.Fatal("expected error")
	}
}

func TestResponseBytesRoundtrip(t *testing.T) {
	cases := []Response{
		{Kind: RespOk},
		{Kind: RespEnd},
		{Kind: RespError},
		{Kind: RespError, HasCode: true, Code: ErrCodeUnauthorized, Message: "access denied"},
	}
	for _, r := range cases {
		line := string(r.Bytes())
		parsed, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", line, err)
		}
		if parsed != r {
			t.Errorf("roundtrip mismatch: %+v != %+v", parsed, r)
		}
	}
}

func TestResponseBytesHello(t *testing.T) {
	r := Response{Kind: RespHello, Software: "SeedLink", Version: "v3.1", Organization: "IRIS DMC"}
	got := string(r.Bytes())
	want := "SeedLink v3.1\r\nIRIS DMC\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
