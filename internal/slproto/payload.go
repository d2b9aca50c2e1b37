package slproto

import "fmt"

// PayloadFormat tags the record encoding carried by a v4 frame payload.
type PayloadFormat byte

const (
	MiniSeed2 PayloadFormat = '2'
	MiniSeed3 PayloadFormat = '3'
	Json      PayloadFormat = 'J'
	Xml       PayloadFormat = 'X'
)

func ParsePayloadFormat(b byte) (PayloadFormat, error) {
	switch PayloadFormat(b) {
	case MiniSeed2, MiniSeed3, Json, Xml:
		return PayloadFormat(b), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPayloadFormat, b)
	}
}

func (f PayloadFormat) Byte() byte { return byte(f) }

// PayloadSubformat further qualifies a v4 payload's content within its format.
type PayloadSubformat byte

const (
	SubData        PayloadSubformat = 'D'
	SubEvent       PayloadSubformat = 'E'
	SubCalibration PayloadSubformat = 'C'
	SubTiming      PayloadSubformat = 'T'
	SubLog         PayloadSubformat = 'L'
	SubOpaque      PayloadSubformat = 'O'
	SubInfo        PayloadSubformat = 'I'
	SubInfoError   PayloadSubformat = 'X'
)

func ParsePayloadSubformat(b byte) (PayloadSubformat, error) {
	switch PayloadSubformat(b) {
	case SubData, SubEvent, SubCalibration, SubTiming, SubLog, SubOpaque, SubInfo, SubInfoError:
		return PayloadSubformat(b), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPayloadSubfmt, b)
	}
}

func (s PayloadSubformat) Byte() byte { return byte(s) }
