package slproto

import (
	"fmt"
	"strings"
)

// CommandKind tags which SeedLink command a Command value holds.
type CommandKind int

const (
	CmdHello CommandKind = iota
	CmdStation
	CmdSelect
	CmdData
	CmdEnd
	CmdBye
	CmdInfo
	CmdBatch
	CmdFetch
	CmdTime
	CmdCat
	CmdSlProto
	CmdAuth
	CmdUserAgent
	CmdEndFetch
)

// Command is a discriminated union over all SeedLink commands. Each
// variant carries exactly its arguments in the fields relevant to its
// Kind; irrelevant fields are zero. Dispatch mirrors the teacher's
// any-typed message-struct idiom rather than a sealed-enum translation.
type Command struct {
	Kind CommandKind

	// Station / Select / Time
	Station string
	Network string
	Pattern string
	Start   string
	End     string

	// Data / Fetch
	Sequence    SequenceNumber
	HasSequence bool

	// Info
	Level InfoLevel

	// SlProto
	ProtoVersionText string

	// Auth
	Passkey string

	// UserAgent
	UserAgent string
}

// IsValidFor reports whether c is legal to send/receive on the given
// protocol version. BATCH/FETCH/TIME/CAT are v3-only; SLPROTO/AUTH/
// USERAGENT/ENDFETCH are v4-only; everything else is valid on both.
func (c Command) IsValidFor(v ProtocolVersion) bool {
	switch c.Kind {
	case CmdBatch, CmdFetch, CmdTime, CmdCat:
		return v == V3
	case CmdSlProto, CmdAuth, CmdUserAgent, CmdEndFetch:
		return v == V4
	default:
		return true
	}
}

// Name returns the command's wire keyword, for logging.
func (c Command) Name() string {
	switch c.Kind {
	case CmdHello:
		return "HELLO"
	case CmdStation:
		return "STATION"
	case CmdSelect:
		return "SELECT"
	case CmdData:
		return "DATA"
	case CmdEnd:
		return "END"
	case CmdBye:
		return "BYE"
	case CmdInfo:
		return "INFO"
	case CmdBatch:
		return "BATCH"
	case CmdFetch:
		return "FETCH"
	case CmdTime:
		return "TIME"
	case CmdCat:
		return "CAT"
	case CmdSlProto:
		return "SLPROTO"
	case CmdAuth:
		return "AUTH"
	case CmdUserAgent:
		return "USERAGENT"
	case CmdEndFetch:
		return "ENDFETCH"
	default:
		return "UNKNOWN"
	}
}

// ParseCommand parses a single command line (whitespace-trimmed by the
// caller's line reader already stripped of \r\n). The verb is
// case-insensitive.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	verb := strings.ToUpper(fields[0])
	args := fields[1:]

	switch verb {
	case "HELLO":
		if err := rejectExtraArgs(args, 0); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdHello}, nil

	case "STATION":
		return parseStation(args)

	case "SELECT":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: SELECT requires one argument", ErrInvalidCommand)
		}
		return Command{Kind: CmdSelect, Pattern: args[0]}, nil

	case "DATA":
		return parseDataOrFetch(CmdData, args)

	case "FETCH":
		return parseDataOrFetch(CmdFetch, args)

	case "TIME":
		return parseTime(args)

	case "END":
		if err := rejectExtraArgs(args, 0); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdEnd}, nil

	case "BYE":
		if err := rejectExtraArgs(args, 0); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdBye}, nil

	case "INFO":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: INFO requires a level", ErrInvalidCommand)
		}
		level, err := ParseInfoLevel(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdInfo, Level: level}, nil

	case "BATCH":
		if err := rejectExtraArgs(args, 0); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdBatch}, nil

	case "CAT":
		if err := rejectExtraArgs(args, 0); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdCat}, nil

	case "SLPROTO":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: SLPROTO requires a version", ErrInvalidCommand)
		}
		return Command{Kind: CmdSlProto, ProtoVersionText: args[0]}, nil

	case "AUTH":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: AUTH requires a passkey", ErrInvalidCommand)
		}
		return Command{Kind: CmdAuth, Passkey: args[0]}, nil

	case "USERAGENT":
		return Command{Kind: CmdUserAgent, UserAgent: strings.Join(args, " ")}, nil

	case "ENDFETCH":
		if err := rejectExtraArgs(args, 0); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdEndFetch}, nil

	default:
		return Command{}, fmt.Errorf("%w: unknown verb %q", ErrInvalidCommand, fields[0])
	}
}

func rejectExtraArgs(args []string, want int) error {
	if len(args) != want {
		return fmt.Errorf("%w: unexpected arguments", ErrInvalidCommand)
	}
	return nil
}

// parseStation accepts both "STA NET" (v3) and "NET_STA" (v4) forms.
func parseStation(args []string) (Command, error) {
	switch len(args) {
	case 1:
		parts := strings.SplitN(args[0], "_", 2)
		if len(parts) != 2 {
			return Command{}, fmt.Errorf("%w: STATION requires NET_STA or STA NET", ErrInvalidCommand)
		}
		return Command{Kind: CmdStation, Network: parts[0], Station: parts[1]}, nil
	case 2:
		return Command{Kind: CmdStation, Station: args[0], Network: args[1]}, nil
	default:
		return Command{}, fmt.Errorf("%w: STATION requires NET_STA or STA NET", ErrInvalidCommand)
	}
}

// parseDataOrFetch handles "DATA", "DATA <seq>", "FETCH", "FETCH <seq>".
// It tries a 6-char hex sequence first, then falls back to decimal.
func parseDataOrFetch(kind CommandKind, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Kind: kind}, nil
	}
	if len(args) != 1 {
		return Command{}, fmt.Errorf("%w: %s takes at most one sequence argument", ErrInvalidCommand, kindName(kind))
	}
	seq, err := parseSequenceArg(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: kind, Sequence: seq, HasSequence: true}, nil
}

func kindName(k CommandKind) string {
	return Command{Kind: k}.Name()
}

func parseSequenceArg(s string) (SequenceNumber, error) {
	if len(s) == 6 {
		if seq, err := ParseV3Hex(s); err == nil {
			return seq, nil
		}
	}
	return ParseV4Decimal(s)
}

// parseTime handles "TIME start [end]" where start/end are "YYYY,M,D,h,m,s".
func parseTime(args []string) (Command, error) {
	if len(args) < 1 || len(args) > 2 {
		return Command{}, fmt.Errorf("%w: TIME requires start and optional end", ErrInvalidCommand)
	}
	cmd := Command{Kind: CmdTime, Start: args[0]}
	if len(args) == 2 {
		cmd.End = args[1]
	}
	return cmd, nil
}

// Encode renders c as wire bytes terminated by \r\n, for the given
// protocol version. Returns ErrVersionMismatch if c is not valid for v.
func (c Command) Encode(v ProtocolVersion) ([]byte, error) {
	if !c.IsValidFor(v) {
		return nil, fmt.Errorf("%w: %s on %s", ErrVersionMismatch, c.Name(), v)
	}
	line, err := c.formatLine(v)
	if err != nil {
		return nil, err
	}
	return []byte(line + "\r\n"), nil
}

func (c Command) formatLine(v ProtocolVersion) (string, error) {
	switch c.Kind {
	case CmdHello:
		return "HELLO", nil
	case CmdStation:
		if v == V4 {
			return fmt.Sprintf("STATION %s_%s", c.Network, c.Station), nil
		}
		return fmt.Sprintf("STATION %s %s", c.Station, c.Network), nil
	case CmdSelect:
		return fmt.Sprintf("SELECT %s", c.Pattern), nil
	case CmdData:
		return formatDataOrFetch("DATA", c, v)
	case CmdFetch:
		return formatDataOrFetch("FETCH", c, v)
	case CmdTime:
		if c.End != "" {
			return fmt.Sprintf("TIME %s %s", c.Start, c.End), nil
		}
		return fmt.Sprintf("TIME %s", c.Start), nil
	case CmdEnd:
		return "END", nil
	case CmdBye:
		return "BYE", nil
	case CmdInfo:
		return fmt.Sprintf("INFO %s", c.Level.String()), nil
	case CmdBatch:
		return "BATCH", nil
	case CmdCat:
		return "CAT", nil
	case CmdSlProto:
		return fmt.Sprintf("SLPROTO %s", c.ProtoVersionText), nil
	case CmdAuth:
		return fmt.Sprintf("AUTH %s", c.Passkey), nil
	case CmdUserAgent:
		return fmt.Sprintf("USERAGENT %s", c.UserAgent), nil
	case CmdEndFetch:
		return "ENDFETCH", nil
	default:
		return "", fmt.Errorf("%w: unknown kind %d", ErrInvalidCommand, c.Kind)
	}
}

func formatDataOrFetch(verb string, c Command, v ProtocolVersion) (string, error) {
	if !c.HasSequence {
		return verb, nil
	}
	if v == V4 {
		return fmt.Sprintf("%s %s", verb, c.Sequence.V4Decimal()), nil
	}
	return fmt.Sprintf("%s %s", verb, c.Sequence.V3Hex()), nil
}
