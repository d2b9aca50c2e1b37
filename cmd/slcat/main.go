// Command slcat is a minimal SeedLink client: it subscribes to a station,
// streams frames, and prints them (or INFO XML) to stdout.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/chronologos/seedlink/internal/reconnect"
	"github.com/chronologos/seedlink/internal/slclient"
	"github.com/chronologos/seedlink/internal/slconfig"
	"github.com/chronologos/seedlink/internal/slproto"
	"github.com/chronologos/seedlink/internal/version"
)

func main() {
	envCfg := slconfig.ClientConfigFromEnv()

	fs := flag.NewFlagSet("slcat", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:18000", "server address")
	station := fs.String("station", "", "station code")
	network := fs.String("network", "", "network code")
	pattern := fs.String("select", "", "channel selector pattern (optional)")
	seq := fs.String("seq", "", "resume from sequence (hex for v3, decimal for v4)")
	fetchOnly := fs.Bool("fetch", false, "fetch buffered data and exit instead of streaming continuously")
	info := fs.String("info", "", "request INFO at this level instead of streaming (ID, STATIONS, STREAMS, CONNECTIONS)")
	reconnectEnabled := fs.Bool("reconnect", true, "automatically reconnect and resume on disconnect")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("slcat %s (%s)\n", version.VERSION, version.Commit)
		return
	}

	if *info != "" {
		runInfo(*addr, *info, envCfg.Client)
		return
	}

	if *station == "" || *network == "" {
		fmt.Fprintln(os.Stderr, "usage: slcat -station <STA> -network <NET> [-select PATTERN] [-seq N] [-fetch] [-addr host:port]")
		os.Exit(1)
	}

	if *reconnectEnabled {
		runReconnecting(*addr, *station, *network, *pattern, *seq, *fetchOnly, envCfg)
	} else {
		runPlain(*addr, *station, *network, *pattern, *seq, *fetchOnly, envCfg.Client)
	}
}

func runInfo(addr, level string, cfg slclient.Config) {
	c, err := slclient.ConnectWithConfig(addr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Bye()

	lvl, err := slproto.ParseInfoLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad info level: %v\n", err)
		os.Exit(1)
	}

	frames, err := c.Info(lvl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "info: %v\n", err)
		os.Exit(1)
	}

	pretty := term.IsTerminal(int(os.Stdout.Fd()))
	for _, f := range frames {
		if pretty {
			fmt.Println(string(f.Payload))
		} else {
			os.Stdout.Write(f.Payload)
		}
	}
}

func runPlain(addr, station, network, pattern, seqText string, fetchOnly bool, cfg slclient.Config) {
	c, err := slclient.ConnectWithConfig(addr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Bye()

	if err := configure(c, station, network, pattern, seqText, fetchOnly); err != nil {
		fmt.Fprintf(os.Stderr, "configure: %v\n", err)
		os.Exit(1)
	}

	for {
		f, err := c.NextFrame()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read: %v\n", err)
			os.Exit(1)
		}
		if f == nil {
			return
		}
		printFrame(*f)
	}
}

func runReconnecting(addr, station, network, pattern, seqText string, fetchOnly bool, envCfg slconfig.ClientConfig) {
	if fetchOnly {
		fmt.Fprintln(os.Stderr, "warning: -reconnect has no effect with -fetch; disabling reconnect")
		runPlain(addr, station, network, pattern, seqText, fetchOnly, envCfg.Client)
		return
	}

	c, err := reconnect.ConnectWithConfig(addr, envCfg.Client, envCfg.Reconnect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}

	if err := c.Station(station, network); err != nil {
		fmt.Fprintf(os.Stderr, "station: %v\n", err)
		os.Exit(1)
	}
	if pattern != "" {
		if err := c.Select(pattern); err != nil {
			fmt.Fprintf(os.Stderr, "select: %v\n", err)
			os.Exit(1)
		}
	}
	if err := armData(c, seqText); err != nil {
		fmt.Fprintf(os.Stderr, "data: %v\n", err)
		os.Exit(1)
	}
	if err := c.EndStream(); err != nil {
		fmt.Fprintf(os.Stderr, "end: %v\n", err)
		os.Exit(1)
	}

	for {
		f, err := c.NextFrame()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read: %v\n", err)
			os.Exit(1)
		}
		if f == nil {
			return
		}
		printOwnedFrame(*f)
	}
}

func armData(c *reconnect.Client, seqText string) error {
	if seqText == "" {
		return c.Data()
	}
	seq, err := parseSequence(seqText)
	if err != nil {
		return err
	}
	return c.DataFrom(seq)
}

func configure(c *slclient.Client, station, network, pattern, seqText string, fetchOnly bool) error {
	if err := c.Station(station, network); err != nil {
		return err
	}
	if pattern != "" {
		if err := c.Select(pattern); err != nil {
			return err
		}
	}

	var seq slproto.SequenceNumber
	hasSeq := seqText != ""
	if hasSeq {
		var err error
		seq, err = parseSequence(seqText)
		if err != nil {
			return err
		}
	}

	if hasSeq {
		if err := c.DataFrom(seq); err != nil {
			return err
		}
	} else if err := c.Data(); err != nil {
		return err
	}

	if fetchOnly {
		if hasSeq {
			return c.FetchFrom(seq)
		}
		return c.Fetch()
	}
	return c.EndStream()
}

func parseSequence(s string) (slproto.SequenceNumber, error) {
	if len(s) == 6 {
		if seq, err := slproto.ParseV3Hex(s); err == nil {
			return seq, nil
		}
	}
	return slproto.ParseV4Decimal(s)
}

func printFrame(f slclient.OwnedFrame) { printOwnedFrame(f) }

func printOwnedFrame(f slclient.OwnedFrame) {
	key, ok := f.StationKey()
	station := "?"
	if ok {
		station = key.String()
	}
	fmt.Printf("seq=%s station=%s len=%d\n", f.Sequence, station, len(f.Payload))
}
