package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/simwire/internal/codec"
	"github.com/danmuck/simwire/internal/config"
	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/lifecycle"
	"github.com/danmuck/simwire/internal/logging"
	"github.com/danmuck/simwire/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "cmd/wirectl/config.toml"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "wirectl: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	mode    string
	ordinal int
	config  string
	output  string
	force   bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("wirectl", flag.ContinueOnError)
	fs.StringVar(&opts.mode, "mode", "route", "mode: route|sample|decode|template|validate|fingerprint")
	fs.IntVar(&opts.ordinal, "ordinal", 0, "update kind ordinal for route and sample")
	fs.StringVar(&opts.config, "config", "", "node config path (decode, validate)")
	fs.StringVar(&opts.output, "output", defaultConfigPath, "template output path")
	fs.BoolVar(&opts.force, "force", false, "overwrite an existing template")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logging.ConfigureLevel(cfg.LogLevel)

	switch opts.mode {
	case "route":
		return routeOrdinal(stdout, opts.ordinal)
	case "sample":
		return writeSample(stdout, cfg, opts.ordinal)
	case "decode":
		return decodeStream(stdin, stdout, cfg.FrameLimits())
	case "template":
		if err := config.WriteTemplate(opts.output, opts.force); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote node config template to %s\n", opts.output)
		return nil
	case "validate":
		path := opts.config
		if path == "" {
			path = defaultConfigPath
		}
		if _, err := config.LoadNodeConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "validated node config at %s\n", path)
		return nil
	case "fingerprint":
		return printFingerprints(stdout)
	default:
		return fmt.Errorf("unknown mode: %s", opts.mode)
	}
}

// loadConfig reads -config when given; other modes run on defaults.
func loadConfig(opts options) (config.NodeConfig, error) {
	if opts.config == "" || opts.mode == "validate" {
		return config.DefaultNodeConfig(), nil
	}
	return config.LoadNodeConfig(opts.config)
}

func routeOrdinal(w io.Writer, ordinal int) error {
	if ordinal < 0 || ordinal > 0xFF {
		return fmt.Errorf("ordinal out of range: %d", ordinal)
	}
	kind := lifecycle.UpdateKind(ordinal)
	route, err := lifecycle.RouteOf(kind)
	if err != nil {
		_, werr := fmt.Fprintf(w, "ordinal=%d rejected: %v\n", ordinal, err)
		return werr
	}
	_, err = fmt.Fprintf(w, "ordinal=%d kind=%s route=%s\n", ordinal, kind, route)
	return err
}

// writeSample emits one lifecycle frame of the given kind from the
// configured node, for piping into -mode decode.
func writeSample(w io.Writer, cfg config.NodeConfig, ordinal int) error {
	if ordinal < 0 || ordinal > 0xFF {
		return fmt.Errorf("ordinal out of range: %d", ordinal)
	}
	end := cfg.Identity()
	if !end.Valid() {
		end = identity.New(1, 1)
	}
	u := lifecycle.ChannelEndUpdate{
		Kind:          lifecycle.UpdateKind(ordinal),
		Names:         lifecycle.NameSet{Domain: "sim", Channel: "pose", Entry: "sample"},
		EndID:         end,
		DestinationID: identity.Unset,
		Transport:     lifecycle.TransportRegular,
	}
	if u.Kind == lifecycle.TimeJump {
		u.JumpTicks = int32(cfg.ClockJump)
	}
	raw, err := lifecycle.EncodeUpdateFrame(uint64(ordinal)+1, 0, u)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// decodeStream prints every frame on r. Frames that fail to decode are
// reported and skipped; a broken frame stream ends the run.
func decodeStream(r io.Reader, w io.Writer, limits frame.Limits) error {
	br := bufio.NewReader(r)
	count := 0
	for {
		f, err := frame.ReadFrame(br, limits)
		if errors.Is(err, io.EOF) {
			log.Debug().Msgf("wirectl.decode frames=%d", count)
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", count, err)
		}
		count++
		msg, err := lifecycle.DecodeFrame(f)
		if err != nil {
			if _, werr := fmt.Fprintf(w, "#%d error: %v\n", f.Header.MessageID, err); werr != nil {
				return werr
			}
			continue
		}
		if err := lifecycle.FprintMessage(w, msg); err != nil {
			return err
		}
	}
}

func printFingerprints(w io.Writer) error {
	for _, s := range samples() {
		schema := codec.Describe(s.rec)
		id, err := schema.Fingerprint()
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		if _, err := fmt.Fprintf(w, "%s %s %s\n", s.name, id, schema); err != nil {
			return err
		}
	}
	return nil
}
