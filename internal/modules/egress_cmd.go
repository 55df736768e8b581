package modules

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/egress"
	"github.com/freyr-engine/freyr/internal/module"
)

// Egress wires the egress_init command onto an egress.List, constructing
// the named kind's concrete Backend (console, null, gpio, s3, upsilon) from
// its trailing keyword arguments.
type Egress struct {
	list *egress.List
}

// NewEgress creates an egress_init handler adding instances to list.
func NewEgress(list *egress.List) *Egress {
	return &Egress{list: list}
}

// init parses "<kind> <name> <count> [kind-specific args…]".
func (e *Egress) init(argstr string) error {
	fields := strings.Fields(argstr)
	if len(fields) < 3 {
		return fmt.Errorf("egress_init: expected <kind> <name> <count>")
	}
	kind, name := fields[0], fields[1]
	count, err := strconv.Atoi(fields[2])
	if err != nil || count <= 0 {
		return fmt.Errorf("egress_init: invalid count %q", fields[2])
	}
	rest := fields[3:]

	backend, err := buildBackend(kind, count, rest)
	if err != nil {
		return fmt.Errorf("egress_init: %w", err)
	}
	e.list.Add(name, count, backend)
	return nil
}

func buildBackend(kind string, count int, rest []string) (egress.Backend, error) {
	switch kind {
	case "console":
		return buildConsole(rest)
	case "null", "dummy":
		return egress.NullBackend{}, nil
	case "gpio":
		return buildGPIO(count, rest)
	case "s3":
		return buildS3(rest)
	case "upsilon":
		return buildUpsilon(count, rest)
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

func buildConsole(rest []string) (egress.Backend, error) {
	cfg := egress.ConsoleConfig{}
	for i := 0; i < len(rest); {
		switch rest[i] {
		case "width":
			if i+1 >= len(rest) {
				return nil, fmt.Errorf("console: width requires a value")
			}
			w, err := strconv.Atoi(rest[i+1])
			if err != nil {
				return nil, fmt.Errorf("console: invalid width %q", rest[i+1])
			}
			cfg.Width = w
			i += 2
		case "path":
			if i+1 >= len(rest) {
				return nil, fmt.Errorf("console: path requires a value")
			}
			f, err := os.OpenFile(rest[i+1], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, fmt.Errorf("console: opening path %q: %w", rest[i+1], err)
			}
			cfg.Writer = f
			i += 2
		default:
			return nil, fmt.Errorf("console: unknown option %q", rest[i])
		}
	}
	return egress.NewConsoleBackend(cfg), nil
}

func buildGPIO(count int, rest []string) (egress.Backend, error) {
	cfg := egress.GPIOConfig{Count: count}
	for i := 0; i < len(rest); {
		switch rest[i] {
		case "pin":
			v, n, err := intArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.Pin, i = v, n
		case "brightness":
			v, n, err := intArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.Brightness, i = v, n
		case "frequency":
			v, n, err := intArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.Frequency, i = v, n
		case "channel":
			v, n, err := intArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.Channel, i = v, n
		case "invert":
			cfg.Invert = true
			i++
		case "grb":
			cfg.GRB = true
			i++
		default:
			return nil, fmt.Errorf("gpio: unknown option %q", rest[i])
		}
	}
	return egress.NewGPIOBackend(cfg)
}

func buildS3(rest []string) (egress.Backend, error) {
	cfg := egress.S3Config{}
	for i := 0; i < len(rest); {
		switch rest[i] {
		case "bucket":
			v, n, err := strArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.Bucket, i = v, n
		case "region":
			v, n, err := strArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.Region, i = v, n
		case "access_key":
			v, n, err := strArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.AccessKey, i = v, n
		case "secret_key":
			v, n, err := strArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.SecretKey, i = v, n
		case "prefix":
			v, n, err := strArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.Prefix, i = v, n
		case "interval":
			v, n, err := intArg(rest, i)
			if err != nil {
				return nil, err
			}
			cfg.Interval = time.Duration(v) * time.Second
			i = n
		default:
			return nil, fmt.Errorf("s3: unknown option %q", rest[i])
		}
	}
	return egress.NewS3Backend(cfg)
}

func buildUpsilon(count int, rest []string) (egress.Backend, error) {
	host := ""
	buffered := false
	tag := "RGB8"
	for i := 0; i < len(rest); {
		switch rest[i] {
		case "host":
			v, n, err := strArg(rest, i)
			if err != nil {
				return nil, err
			}
			host, i = v, n
		case "tag":
			v, n, err := strArg(rest, i)
			if err != nil {
				return nil, err
			}
			tag, i = v, n
		case "buffered":
			buffered = true
			i++
		default:
			return nil, fmt.Errorf("upsilon: unknown option %q", rest[i])
		}
	}
	if host == "" {
		return nil, fmt.Errorf("upsilon: host is required")
	}
	return egress.DialUpsilon(host, []egress.UpsilonStrand{{Tag: tag, Count: count}}, buffered)
}

func intArg(fields []string, i int) (int, int, error) {
	if i+1 >= len(fields) {
		return 0, 0, fmt.Errorf("%q requires a value", fields[i])
	}
	v, err := strconv.Atoi(fields[i+1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid value for %q: %q", fields[i], fields[i+1])
	}
	return v, i + 2, nil
}

func strArg(fields []string, i int) (string, int, error) {
	if i+1 >= len(fields) {
		return "", 0, fmt.Errorf("%q requires a value", fields[i])
	}
	return fields[i+1], i + 2, nil
}

// RegisterEgress defines mod_egress' static symbols, instantiates it as the
// registry's egress singleton, and wires the egress_init command.
func RegisterEgress(bm *basemodule.Registry, mr *module.Registry, list *egress.List) (*Egress, error) {
	e := NewEgress(list)
	bm.DefineSymbol("mod_egress", basemodule.SymInit, func(string) (any, error) { return e, nil })

	m, err := mr.Instantiate("egress", "egress", "")
	if err != nil {
		return nil, fmt.Errorf("registering mod_egress: %w", err)
	}

	if err := mr.RegisterCommand(m, "egress_init", func(argstr, _ string) error {
		return e.init(argstr)
	}, func() *module.IDLNode {
		return module.Sequence(module.String(), module.String(), module.String(), module.Repeat(module.String()))
	}); err != nil {
		return nil, err
	}

	return e, nil
}
