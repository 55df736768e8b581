package modules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/egress"
	"github.com/freyr-engine/freyr/internal/module"
)

// Streams is a thin command adapter over egress.List.DefineStream: it owns
// no state of its own, the egress list is the source of truth for stream
// schemas.
type Streams struct {
	eg *egress.List
}

// NewStreams creates a streams command handler operating on eg.
func NewStreams(eg *egress.List) *Streams {
	return &Streams{eg: eg}
}

// define parses "<egressName> <encoding> <count> [<encoding> <count> ...]"
// into stream segments and installs them via egress.List.DefineStream.
func (s *Streams) define(argstr string) error {
	fields := strings.Fields(argstr)
	if len(fields) < 3 || (len(fields)-1)%2 != 0 {
		return fmt.Errorf("streams_define: expected <egress> <encoding> <count> [...]")
	}
	name := fields[0]
	rest := fields[1:]

	segments := make([]egress.StreamSegment, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		count, err := strconv.Atoi(rest[i+1])
		if err != nil {
			return fmt.Errorf("streams_define: invalid count %q", rest[i+1])
		}
		segments = append(segments, egress.StreamSegment{Encoding: rest[i], Count: count})
	}

	return s.eg.DefineStream(name, segments)
}

// RegisterStreams defines mod_streams' static symbols, instantiates it, and
// wires the streams_define command.
func RegisterStreams(bm *basemodule.Registry, mr *module.Registry, eg *egress.List) (*Streams, error) {
	s := NewStreams(eg)
	bm.DefineSymbol("mod_streams", basemodule.SymInit, func(string) (any, error) { return s, nil })

	m, err := mr.Instantiate("streams", "streams", "")
	if err != nil {
		return nil, fmt.Errorf("registering mod_streams: %w", err)
	}

	if err := mr.RegisterCommand(m, "streams_define", func(argstr, _ string) error {
		return s.define(argstr)
	}, func() *module.IDLNode {
		return module.Sequence(module.String(), module.Repeat(module.Sequence(module.String(), module.Integer(false, 0, 0))))
	}); err != nil {
		return nil, err
	}

	return s, nil
}
