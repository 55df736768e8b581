package egress

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/freyr-engine/freyr/internal/encoding"
	"github.com/freyr-engine/freyr/internal/frame"
)

// upsilon strand modes, encoded in the MSB of its 160-byte table entry.
const (
	strandWS2811  = 0
	strandUpsilon = 1 << 15
)

const (
	upsilonHeaderBytes = 8
	upsilonMaxStrands  = 80
	upsilonChunkBytes  = 512
)

// UpsilonStrand is one physical LED strand striped into the UDP wire
// protocol's frame body.
type UpsilonStrand struct {
	Tag      string // encoding tag for WS2811-mode strands
	Count    int
	UARTMode bool // Upsilon2 UART-encoded variant instead of raw WS2811 bytes
}

// UpsilonBackend implements Backend for the upsilon-striped UDP protocol:
// an 8-byte header (command byte, flags, 4-byte bus address) followed by a
// 160-byte strand table, then a frame body that is the round-robin
// byte-interleave of every strand's encoded buffer.
type UpsilonBackend struct {
	conn     *net.UDPConn
	addr     *net.UDPAddr
	strands  []UpsilonStrand
	buffered bool
	busAddr  uint32
}

// DialUpsilon resolves host:port and constructs a backend for the given
// strand list. buffered selects the 0x42-framed chunking mode; false
// selects the 0x52-prefixed streaming mode.
func DialUpsilon(hostport string, strands []UpsilonStrand, buffered bool) (*UpsilonBackend, error) {
	if len(strands) > upsilonMaxStrands {
		return nil, fmt.Errorf("upsilon: %d strands exceeds table capacity %d", len(strands), upsilonMaxStrands)
	}
	addr, err := net.ResolveUDPAddr("udp", hostport)
	if err != nil {
		return nil, fmt.Errorf("resolving upsilon host %q: %w", hostport, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dialing upsilon host %q: %w", hostport, err)
	}
	return &UpsilonBackend{conn: conn, addr: addr, strands: strands, buffered: buffered, busAddr: 0x01}, nil
}

// Flush encodes pixels into the per-strand buffers, stripes them into one
// frame body, and transmits the header followed by the body in either
// streaming or buffered chunks.
func (u *UpsilonBackend) Flush(offset, count int, pixels []frame.Pixel) error {
	buffers := make([][]byte, len(u.strands))
	led := 0
	for i, s := range u.strands {
		n := s.Count
		if led+n > len(pixels) {
			n = len(pixels) - led
		}
		if n < 0 {
			n = 0
		}
		buffers[i] = encodeStrand(s, pixels[led:led+n])
		led += n
	}

	header := make([]byte, upsilonHeaderBytes+upsilonMaxStrands*2)
	header[0] = 0x42
	header[1] = 0x00
	binary.BigEndian.PutUint32(header[2:6], u.busAddr)
	for i, buf := range buffers {
		entry := uint16(len(buf))
		if u.strands[i].UARTMode {
			entry |= strandUpsilon
		}
		binary.BigEndian.PutUint16(header[6+i*2:8+i*2], entry)
	}

	body := stripeBuffers(buffers)

	if _, err := u.conn.Write(header); err != nil {
		return fmt.Errorf("upsilon: writing header: %w", err)
	}
	if u.buffered {
		return u.sendBuffered(body)
	}
	return u.sendStreaming(body)
}

// stripeBuffers round-robins a byte from each non-exhausted strand buffer
// in turn, producing the interleaved frame body.
func stripeBuffers(buffers [][]byte) []byte {
	maxLen := 0
	for _, b := range buffers {
		if len(b) > maxLen {
			maxLen = len(b)
		}
	}
	out := make([]byte, 0, maxLen*len(buffers))
	for round := 0; round < maxLen; round++ {
		for _, b := range buffers {
			if round < len(b) {
				out = append(out, b[round])
			}
		}
	}
	return out
}

func (u *UpsilonBackend) sendStreaming(body []byte) error {
	for off := 0; off < len(body); off += upsilonChunkBytes {
		end := off + upsilonChunkBytes
		if end > len(body) {
			end = len(body)
		}
		chunk := append([]byte{0x52}, body[off:end]...)
		if _, err := u.conn.Write(chunk); err != nil {
			return fmt.Errorf("upsilon: streaming chunk at %d: %w", off, err)
		}
	}
	return nil
}

func (u *UpsilonBackend) sendBuffered(body []byte) error {
	for off := 0; off < len(body); off += upsilonChunkBytes {
		end := off + upsilonChunkBytes
		if end > len(body) {
			end = len(body)
		}
		last := end >= len(body)
		flags := byte(0x00)
		if last {
			flags = 0x01
		}
		chunkAddr := 0x20000000 + uint32(off)
		prefix := make([]byte, 6)
		prefix[0] = 0x42
		prefix[1] = flags
		binary.BigEndian.PutUint32(prefix[2:6], chunkAddr)
		chunk := append(prefix, body[off:end]...)
		if _, err := u.conn.Write(chunk); err != nil {
			return fmt.Errorf("upsilon: buffered chunk at %d: %w", off, err)
		}
	}
	return nil
}

func encodeStrand(s UpsilonStrand, pixels []frame.Pixel) []byte {
	if s.UARTMode {
		return encodeUpsilon2(pixels)
	}
	entry, ok := encoding.Lookup(s.Tag)
	if !ok {
		return nil
	}
	buf := make([]byte, 0, entry.BytesPerPixel*len(pixels))
	for _, p := range pixels {
		buf = entry.Encode(buf, p)
	}
	return buf
}

// uartEncoder packs (start=0, 8 data bits LSB-first, stop=1) frames into a
// byte stream, matching the original hardware UART framing exactly.
type uartEncoder struct {
	out         []byte
	currentByte byte
	counter     int
}

func (e *uartEncoder) addBit(v int) {
	e.currentByte = (e.currentByte << 1) | byte(v&1)
	e.counter++
	if e.counter == 8 {
		e.out = append(e.out, e.currentByte)
		e.currentByte = 0
		e.counter = 0
	}
}

func (e *uartEncoder) addFrame(data byte) {
	e.addBit(0)
	for i := 0; i < 8; i++ {
		e.addBit(int(data>>uint(i)) & 1)
	}
	e.addBit(1)
}

func (e *uartEncoder) addIdle(n int) {
	for i := 0; i < n; i++ {
		e.addBit(1)
	}
}

func (e *uartEncoder) flush() {
	for e.counter != 0 {
		e.addBit(1)
	}
}

// encodeUpsilon2 emits the UART-encoded strand variant: a sync preamble,
// per-pixel 16-bit PWM plus intensity byte, a sync/idle trailer.
func encodeUpsilon2(pixels []frame.Pixel) []byte {
	enc := &uartEncoder{}
	for i := 0; i < 20; i++ {
		enc.addFrame(0x80)
	}
	for i, p := range pixels {
		cp := p.Clamp()
		enc.addFrame(byte(i))
		encodeChannel(enc, cp.R)
		encodeChannel(enc, cp.G)
		encodeChannel(enc, cp.B)
		enc.flush()
	}
	enc.addFrame(0x88)
	enc.flush()
	enc.addIdle(64)
	return enc.out
}

func encodeChannel(enc *uartEncoder, v float64) {
	pwm := uint16(float64(0xFFFF) * v)
	enc.addFrame(byte(pwm >> 8))
	enc.addFrame(byte(pwm))
	enc.addFrame(0xFF)
}

// Close releases the UDP socket.
func (u *UpsilonBackend) Close() error {
	return u.conn.Close()
}
