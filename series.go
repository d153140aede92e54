package lasac

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fumin/lasac/ac"
	"github.com/pkg/errors"
)

const (
	magic      = "LSAC"
	version    = 1
	headerSize = 20
)

var (
	// ErrMagic is returned when a stream does not start with a series header.
	ErrMagic = errors.New("not a compressed series")

	// ErrVersion is returned for series written by an unknown format version.
	ErrVersion = errors.New("unsupported series version")

	// ErrChecksum is returned when the decoded values do not hash to the checksum in the header.
	ErrChecksum = errors.New("series checksum mismatch")
)

// Config configures how a series is compressed.
type Config struct {
	// Bits is the width of the values. Values must fit in a signed Bits-bit integer.
	// 0 and 32 both mean full int32 values.
	Bits uint32

	// Contexts is the number of bit-length contexts of the corrector, in [1, 255].
	Contexts uint32
}

// DefaultConfig returns the configuration used by the compress command.
func DefaultConfig() Config {
	return Config{Bits: 32, Contexts: 4}
}

func (c Config) validate() error {
	if c.Bits > 32 {
		return errors.Errorf("bits %d above 32", c.Bits)
	}
	if c.Contexts == 0 || c.Contexts > 255 {
		return errors.Errorf("contexts %d outside [1, 255]", c.Contexts)
	}
	return nil
}

func (c Config) bounded() bool {
	return c.Bits != 0 && c.Bits < 32
}

type header struct {
	bits     uint8
	contexts uint8
	count    uint32
	checksum uint64
}

func (h header) marshal() []byte {
	b := make([]byte, 0, headerSize)
	b = append(b, magic...)
	b = append(b, version, h.bits, h.contexts, 0)
	b = binary.LittleEndian.AppendUint32(b, h.count)
	b = binary.LittleEndian.AppendUint64(b, h.checksum)
	return b
}

func readHeader(r io.Reader) (header, error) {
	b := make([]byte, headerSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return header{}, errors.Wrap(err, "reading series header")
	}
	if string(b[:4]) != magic {
		return header{}, ErrMagic
	}
	if b[4] != version {
		return header{}, errors.Wrapf(ErrVersion, "%d", b[4])
	}
	h := header{
		bits:     b[5],
		contexts: b[6],
		count:    binary.LittleEndian.Uint32(b[8:]),
		checksum: binary.LittleEndian.Uint64(b[12:]),
	}
	if err := (Config{Bits: uint32(h.bits), Contexts: uint32(h.contexts)}).validate(); err != nil {
		return header{}, errors.Wrap(err, "series header")
	}
	return h, nil
}

// RawBytes returns values as consecutive little-endian 32-bit words.
func RawBytes(values []int32) []byte {
	b := make([]byte, 0, 4*len(values))
	for _, v := range values {
		b = binary.LittleEndian.AppendUint32(b, uint32(v))
	}
	return b
}

// contextOf picks the corrector context for the next value from the bit length of the last correction.
func contextOf(k, contexts uint32) uint32 {
	c := k / 4
	if c >= contexts {
		c = contexts - 1
	}
	return c
}

// signExtend interprets the low bits bits of v as a two's complement integer.
func signExtend(v int32, bits uint32) int32 {
	shift := 32 - bits
	return int32(uint32(v)<<shift) >> shift
}

// Encode writes values to w as a compressed series.
// Every value is coded as a correction to the one before it.
func Encode(w io.Writer, values []int32, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if uint64(len(values)) > 1<<32-1 {
		return errors.Errorf("%d values do not fit in a series", len(values))
	}
	if cfg.bounded() {
		for i, v := range values {
			if signExtend(v, cfg.Bits) != v {
				return errors.Errorf("value %d at %d does not fit in %d bits", v, i, cfg.Bits)
			}
		}
	}

	h := header{
		bits:     uint8(cfg.Bits),
		contexts: uint8(cfg.Contexts),
		count:    uint32(len(values)),
		checksum: xxhash.Sum64(RawBytes(values)),
	}
	if _, err := w.Write(h.marshal()); err != nil {
		return errors.Wrap(err, "writing series header")
	}

	enc := ac.NewEncoder(w)
	if len(values) > 0 {
		if err := enc.WriteInt(uint32(values[0])); err != nil {
			return err
		}
		ic, err := enc.NewIntegerCorrector(cfg.Bits, ac.WithContexts(cfg.Contexts))
		if err != nil {
			return err
		}
		if err := ic.Init(); err != nil {
			return err
		}
		prev := values[0]
		for i, v := range values[1:] {
			if err := ic.Compress(prev, v, contextOf(ic.K(), cfg.Contexts)); err != nil {
				return errors.Wrapf(err, "value %d", i+1)
			}
			prev = v
		}
	}
	return enc.Done()
}

// Decode reads a series written by Encode.
func Decode(r io.Reader) ([]int32, error) {
	br, ok := r.(interface {
		io.Reader
		io.ByteReader
	})
	if !ok {
		br = bufio.NewReader(r)
	}

	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	dec, err := ac.NewDecoder(br)
	if err != nil {
		return nil, err
	}
	defer dec.Done()

	cfg := Config{Bits: uint32(h.bits), Contexts: uint32(h.contexts)}
	values := make([]int32, 0, min(h.count, 1<<16))
	if h.count > 0 {
		first, err := dec.ReadInt()
		if err != nil {
			return nil, err
		}
		ic, err := dec.NewIntegerCorrector(cfg.Bits, ac.WithContexts(cfg.Contexts))
		if err != nil {
			return nil, err
		}
		if err := ic.Init(); err != nil {
			return nil, err
		}
		prev := int32(first)
		values = append(values, prev)
		for i := uint32(1); i < h.count; i++ {
			v, err := ic.Decompress(prev, contextOf(ic.K(), cfg.Contexts))
			if err != nil {
				return nil, errors.Wrapf(err, "value %d", i)
			}
			if cfg.bounded() {
				v = signExtend(v, cfg.Bits)
			}
			values = append(values, v)
			prev = v
		}
	}

	if sum := xxhash.Sum64(RawBytes(values)); sum != h.checksum {
		return nil, errors.Wrapf(ErrChecksum, "got %016x, header has %016x", sum, h.checksum)
	}
	return values, nil
}

// ReadValues parses one decimal integer per line. Blank lines and lines starting with # are skipped.
func ReadValues(r io.Reader) ([]int32, error) {
	var values []int32
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		values = append(values, int32(v))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return values, nil
}

// ReadFile parses the integers in the file named name, as ReadValues does.
func ReadFile(name string) ([]int32, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	return ReadValues(f)
}

// Compress compresses the integers in the file named name and writes the series to w.
func Compress(w io.Writer, name string, cfg Config) error {
	values, err := ReadFile(name)
	if err != nil {
		return err
	}
	return Encode(w, values, cfg)
}

// Decompress reads a series from r and writes its values to w, one per line.
func Decompress(w io.Writer, r io.Reader) error {
	values, err := Decode(r)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, v := range values {
		if _, err := fmt.Fprintln(bw, v); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return errors.Wrap(bw.Flush(), "")
}
