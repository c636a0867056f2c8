package artifact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"
)

// Body limit, to refuse lengths that would exhaust memory.
const maxBodyLen = 100 * 1024 * 1024

// ErrHashMismatch is returned when the body does not match the header hash.
var ErrHashMismatch = errors.New("body hash mismatch")

// Header is the fixed-size preamble of a .jsir file.
type Header struct {
	Version string // format version, with the patch part zeroed
	Flags   Flags
	Hash    [32]byte
}

// Read reads an artifact from r and verifies its hash.
func Read(r io.Reader) (*Artifact, Header, error) {
	rd := &Reader{r: r}
	return rd.ReadArtifact()
}

// Reader handles reading artifacts from binary format.
type Reader struct {
	r io.Reader
}

// ReadArtifact reads the artifact from the underlying reader.
func (rd *Reader) ReadArtifact() (*Artifact, Header, error) {
	var raw [headerLen]byte
	if _, err := io.ReadFull(rd.r, raw[:]); err != nil {
		return nil, Header{}, fmt.Errorf("read header: %w", err)
	}

	magic := string(raw[0:4])
	if magic != Magic {
		return nil, Header{}, fmt.Errorf("invalid magic: got %q, expected %q", magic, Magic)
	}

	h := Header{
		Version: decodeVersion(binary.LittleEndian.Uint16(raw[4:6])),
		Flags:   Flags(binary.LittleEndian.Uint16(raw[6:8])),
	}
	copy(h.Hash[:], raw[12:44])
	if semver.Major(h.Version) != semver.Major(FormatVersion) {
		return nil, Header{}, fmt.Errorf("unsupported version: got %s, expected %s", h.Version, semver.Major(FormatVersion))
	}

	bodyLen := binary.LittleEndian.Uint32(raw[8:12])
	if bodyLen > maxBodyLen {
		return nil, Header{}, fmt.Errorf("body length %d exceeds maximum %d", bodyLen, maxBodyLen)
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(rd.r, body); err != nil {
		return nil, Header{}, fmt.Errorf("read body: %w", err)
	}
	if blake2b.Sum256(body) != h.Hash {
		return nil, Header{}, ErrHashMismatch
	}

	// Unknown fields are allowed: a newer minor version may add some.
	dm, err := cbor.DecOptions{
		MaxNestedLevels: 1024,
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		return nil, Header{}, fmt.Errorf("cbor mode: %w", err)
	}
	a := &Artifact{}
	if err := dm.Unmarshal(body, a); err != nil {
		return nil, Header{}, fmt.Errorf("parse body: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, Header{}, fmt.Errorf("invalid artifact: %w", err)
	}
	return a, h, nil
}
