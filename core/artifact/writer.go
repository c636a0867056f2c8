package artifact

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"
)

const (
	// Magic is the file magic number "JSIR" (4 bytes)
	Magic = "JSIR"

	// FormatVersion is the version of the body layout. The header carries
	// its major and minor parts; readers accept any minor of their major.
	FormatVersion = "v1.0.0"
)

// Flags is a bitmask of facts about how the script was compiled.
type Flags uint16

const (
	// FlagWarnings indicates the compiler reported warnings
	FlagWarnings Flags = 1 << 0

	// FlagPermissive indicates reserved words were accepted as identifiers
	FlagPermissive Flags = 1 << 1

	// Bits 2-15 reserved for future use
)

// headerLen is MAGIC(4) | VERSION(2) | FLAGS(2) | BODY_LEN(4) | HASH(32).
const headerLen = 44

// Write writes a to w and returns the BLAKE2b-256 hash of the body.
// The body is canonical CBOR, so equal artifacts produce equal files.
func Write(w io.Writer, a *Artifact, flags Flags) ([32]byte, error) {
	wr := &Writer{w: w}
	return wr.WriteArtifact(a, flags)
}

// Writer handles writing artifacts to binary format.
type Writer struct {
	w io.Writer
}

// WriteArtifact writes the artifact to the underlying writer.
func (wr *Writer) WriteArtifact(a *Artifact, flags Flags) ([32]byte, error) {
	if err := a.Validate(); err != nil {
		return [32]byte{}, fmt.Errorf("invalid artifact: %w", err)
	}

	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return [32]byte{}, fmt.Errorf("cbor mode: %w", err)
	}
	body, err := em.Marshal(a)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode body: %w", err)
	}
	if len(body) > maxBodyLen {
		return [32]byte{}, fmt.Errorf("body length %d exceeds maximum %d", len(body), maxBodyLen)
	}
	hash := blake2b.Sum256(body)

	version, err := encodeVersion(FormatVersion)
	if err != nil {
		return [32]byte{}, err
	}

	var header [headerLen]byte
	copy(header[0:4], Magic)
	binary.LittleEndian.PutUint16(header[4:6], version)
	binary.LittleEndian.PutUint16(header[6:8], uint16(flags))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(body)))
	copy(header[12:44], hash[:])

	if _, err := wr.w.Write(header[:]); err != nil {
		return [32]byte{}, fmt.Errorf("write header: %w", err)
	}
	if _, err := wr.w.Write(body); err != nil {
		return [32]byte{}, fmt.Errorf("write body: %w", err)
	}
	return hash, nil
}

// encodeVersion packs the major and minor parts of a semver string as
// major<<8 | minor.
func encodeVersion(v string) (uint16, error) {
	if !semver.IsValid(v) {
		return 0, fmt.Errorf("invalid version %q", v)
	}
	majorText, minorText, _ := strings.Cut(strings.TrimPrefix(semver.MajorMinor(v), "v"), ".")
	major, err := strconv.ParseUint(majorText, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("version %q: major: %w", v, err)
	}
	minor, err := strconv.ParseUint(minorText, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("version %q: minor: %w", v, err)
	}
	return uint16(major)<<8 | uint16(minor), nil
}

func decodeVersion(v uint16) string {
	return fmt.Sprintf("v%d.%d.0", v>>8, v&0xFF)
}
