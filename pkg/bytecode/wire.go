package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/lunet-lang/lunet/pkg/value"
)

// cborEncMode holds CBOR encoding options with canonical mode for
// deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Wire tags for constant kinds. These are part of the .lnc format and
// must stay stable across releases.
const (
	wireNil    = 0
	wireBool   = 1
	wireInt    = 2
	wireFloat  = 3
	wireString = 4
)

// wireChunk is the CBOR shape of a chunk.
type wireChunk struct {
	Version   uint16      `cbor:"version"`
	Code      []byte      `cbor:"code"`
	Constants []wireValue `cbor:"constants"`
	Locals    uint8       `cbor:"locals"`
}

// wireValue is the CBOR shape of one constant. Exactly one payload
// field is meaningful, selected by Kind.
type wireValue struct {
	Kind  uint8   `cbor:"kind"`
	Bool  bool    `cbor:"bool,omitempty"`
	Int   int64   `cbor:"int,omitempty"`
	Float float64 `cbor:"float,omitempty"`
	Str   string  `cbor:"str,omitempty"`
}

// MarshalChunk serializes a chunk to CBOR bytes, the .lnc file format.
func MarshalChunk(c *Chunk) ([]byte, error) {
	w := wireChunk{
		Version: c.Version,
		Code:    c.Code,
		Locals:  c.LocalCount,
	}
	w.Constants = make([]wireValue, 0, len(c.Constants))
	for i, v := range c.Constants {
		switch v.Kind() {
		case value.KindNil:
			w.Constants = append(w.Constants, wireValue{Kind: wireNil})
		case value.KindBoolean:
			w.Constants = append(w.Constants, wireValue{Kind: wireBool, Bool: v.AsBoolean()})
		case value.KindInteger:
			w.Constants = append(w.Constants, wireValue{Kind: wireInt, Int: v.AsInteger()})
		case value.KindFloat:
			w.Constants = append(w.Constants, wireValue{Kind: wireFloat, Float: v.AsFloat()})
		case value.KindShortString, value.KindMidString, value.KindLongString:
			s, _ := v.Text()
			w.Constants = append(w.Constants, wireValue{Kind: wireString, Str: s})
		default:
			return nil, fmt.Errorf("constant %d is not serializable: %s", i, v.Kind())
		}
	}
	return cborEncMode.Marshal(&w)
}

// UnmarshalChunk deserializes a chunk from CBOR bytes. String constants
// are rebuilt through the tiered constructor, so their storage tier is
// re-derived from content length.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var w wireChunk
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}
	if w.Version > BytecodeVersion {
		return nil, fmt.Errorf("bytecode version %d is newer than supported version %d", w.Version, BytecodeVersion)
	}

	c := &Chunk{
		Version:    w.Version,
		Code:       w.Code,
		LocalCount: w.Locals,
		Constants:  make([]value.Value, 0, len(w.Constants)),
	}
	for i, wv := range w.Constants {
		switch wv.Kind {
		case wireNil:
			c.Constants = append(c.Constants, value.Nil())
		case wireBool:
			c.Constants = append(c.Constants, value.Boolean(wv.Bool))
		case wireInt:
			c.Constants = append(c.Constants, value.Integer(wv.Int))
		case wireFloat:
			c.Constants = append(c.Constants, value.Float(wv.Float))
		case wireString:
			c.Constants = append(c.Constants, value.NewString(wv.Str))
		default:
			return nil, fmt.Errorf("bytecode: unknown wire kind %d for constant %d", wv.Kind, i)
		}
	}
	return c, nil
}
