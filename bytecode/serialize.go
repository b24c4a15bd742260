package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/opcodes"
)

func opFromByte(b byte) opcodes.Opcode { return opcodes.Opcode(b) }

func locFromParts(file string, line, col int) errs.Location {
	return errs.Location{File: file, Line: line, Column: col}
}

// Magic prefix and format version, per spec §6's bytecode file format:
// "a magic prefix, format version, constant pool..., instruction array...,
// exception table, source-location sidecar. Versions are not
// backward-compatible across minor releases; a mismatched version must be
// reported cleanly, not undefined behavior." Length-prefixed-section
// framing follows stackedboxes-romualdo/pkg/romutil/serialize.go's
// SerializeU32 convention.
const (
	magic         uint32 = 0x52554646 // "RUFF"
	formatVersion uint32 = 1
)

func putU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func putI32(buf *bytes.Buffer, v int32) { putU32(buf, uint32(v)) }

func putString(buf *bytes.Buffer, s string) {
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// Serialize encodes a Chunk to the persisted bytecode format. Nested
// ConstChunk constants are serialized recursively.
func Serialize(c *Chunk) []byte {
	var buf bytes.Buffer
	putU32(&buf, magic)
	putU32(&buf, formatVersion)
	serializeChunkBody(&buf, c)
	return buf.Bytes()
}

func serializeChunkBody(buf *bytes.Buffer, c *Chunk) {
	putString(buf, c.Name)
	putU32(buf, uint32(c.NumParams))
	putU32(buf, uint32(len(c.ParamNames)))
	for _, p := range c.ParamNames {
		putString(buf, p)
	}
	if c.IsVariadic {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	putU32(buf, uint32(c.NumLocals))

	putU32(buf, uint32(len(c.Constants)))
	for _, k := range c.Constants {
		serializeConstant(buf, k)
	}

	serializeInstructions(buf, c)
}

// serializeConstant writes one constant-pool entry. ConstFloat stores the
// full IEEE-754 bit pattern via math.Float64bits -- not a truncating
// int64(k.Float) conversion -- so a non-integral float constant round-trips
// exactly. ConstArray/ConstDict recurse through serializeConstant for each
// element (dict entries are stored as flat key/value Constant pairs per
// Constant.Elems's doc comment), so nested composite constants persist in
// full rather than only their element count.
func serializeConstant(buf *bytes.Buffer, k Constant) {
	buf.WriteByte(byte(k.Kind))
	switch k.Kind {
	case ConstInt:
		putU32(buf, uint32(k.Int))
		putU32(buf, uint32(k.Int>>32))
	case ConstFloat:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(k.Float))
		buf.Write(tmp[:])
	case ConstString, ConstPattern, ConstTypeDesc:
		putString(buf, k.Str)
	case ConstBool:
		if k.Bool {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case ConstNull:
		// no payload
	case ConstChunk:
		serializeChunkBody(buf, k.Chunk)
	case ConstArray, ConstDict:
		putU32(buf, uint32(len(k.Elems)))
		for _, e := range k.Elems {
			serializeConstant(buf, e)
		}
	}
}

func serializeInstructions(buf *bytes.Buffer, c *Chunk) {
	putU32(buf, uint32(len(c.Instructions)))
	for _, inst := range c.Instructions {
		buf.WriteByte(byte(inst.Op))
		putI32(buf, inst.A)
		putI32(buf, inst.B)
		putI32(buf, inst.C)
	}

	putU32(buf, uint32(len(c.ExceptionTable)))
	for _, e := range c.ExceptionTable {
		putU32(buf, uint32(e.TryStart))
		putU32(buf, uint32(e.TryEnd))
		putU32(buf, uint32(e.CatchStart))
		putString(buf, e.ExceptionVar)
	}

	putU32(buf, uint32(len(c.Debug.Locations)))
	for _, loc := range c.Debug.Locations {
		putString(buf, loc.File)
		putU32(buf, uint32(loc.Line))
		putU32(buf, uint32(loc.Column))
	}
}

// Deserialize decodes a Chunk produced by Serialize, reporting a clean
// error on magic/version mismatch rather than undefined behavior.
func Deserialize(data []byte) (*Chunk, error) {
	r := bytes.NewReader(data)
	var m, ver uint32
	if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
		return nil, fmt.Errorf("ruff bytecode: %w", err)
	}
	if m != magic {
		return nil, fmt.Errorf("ruff bytecode: bad magic %x", m)
	}
	if err := binary.Read(r, binary.LittleEndian, &ver); err != nil {
		return nil, fmt.Errorf("ruff bytecode: %w", err)
	}
	if ver != formatVersion {
		return nil, fmt.Errorf("ruff bytecode: unsupported format version %d (have %d)", ver, formatVersion)
	}
	return deserializeChunkBody(r)
}

func readU32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// deserializeConstant reads back one constant-pool entry written by
// serializeConstant. ConstFloat recovers the exact IEEE-754 bit pattern via
// math.Float64frombits. ConstArray/ConstDict recurse through
// deserializeConstant for each element instead of allocating a
// zero-valued Elems slice, so nested composite constants round-trip with
// their actual data rather than just their length.
func deserializeConstant(r *bytes.Reader) (Constant, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return Constant{}, err
	}
	k := Constant{Kind: ConstKind(kindByte)}
	switch k.Kind {
	case ConstInt:
		lo, _ := readU32(r)
		hi, _ := readU32(r)
		k.Int = int64(uint64(hi)<<32 | uint64(lo))
	case ConstFloat:
		var tmp [8]byte
		if _, err := r.Read(tmp[:]); err != nil {
			return Constant{}, err
		}
		k.Float = math.Float64frombits(binary.LittleEndian.Uint64(tmp[:]))
	case ConstString, ConstPattern, ConstTypeDesc:
		if k.Str, err = readString(r); err != nil {
			return Constant{}, err
		}
	case ConstBool:
		bb, _ := r.ReadByte()
		k.Bool = bb != 0
	case ConstNull:
	case ConstChunk:
		nested, err := deserializeChunkBody(r)
		if err != nil {
			return Constant{}, err
		}
		k.Chunk = nested
	case ConstArray, ConstDict:
		n, err := readU32(r)
		if err != nil {
			return Constant{}, err
		}
		k.Elems = make([]Constant, n)
		for i := uint32(0); i < n; i++ {
			e, err := deserializeConstant(r)
			if err != nil {
				return Constant{}, err
			}
			k.Elems[i] = e
		}
	}
	return k, nil
}

func deserializeChunkBody(r *bytes.Reader) (*Chunk, error) {
	c := &Chunk{}
	var err error
	if c.Name, err = readString(r); err != nil {
		return nil, err
	}
	numParams, err := readU32(r)
	if err != nil {
		return nil, err
	}
	c.NumParams = int(numParams)
	numParamNames, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numParamNames; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		c.ParamNames = append(c.ParamNames, name)
	}
	variadic, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	c.IsVariadic = variadic != 0
	numLocals, err := readU32(r)
	if err != nil {
		return nil, err
	}
	c.NumLocals = int(numLocals)

	numConsts, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numConsts; i++ {
		k, err := deserializeConstant(r)
		if err != nil {
			return nil, err
		}
		c.Constants = append(c.Constants, k)
	}

	numInst, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numInst; i++ {
		opByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		a, _ := readU32(r)
		b, _ := readU32(r)
		cc, _ := readU32(r)
		c.Instructions = append(c.Instructions, Instruction{
			Op: opFromByte(opByte), A: int32(a), B: int32(b), C: int32(cc),
		})
	}

	numExc, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numExc; i++ {
		ts, _ := readU32(r)
		te, _ := readU32(r)
		cs, _ := readU32(r)
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		c.ExceptionTable = append(c.ExceptionTable, ExceptionTableEntry{
			TryStart: int(ts), TryEnd: int(te), CatchStart: int(cs), ExceptionVar: name,
		})
	}

	numLoc, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numLoc; i++ {
		file, err := readString(r)
		if err != nil {
			return nil, err
		}
		line, _ := readU32(r)
		col, _ := readU32(r)
		c.Debug.Locations = append(c.Debug.Locations, locFromParts(file, int(line), int(col)))
	}

	return c, nil
}
