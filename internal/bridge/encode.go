package bridge

import (
	"fmt"
	"strconv"

	"github.com/mbridge/mbridge/internal/codec"
	"github.com/mbridge/mbridge/internal/engine"
	"github.com/mbridge/mbridge/internal/pack"
	"github.com/mbridge/mbridge/internal/token"
)

// encodeRequest turns a typed request into a fully encoded descriptor:
// subscripts run through the codec and the packer, the reference literal
// is built (spilling if oversized), and every buffer ceiling is checked.
// All failures here are encoding errors; the engine is never called.
func encodeRequest(op Operation, req Request) (*callDescriptor, error) {
	opName := op.String()

	switch op {
	case OpData, OpGet, OpKill, OpOrder, OpPrevious, OpNextNode, OpPreviousNode:
		ref, err := encodeReference(opName, req.Name, req.Subscripts, req.Mode)
		if err != nil {
			return nil, err
		}
		return newDescriptor(op, req.Mode, entryName(op), refArgs(ref)), nil

	case OpSet:
		if len(req.Value) > MaxResultSize {
			return nil, NewCapacityError(opName, "input value", len(req.Value), MaxResultSize)
		}
		ref, err := encodeReference(opName, req.Name, req.Subscripts, req.Mode)
		if err != nil {
			return nil, err
		}
		value := codec.EncodeInput(req.Value, req.Mode, true)
		args := append([]string{ref.Literal, value}, ref.Spill...)
		return newDescriptor(op, req.Mode, engine.OpSet, args), nil

	case OpIncrement:
		delta := req.Value
		if delta == "" {
			delta = "1"
		}
		delta = codec.EncodeInput(delta, req.Mode, true)
		ref, err := encodeReference(opName, req.Name, req.Subscripts, req.Mode)
		if err != nil {
			return nil, err
		}
		args := append([]string{ref.Literal, delta}, ref.Spill...)
		return newDescriptor(op, req.Mode, engine.OpIncrement, args), nil

	case OpLock:
		ref, err := encodeReference(opName, req.Name, req.Subscripts, req.Mode)
		if err != nil {
			return nil, err
		}
		timeout := strconv.FormatFloat(req.Timeout, 'f', -1, 64)
		args := append([]string{ref.Literal, timeout}, ref.Spill...)
		return newDescriptor(op, req.Mode, engine.OpLock, args), nil

	case OpUnlock:
		if req.Name == "" {
			// Argumentless unlock releases everything.
			return newDescriptor(op, req.Mode, engine.OpUnlock, nil), nil
		}
		ref, err := encodeReference(opName, req.Name, req.Subscripts, req.Mode)
		if err != nil {
			return nil, err
		}
		return newDescriptor(op, req.Mode, engine.OpUnlock, refArgs(ref)), nil

	case OpMerge:
		from, err := encodeReference(opName, req.Name, req.Subscripts, req.Mode)
		if err != nil {
			return nil, err
		}
		to, err := encodeMergeTarget(opName, req.To.Name, req.To.Subscripts, req.Mode, len(from.Spill))
		if err != nil {
			return nil, err
		}
		args := append([]string{from.Literal, to.Literal}, from.Spill...)
		args = append(args, to.Spill...)
		return newDescriptor(op, req.Mode, engine.OpMerge, args), nil

	case OpFunction, OpProcedure:
		ref, err := encodeReference(opName, req.Name, req.Subscripts, req.Mode)
		if err != nil {
			return nil, err
		}
		return newDescriptor(op, req.Mode, entryName(op), refArgs(ref)), nil

	case OpGlobalDirectory, OpLocalDirectory:
		max := ""
		if req.Max > 0 {
			max = strconv.Itoa(req.Max)
		}
		return newDescriptor(op, req.Mode, entryName(op), []string{max, req.Lo, req.Hi}), nil

	case OpVersion:
		return newDescriptor(op, req.Mode, engine.OpVersion, nil), nil

	default:
		return nil, NewEncodingError(opName, fmt.Sprintf("operation %d has no engine entry point", op))
	}
}

// encodeReference codec-encodes the subscripts, packs them, and builds
// the reference literal from the unpacked list. The packed form is the
// descriptor's transport representation; the pack/unpack round trip is
// the invariant the wire format guarantees.
func encodeReference(opName, name string, subs token.List, mode codec.Mode) (pack.Reference, error) {
	encoded := make(token.List, len(subs))
	for i, sub := range subs {
		if len(sub) > MaxResultSize {
			return pack.Reference{}, NewCapacityError(opName, fmt.Sprintf("subscript %d", i+1), len(sub), MaxResultSize)
		}
		encoded[i] = codec.EncodeInput(sub, mode, false)
	}

	wire, empty := pack.Pack(encoded)
	unpacked, err := pack.Unpack(wire, empty)
	if err != nil {
		return pack.Reference{}, NewEncodingError(opName, err.Error())
	}
	ref, err := pack.BuildReference(name, unpacked)
	if err != nil {
		return pack.Reference{}, NewEncodingError(opName, err.Error())
	}
	return ref, nil
}

// encodeMergeTarget encodes the merge target reference. The target
// travels packed with its name as the final element; the name is dropped
// back out before reference construction, the empty flag distinguishing
// a zero-subscript target from a single empty subscript. Spill slots
// continue numbering after the source reference's, so both references
// resolve against one shared spill list.
func encodeMergeTarget(opName, name string, subs token.List, mode codec.Mode, base int) (pack.Reference, error) {
	encoded := make(token.List, 0, len(subs)+1)
	for i, sub := range subs {
		if len(sub) > MaxResultSize {
			return pack.Reference{}, NewCapacityError(opName, fmt.Sprintf("target subscript %d", i+1), len(sub), MaxResultSize)
		}
		encoded = append(encoded, codec.EncodeInput(sub, mode, false))
	}
	encoded = append(encoded, name)

	wire, _ := pack.Pack(encoded)
	subsWire, dropped, err := pack.DropLast(wire)
	if err != nil {
		return pack.Reference{}, NewEncodingError(opName, err.Error())
	}
	toks, err := pack.Unpack(subsWire, len(subs) == 0)
	if err != nil {
		return pack.Reference{}, NewEncodingError(opName, err.Error())
	}
	ref, err := pack.BuildReferenceBase(dropped, toks, base)
	if err != nil {
		return pack.Reference{}, NewEncodingError(opName, err.Error())
	}
	return ref, nil
}

func refArgs(ref pack.Reference) []string {
	return append([]string{ref.Literal}, ref.Spill...)
}

// entryName maps a bridge operation to its engine entry point.
func entryName(op Operation) string {
	switch op {
	case OpData:
		return engine.OpData
	case OpGet:
		return engine.OpGet
	case OpKill:
		return engine.OpKill
	case OpOrder:
		return engine.OpOrder
	case OpPrevious:
		return engine.OpPrevious
	case OpNextNode:
		return engine.OpNextNode
	case OpPreviousNode:
		return engine.OpPreviousNode
	case OpFunction:
		return engine.OpFunction
	case OpProcedure:
		return engine.OpProcedure
	case OpGlobalDirectory:
		return engine.OpGlobalDir
	case OpLocalDirectory:
		return engine.OpLocalDir
	default:
		return op.String()
	}
}
