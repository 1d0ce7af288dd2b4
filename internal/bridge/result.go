package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mbridge/mbridge/internal/codec"
	"github.com/mbridge/mbridge/internal/pack"
)

// notImplementedResult is the synthesized completion for operations the
// connected engine build lacks. Downgrading beats failing: callers probe
// with these operations and expect a result, not a hard error.
var notImplementedResult = json.RawMessage(`{"result":"not yet implemented"}`)

// buildResult shapes an engine output buffer into the operation's
// host-facing JSON object. In canonical mode tokens are decoded through
// the classifier; in strict mode every value is an explicitly typed JSON
// string.
func buildResult(op Operation, mode codec.Mode, out string) (json.RawMessage, error) {
	if len(out) > MaxResultSize {
		return nil, NewCapacityError(op.String(), "output", len(out), MaxResultSize)
	}

	switch op {
	case OpData:
		return json.RawMessage(`{"defined":` + out + `}`), nil

	case OpGet:
		fields, err := pack.Unpack(out, false)
		if err != nil || len(fields) != 2 {
			return nil, NewEncodingError(op.String(), fmt.Sprintf("unparseable get output %q", out))
		}
		data, err := hostValue(fields[1], mode)
		if err != nil {
			return nil, err
		}
		var b bytes.Buffer
		b.WriteString(`{"defined":`)
		b.WriteString(fields[0])
		b.WriteString(`,"data":`)
		b.Write(data)
		b.WriteByte('}')
		return b.Bytes(), nil

	case OpOrder, OpPrevious:
		v, err := hostValue(out, mode)
		if err != nil {
			return nil, err
		}
		return wrapResult(v), nil

	case OpNextNode, OpPreviousNode:
		fields, err := pack.Unpack(out, false)
		if err != nil || len(fields) < 1 {
			return nil, NewEncodingError(op.String(), fmt.Sprintf("unparseable traversal output %q", out))
		}
		if fields[0] == "0" {
			return json.RawMessage(`{"defined":0}`), nil
		}
		if len(fields) < 2 {
			return nil, NewEncodingError(op.String(), fmt.Sprintf("unparseable traversal output %q", out))
		}
		var b bytes.Buffer
		b.WriteString(`{"defined":1,"subscripts":[`)
		for i, sub := range fields[2:] {
			if i > 0 {
				b.WriteByte(',')
			}
			v, err := hostValue(sub, mode)
			if err != nil {
				return nil, err
			}
			b.Write(v)
		}
		b.WriteString(`],"data":`)
		data, err := hostValue(fields[1], mode)
		if err != nil {
			return nil, err
		}
		b.Write(data)
		b.WriteByte('}')
		return b.Bytes(), nil

	case OpIncrement:
		v, err := hostValue(out, mode)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(`{"data":` + string(v) + `}`), nil

	case OpLock:
		return json.RawMessage(`{"result":` + out + `}`), nil

	case OpFunction, OpVersion:
		v, err := hostValue(out, mode)
		if err != nil {
			return nil, err
		}
		return wrapResult(v), nil

	case OpGlobalDirectory, OpLocalDirectory:
		var b bytes.Buffer
		b.WriteString(`{"result":[`)
		if out != "" {
			names, err := pack.Unpack(out, false)
			if err != nil {
				return nil, NewEncodingError(op.String(), fmt.Sprintf("unparseable directory output %q", out))
			}
			for i, name := range names {
				if i > 0 {
					b.WriteByte(',')
				}
				v, err := hostValue(name, mode)
				if err != nil {
					return nil, err
				}
				b.Write(v)
			}
		}
		b.WriteString(`]}`)
		return b.Bytes(), nil

	default:
		// Void operations: set, kill, unlock, merge, procedure.
		return json.RawMessage(`{}`), nil
	}
}

// hostValue renders one engine token as a host JSON literal. Canonical
// mode infers the type through the classifier; strict mode trusts the
// caller's typing and emits an explicit JSON string.
func hostValue(tok string, mode codec.Mode) ([]byte, error) {
	if mode == codec.Canonical {
		return []byte(codec.DecodeOutput(tok, codec.Canonical)), nil
	}
	return codec.JSONString(tok)
}

func wrapResult(v []byte) json.RawMessage {
	out := make([]byte, 0, len(v)+11)
	out = append(out, `{"result":`...)
	out = append(out, v...)
	out = append(out, '}')
	return out
}
