package proof

import (
	"encoding/binary"
	"sort"

	"github.com/acdp/acdp-core/pkg/group"
)

// MarshalBinary encodes a SigmaProof as:
//
//	challenge (32 bytes) || count (4 bytes) ||
//	count * (witness-name-len (2 bytes) || witness-name || response (32 bytes))
//
// Responses are written in sorted witness-name order so the encoding is
// deterministic regardless of map iteration order.
func (sp *SigmaProof) MarshalBinary() ([]byte, error) {
	challengeBytes, err := sp.Challenge.MarshalBinary()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(sp.Responses))
	for name := range sp.Responses {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]byte, 0, len(challengeBytes)+4+len(names)*(2+32))
	out = append(out, challengeBytes...)

	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(names)))
	out = append(out, countBuf[:]...)

	for _, name := range names {
		respBytes, err := sp.Responses[name].MarshalBinary()
		if err != nil {
			return nil, err
		}
		var nameLenBuf [2]byte
		binary.BigEndian.PutUint16(nameLenBuf[:], uint16(len(name)))
		out = append(out, nameLenBuf[:]...)
		out = append(out, name...)
		out = append(out, respBytes...)
	}
	return out, nil
}

// UnmarshalSigmaProof decodes a SigmaProof previously written by
// MarshalBinary.
func UnmarshalSigmaProof(data []byte) (*SigmaProof, error) {
	if len(data) < 32+4 {
		return nil, &Error{Kind: "Malformed", Err: ErrMalformed}
	}
	challenge, err := group.ScalarFromBytes(data[:32])
	if err != nil {
		return nil, &Error{Kind: "Malformed", Err: err}
	}
	rest := data[32:]
	count := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]

	responses := make(map[string]group.Scalar, count)
	for i := uint32(0); i < count; i++ {
		if len(rest) < 2 {
			return nil, &Error{Kind: "Malformed", Err: ErrMalformed}
		}
		nameLen := int(binary.BigEndian.Uint16(rest[:2]))
		rest = rest[2:]
		if len(rest) < nameLen+32 {
			return nil, &Error{Kind: "Malformed", Err: ErrMalformed}
		}
		name := string(rest[:nameLen])
		rest = rest[nameLen:]
		resp, err := group.ScalarFromBytes(rest[:32])
		if err != nil {
			return nil, &Error{Kind: "Malformed", Err: err}
		}
		rest = rest[32:]
		responses[name] = resp
	}

	return &SigmaProof{Challenge: challenge, Responses: responses}, nil
}
