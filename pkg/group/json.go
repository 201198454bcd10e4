package group

import "encoding/json"

// MarshalJSON encodes a Point as its 33-byte compressed affine form.
func (p Point) MarshalJSON() ([]byte, error) {
	enc, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(enc)
}

// UnmarshalJSON decodes a Point previously written by MarshalJSON.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw []byte
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := PointFromBytes(raw)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// MarshalJSON encodes a Scalar as its 32-byte big-endian form.
func (s Scalar) MarshalJSON() ([]byte, error) {
	enc, err := s.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(enc)
}

// UnmarshalJSON decodes a Scalar previously written by MarshalJSON.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var raw []byte
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := ScalarFromBytes(raw)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}
