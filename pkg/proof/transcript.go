package proof

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/acdp/acdp-core/pkg/group"
)

// Transcript is a SHAKE-256 duplex sponge Fiat-Shamir transcript, per
// spec.md §4.3 "Transcript": initialized with a session identifier that
// includes the ACDP domain tag, the suite identifier, and (for
// presentations) the context hash, with every public input absorbed before
// any challenge is squeezed. No rewinding: Challenge consumes sponge state
// and callers never reset a Transcript mid-protocol.
type Transcript struct {
	sponge sha3.ShakeHash
}

// NewTranscript starts a transcript bound to domainTag (e.g.
// common.DSTPresentation).
func NewTranscript(domainTag string) *Transcript {
	t := &Transcript{sponge: sha3.NewShake256()}
	t.appendLabeled("domain", []byte(domainTag))
	return t
}

func (t *Transcript) appendLabeled(label string, data []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(label)))
	t.sponge.Write(lenBuf[:])
	t.sponge.Write([]byte(label))
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
	t.sponge.Write(lenBuf[:])
	t.sponge.Write(data)
}

// AppendPoint absorbs a public group element into the transcript.
func (t *Transcript) AppendPoint(label string, p group.Point) error {
	enc, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	t.appendLabeled(label, enc)
	return nil
}

// AppendScalar absorbs a public scalar into the transcript.
func (t *Transcript) AppendScalar(label string, s group.Scalar) error {
	enc, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	t.appendLabeled(label, enc)
	return nil
}

// AppendBytes absorbs arbitrary public bytes (e.g. a context hash or a
// small integer nonce) into the transcript.
func (t *Transcript) AppendBytes(label string, data []byte) {
	t.appendLabeled(label, data)
}

// Challenge squeezes a Fiat-Shamir challenge scalar. Squeezing again after
// this call advances the sponge and yields an independent value; callers
// that need more than one challenge out of a transcript rely on that.
func (t *Transcript) Challenge(label string) group.Scalar {
	t.appendLabeled("challenge-label", []byte(label))
	squeezed := make([]byte, 64)
	if _, err := t.sponge.Read(squeezed); err != nil {
		// sha3's Shake.Read never returns an error; this is unreachable but
		// kept so a future sponge implementation can't silently miscompute.
		panic("proof: transcript squeeze failed: " + err.Error())
	}
	return group.HashToScalar(label, squeezed)
}
