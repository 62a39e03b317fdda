package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/aleksaelezovic/rotrigo/pkg/rdf"
)

const (
	// Maximum size for inline strings (16 bytes of UTF-8)
	MaxInlineStringSize = 16

	// Encoded term size (type byte + 16 bytes for 128-bit hash or inline data)
	EncodedTermSize = 17
)

// EncodedTerm is a term encoded as a type byte followed by 16 bytes of either
// inline data or a 128-bit xxh3 hash of the lexical form. The zero value is
// never produced by the encoder.
type EncodedTerm [EncodedTermSize]byte

// IsZero reports whether e is the zero value
func (e EncodedTerm) IsZero() bool {
	return e == EncodedTerm{}
}

// Type extracts the term type from an encoded term
func (e EncodedTerm) Type() rdf.TermType {
	return rdf.TermType(e[0])
}

// NeedsLookup reports whether the term's lexical form is hashed and must be
// resolved through a string table to be decoded.
func (e EncodedTerm) NeedsLookup() bool {
	switch e.Type() {
	case rdf.TermTypeNamedNode, rdf.TermTypeLangStringLiteral, rdf.TermTypeTypedLiteral:
		return true
	case rdf.TermTypeBlankNode, rdf.TermTypeStringLiteral:
		return e[1] == hashedMarker
	default:
		return false
	}
}

// String renders a short, stable, non-reversible form for logs and dot labels.
func (e EncodedTerm) String() string {
	if e.IsZero() {
		return "*"
	}
	return fmt.Sprintf("%s:%x", e.Type(), e[1:7])
}

// Compare orders encoded terms bytewise: first by type, then by payload.
// It is a total order consistent with equality.
func Compare(a, b EncodedTerm) int {
	return bytes.Compare(a[:], b[:])
}

// Markers distinguishing inline payloads from hashed ones for blank nodes and
// plain strings, which can be either.
const (
	inlineMarker = 0x00
	hashedMarker = 0x01
)

// TermEncoder encodes RDF terms into fixed-size comparable identifiers
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term. The returned string, when not nil, is the
// lexical form that has to be kept in a string table to decode the term again.
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, *string, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return e.hashed(rdf.TermTypeNamedNode, t.IRI)
	case *rdf.BlankNode:
		return e.encodeBlankNode(t)
	case *rdf.Literal:
		return e.encodeLiteral(t)
	case *rdf.DefaultGraph:
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeDefaultGraph)
		return encoded, nil, nil
	default:
		return EncodedTerm{}, nil, fmt.Errorf("unknown term type: %T", term)
	}
}

func (e *TermEncoder) hashed(termType rdf.TermType, lexical string) (EncodedTerm, *string, error) {
	var encoded EncodedTerm
	encoded[0] = byte(termType)
	hash := e.Hash128(lexical)
	copy(encoded[1:], hash[:])
	return encoded, &lexical, nil
}

func (e *TermEncoder) encodeBlankNode(node *rdf.BlankNode) (EncodedTerm, *string, error) {
	if num, err := strconv.ParseUint(node.ID, 10, 64); err == nil && strconv.FormatUint(num, 10) == node.ID {
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeBlankNode)
		encoded[1] = inlineMarker
		binary.BigEndian.PutUint64(encoded[2:10], num)
		return encoded, nil, nil
	}
	return e.hashedWithMarker(rdf.TermTypeBlankNode, node.ID)
}

// hashedWithMarker hashes into 15 bytes and tags the payload so it can never
// collide with an inline payload of the same type.
func (e *TermEncoder) hashedWithMarker(termType rdf.TermType, lexical string) (EncodedTerm, *string, error) {
	var encoded EncodedTerm
	encoded[0] = byte(termType)
	encoded[1] = hashedMarker
	hash := e.Hash128(lexical)
	copy(encoded[2:], hash[:EncodedTermSize-2])
	return encoded, &lexical, nil
}

func (e *TermEncoder) encodeLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	if lit.Language != "" {
		return e.hashed(rdf.TermTypeLangStringLiteral, lit.Value+"@"+lit.Language)
	}
	if lit.Datatype == nil || lit.Datatype.IRI == rdf.XSDString.IRI {
		return e.encodeStringLiteral(lit.Value)
	}

	switch lit.Datatype.IRI {
	case rdf.XSDInteger.IRI:
		if value, err := strconv.ParseInt(lit.Value, 10, 64); err == nil && strconv.FormatInt(value, 10) == lit.Value {
			var encoded EncodedTerm
			encoded[0] = byte(rdf.TermTypeIntegerLiteral)
			// Flipping the sign bit makes bytewise order match numeric order.
			binary.BigEndian.PutUint64(encoded[1:9], uint64(value)^(1<<63)) // #nosec G115 - intentional bit-pattern conversion for binary encoding
			return encoded, nil, nil
		}
	case rdf.XSDBoolean.IRI:
		if lit.Value == "true" || lit.Value == "false" {
			var encoded EncodedTerm
			encoded[0] = byte(rdf.TermTypeBooleanLiteral)
			if lit.Value == "true" {
				encoded[1] = 1
			}
			return encoded, nil, nil
		}
	}

	// Non-canonical or other typed literals keep their lexical form.
	return e.hashed(rdf.TermTypeTypedLiteral, lit.Value+"^^"+lit.Datatype.IRI)
}

func (e *TermEncoder) encodeStringLiteral(value string) (EncodedTerm, *string, error) {
	if len(value) < MaxInlineStringSize && !bytes.ContainsRune([]byte(value), 0) {
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeStringLiteral)
		encoded[1] = inlineMarker
		copy(encoded[2:], value)
		return encoded, nil, nil
	}
	return e.hashedWithMarker(rdf.TermTypeStringLiteral, value)
}

// EncodeQuadKey concatenates encoded terms into a key that sorts
// lexicographically in component order
func (e *TermEncoder) EncodeQuadKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// DecodeQuadKey splits a key produced by EncodeQuadKey back into its terms
func DecodeQuadKey(key []byte) ([]EncodedTerm, error) {
	if len(key)%EncodedTermSize != 0 {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}
	terms := make([]EncodedTerm, len(key)/EncodedTermSize)
	for i := range terms {
		copy(terms[i][:], key[i*EncodedTermSize:(i+1)*EncodedTermSize])
	}
	return terms, nil
}
