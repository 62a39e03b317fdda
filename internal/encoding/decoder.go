package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/rotrigo/pkg/rdf"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm decodes an encoded term back to an rdf.Term.
// For terms where NeedsLookup is true, stringValue must be provided.
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, stringValue *string) (rdf.Term, error) {
	if encoded.NeedsLookup() && stringValue == nil {
		return nil, fmt.Errorf("string value required for %s term", encoded.Type())
	}

	switch encoded.Type() {
	case rdf.TermTypeNamedNode:
		return rdf.NewNamedNode(*stringValue), nil

	case rdf.TermTypeBlankNode:
		if stringValue != nil {
			return rdf.NewBlankNode(*stringValue), nil
		}
		return rdf.NewBlankNode(strconv.FormatUint(binary.BigEndian.Uint64(encoded[2:10]), 10)), nil

	case rdf.TermTypeStringLiteral:
		if stringValue != nil {
			return rdf.NewLiteral(*stringValue), nil
		}
		payload := encoded[2:]
		if end := bytes.IndexByte(payload, 0); end >= 0 {
			payload = payload[:end]
		}
		return rdf.NewLiteral(string(payload)), nil

	case rdf.TermTypeLangStringLiteral:
		at := strings.LastIndexByte(*stringValue, '@')
		if at < 0 {
			return nil, fmt.Errorf("malformed language-tagged literal %q", *stringValue)
		}
		return rdf.NewLiteralWithLanguage((*stringValue)[:at], (*stringValue)[at+1:]), nil

	case rdf.TermTypeTypedLiteral:
		sep := strings.LastIndex(*stringValue, "^^")
		if sep < 0 {
			return nil, fmt.Errorf("malformed typed literal %q", *stringValue)
		}
		return rdf.NewLiteralWithDatatype((*stringValue)[:sep], rdf.NewNamedNode((*stringValue)[sep+2:])), nil

	case rdf.TermTypeIntegerLiteral:
		value := int64(binary.BigEndian.Uint64(encoded[1:9]) ^ (1 << 63)) // #nosec G115 - intentional bit-pattern conversion for binary decoding
		return rdf.NewIntegerLiteral(value), nil

	case rdf.TermTypeBooleanLiteral:
		return rdf.NewBooleanLiteral(encoded[1] != 0), nil

	case rdf.TermTypeDefaultGraph:
		return rdf.NewDefaultGraph(), nil

	default:
		return nil, fmt.Errorf("unknown term type: %d", encoded[0])
	}
}
