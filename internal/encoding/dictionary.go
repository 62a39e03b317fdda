package encoding

import (
	"fmt"

	"github.com/aleksaelezovic/rotrigo/pkg/rdf"
)

// Dictionary is an in-memory string table pairing a TermEncoder with the
// lexical forms it hashed, so encoded terms can be decoded without a store.
// It is not safe for concurrent writes.
type Dictionary struct {
	encoder *TermEncoder
	decoder *TermDecoder
	strings map[EncodedTerm]string
}

func NewDictionary() *Dictionary {
	return &Dictionary{
		encoder: NewTermEncoder(),
		decoder: NewTermDecoder(),
		strings: make(map[EncodedTerm]string),
	}
}

// Encode encodes term and remembers its lexical form when needed
func (d *Dictionary) Encode(term rdf.Term) (EncodedTerm, error) {
	encoded, str, err := d.encoder.EncodeTerm(term)
	if err != nil {
		return EncodedTerm{}, err
	}
	if str != nil {
		d.strings[encoded] = *str
	}
	return encoded, nil
}

// MustEncode is Encode for terms known to be encodable, such as constants
func (d *Dictionary) MustEncode(term rdf.Term) EncodedTerm {
	encoded, err := d.Encode(term)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Decode returns the term for an encoded value produced by this dictionary
func (d *Dictionary) Decode(encoded EncodedTerm) (rdf.Term, error) {
	var stringValue *string
	if encoded.NeedsLookup() {
		str, ok := d.strings[encoded]
		if !ok {
			return nil, fmt.Errorf("no lexical form recorded for %s", encoded)
		}
		stringValue = &str
	}
	return d.decoder.DecodeTerm(encoded, stringValue)
}

// Len returns the number of recorded lexical forms
func (d *Dictionary) Len() int {
	return len(d.strings)
}
