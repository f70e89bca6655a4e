package store

import (
	"fmt"

	"github.com/dgallion1/gedgest/internal/gedcom"
	"github.com/dgallion1/gedgest/internal/gedtree"
	"github.com/fxamacker/cbor/v2"
)

// payloadVersion is bumped whenever the blob layout changes incompatibly.
const payloadVersion = 1

type payload struct {
	Version     int                 `cbor:"1,keyasint"`
	Document    *gedtree.Document   `cbor:"2,keyasint"`
	Diagnostics []gedcom.Diagnostic `cbor:"3,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

func marshalPayload(doc *gedtree.Document, diags []gedcom.Diagnostic) ([]byte, error) {
	data, err := cborEncMode.Marshal(payload{Version: payloadVersion, Document: doc, Diagnostics: diags})
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

func unmarshalPayload(data []byte) (*gedtree.Document, []gedcom.Diagnostic, error) {
	var p payload
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, nil, fmt.Errorf("decode payload: %w", err)
	}
	if p.Version != payloadVersion {
		return nil, nil, fmt.Errorf("unsupported payload version %d", p.Version)
	}
	if p.Document == nil {
		p.Document = &gedtree.Document{}
	}
	return p.Document, p.Diagnostics, nil
}
