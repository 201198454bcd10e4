//go:build js && wasm

// Package main provides WebAssembly bindings for ACDP's agent-side
// presentation flow: an agent holding a credential and its private m1
// attribute can randomize and verify ARC presentations entirely in its own
// process, so m1 never needs to leave a browser or edge sandbox even when
// the agent itself runs there.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/group"
)

// Initialize registers the ACDP WASM bindings on the global object.
func Initialize() {
	js.Global().Set("ACDP", js.ValueOf(
		map[string]interface{}{
			"version":              js.FuncOf(Version),
			"generatePresentation": js.FuncOf(GeneratePresentation),
			"verifyPresentation":   js.FuncOf(VerifyPresentation),
		},
	))
}

func errorResponse(err error) map[string]interface{} {
	return map[string]interface{}{
		"error":   true,
		"message": err.Error(),
	}
}

// Version reports the binding's build identity.
func Version(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(map[string]interface{}{
		"version": "acdp-wasm-1",
	})
}

// GeneratePresentation builds a randomized ARC presentation for an agent's
// credential. JS arguments: credentialJSON (string), m1Hex (string, the
// agent's private ARC attribute), context (string), nonce (number).
// Returns {presentationJSON} or {error, message}.
func GeneratePresentation(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(errorResponse(fmt.Errorf("expected (credentialJSON, m1Hex, context, nonce)")))
	}

	var cred credential.Credential
	if err := json.Unmarshal([]byte(args[0].String()), &cred); err != nil {
		return js.ValueOf(errorResponse(fmt.Errorf("parse credential: %w", err)))
	}

	m1Bytes, err := hex.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf(errorResponse(fmt.Errorf("decode m1: %w", err)))
	}
	m1, err := group.ScalarFromBytes(m1Bytes)
	if err != nil {
		return js.ValueOf(errorResponse(fmt.Errorf("parse m1: %w", err)))
	}

	context := args[2].String()
	nonce := uint64(args[3].Int())

	presentation, err := credential.Generate(&cred, m1, context, nonce, rand.Reader)
	if err != nil {
		return js.ValueOf(errorResponse(fmt.Errorf("generate presentation: %w", err)))
	}

	data, err := json.Marshal(presentation)
	if err != nil {
		return js.ValueOf(errorResponse(fmt.Errorf("encode presentation: %w", err)))
	}

	return js.ValueOf(map[string]interface{}{
		"error":            false,
		"presentationJSON": string(data),
	})
}

// VerifyPresentation checks a presentation against its credential, without
// touching the gateway's replay ledger or delegation chain — those are the
// gateway's responsibility, not something an agent can check locally. JS
// arguments: credentialJSON (string), presentationJSON (string), context
// (string). Returns {error, valid, message}.
func VerifyPresentation(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(errorResponse(fmt.Errorf("expected (credentialJSON, presentationJSON, context)")))
	}

	var cred credential.Credential
	if err := json.Unmarshal([]byte(args[0].String()), &cred); err != nil {
		return js.ValueOf(errorResponse(fmt.Errorf("parse credential: %w", err)))
	}

	var presentation credential.Presentation
	if err := json.Unmarshal([]byte(args[1].String()), &presentation); err != nil {
		return js.ValueOf(errorResponse(fmt.Errorf("parse presentation: %w", err)))
	}

	context := args[2].String()

	if err := credential.Verify(&cred, &presentation, context); err != nil {
		return js.ValueOf(map[string]interface{}{
			"error":   false,
			"valid":   false,
			"message": err.Error(),
		})
	}

	return js.ValueOf(map[string]interface{}{
		"error": false,
		"valid": true,
	})
}
