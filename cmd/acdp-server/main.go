// Command acdp-server is a thin stdlib net/http wiring demo: it constructs
// the orchestrator, store, and ID-JAG validator and exposes the spec's
// issuance, verification, and delegation contracts as JSON endpoints. The
// HTTP transport itself is not a specified component; this binary exists
// for integration testing the contracts end to end.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/config"
	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/delegation"
	"github.com/acdp/acdp-core/pkg/idjag"
	"github.com/acdp/acdp-core/pkg/mac"
	"github.com/acdp/acdp-core/pkg/store"
	"github.com/acdp/acdp-core/pkg/store/memstore"
	"github.com/acdp/acdp-core/pkg/store/sqlitestore"
	"github.com/acdp/acdp-core/pkg/verify"
)

func main() {
	configPath := flag.String("config", "", "Path to gateway.yaml (empty uses built-in defaults)")
	dbPath := flag.String("db", ":memory:", "sqlite database path, used when -backend=sqlite")
	backend := flag.String("backend", "sqlite", "store backend: sqlite or memory (process-local, no persistence, pkg/ledger-backed replay detection)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	st, err := openStore(*backend, *dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	signingKey, err := cfg.SigningKey()
	if err != nil {
		log.Printf("no configured signing_key, generating an ephemeral one: %v", err)
		_, sk, genErr := ed25519.GenerateKey(rand.Reader)
		if genErr != nil {
			log.Fatalf("generate ephemeral signing key: %v", genErr)
		}
		signingKey = sk
	}
	issuer := credential.NewIssuerHandle(signingKey)

	macKey, err := mac.GenerateKeyPair(rand.Reader)
	if err != nil {
		log.Fatalf("generate MAC key: %v", err)
	}

	validator := idjag.Validator(denyAllValidator{})
	if cfg.IDPBaseURL != "" {
		validator = idjag.NewJWTValidator(cfg.IDPBaseURL+"/.well-known/jwks.json", cfg.IDPJWKSRefresh)
	}

	orch := verify.New(st, issuer, verify.NewMetrics(nil))
	issuance := &verify.IssuanceService{Store: st, Validator: validator, Issuer: issuer, MACKey: macKey, Audience: cfg.GatewayIssuerURL}
	delegationSvc := &verify.DelegationService{Store: st, Issuer: issuer, MACKey: macKey}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/issue", handleIssue(issuance))
	mux.HandleFunc("/v1/verify", handleVerify(orch))
	mux.HandleFunc("/v1/delegate", handleDelegate(delegationSvc))

	addr := cfg.BindAddr
	log.Printf("acdp-server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// openStore picks the store.Store backend named by backend. "memory" never
// touches disk and serializes all access behind one mutex (pkg/store/memstore,
// backed by pkg/ledger.InMemory for replay detection) — useful for demos and
// integration tests that shouldn't depend on cgo-free sqlite being wired up;
// "sqlite" is the default persistent single-process backend.
func openStore(backend, dbPath string) (store.Store, error) {
	switch backend {
	case "memory":
		return memstore.New(0), nil
	case "sqlite":
		return sqlitestore.Open(dbPath)
	default:
		return nil, fmt.Errorf("unknown -backend %q (want sqlite or memory)", backend)
	}
}

// denyAllValidator rejects every token; it is the fail-closed default when
// no idp_base_url is configured, so the issuance endpoint never silently
// accepts unauthenticated requests.
type denyAllValidator struct{}

func (denyAllValidator) Validate(ctx context.Context, bearerToken, expectedAudience string) (*idjag.Claims, error) {
	return nil, idjag.ErrInvalidToken
}

func decodeHexKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func decodeHexPrivateKey(s string) (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("want %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return ed25519.PrivateKey(raw), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// issueRequestBody mirrors spec.md §6.1's JSON body.
type issueRequestBody struct {
	AgentID        string                  `json:"agent_id"`
	AgentPublicKey string                  `json:"agent_public_key"`
	CredentialType string                  `json:"credential_type"`
	Capabilities   credential.Capabilities `json:"capabilities"`
	DurationDays   int                     `json:"duration_days"`
}

func handleIssue(svc *verify.IssuanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}
		bearer := r.Header.Get("Authorization")

		var body issueRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed_body")
			return
		}

		agentPub, err := decodeHexKey(body.AgentPublicKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed_agent_public_key")
			return
		}
		credType, err := parseCredentialType(body.CredentialType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_credential_type")
			return
		}

		result, err := svc.Issue(r.Context(), rand.Reader, verify.IssueRequest{
			BearerToken:    bearer,
			AgentID:        body.AgentID,
			AgentPublicKey: agentPub,
			CredentialType: credType,
			Capabilities:   body.Capabilities,
			DurationDays:   body.DurationDays,
			Now:            time.Now().UTC(),
		})
		if err != nil {
			writeVerifyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"credential":    result.Credential,
			"credential_id": result.CredentialID,
		})
	}
}

// verifyRequestBody mirrors spec.md §6.2's input.
type verifyRequestBody struct {
	Credential          *credential.Credential   `json:"credential"`
	Presentation        *credential.Presentation `json:"presentation,omitempty"`
	PresentationContext string                   `json:"presentation_context"`
	Nonce               uint64                   `json:"nonce"`
}

func handleVerify(orch *verify.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}
		var body verifyRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed_body")
			return
		}

		result, err := orch.Verify(r.Context(), verify.VerifyRequest{
			Credential:   body.Credential,
			Presentation: body.Presentation,
			Context:      body.PresentationContext,
			Nonce:        body.Nonce,
			Now:          time.Now().UTC(),
		})
		if err != nil {
			writeVerifyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// delegateRequestBody mirrors spec.md §6.3's input.
type delegateRequestBody struct {
	ParentCredentialID uuid.UUID               `json:"parent_credential_id"`
	ParentAgentKeyHex  string                  `json:"parent_agent_private_key"`
	AgentID            string                  `json:"agent_id"`
	AgentPublicKey     string                  `json:"agent_public_key"`
	CredentialType     string                  `json:"credential_type"`
	Capabilities       credential.Capabilities `json:"capabilities"`
	DurationDays       int                     `json:"duration_days"`
}

func handleDelegate(svc *verify.DelegationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}
		var body delegateRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed_body")
			return
		}

		agentPub, err := decodeHexKey(body.AgentPublicKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed_agent_public_key")
			return
		}
		parentAgentPriv, err := decodeHexPrivateKey(body.ParentAgentKeyHex)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed_parent_agent_key")
			return
		}
		credType, err := parseCredentialType(body.CredentialType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_credential_type")
			return
		}

		child, err := svc.Delegate(r.Context(), body.ParentCredentialID, parentAgentPriv, delegation.ChildRequest{
			AgentID:        body.AgentID,
			AgentPublicKey: agentPub,
			CredentialType: credType,
			Capabilities:   body.Capabilities,
			Duration:       time.Duration(body.DurationDays) * 24 * time.Hour,
		}, time.Now().UTC(), rand.Reader)
		if err != nil {
			writeVerifyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, child)
	}
}

func writeVerifyError(w http.ResponseWriter, err error) {
	var verr *verify.Error
	status := http.StatusInternalServerError
	msg := err.Error()
	if errors.As(err, &verr) {
		msg = verr.Kind.String() + " (" + verr.Code + ")"
		switch verr.Kind {
		case verify.InvalidToken:
			status = http.StatusUnauthorized
		case verify.InvalidRequest:
			status = http.StatusBadRequest
		case verify.DelegationInvalid, verify.RateLimitExceeded, verify.ReplayDetected,
			verify.CredentialExpired, verify.CredentialRevoked:
			status = http.StatusForbidden
		case verify.Timeout:
			status = http.StatusGatewayTimeout
		default:
			status = http.StatusInternalServerError
		}
	}
	writeError(w, status, msg)
}

func parseCredentialType(s string) (credential.Type, error) {
	switch s {
	case "identity_bound":
		return credential.IdentityBound, nil
	case "anonymous":
		return credential.Anonymous, nil
	case "hybrid":
		return credential.Hybrid, nil
	default:
		return 0, fmt.Errorf("unknown credential_type %q", s)
	}
}
