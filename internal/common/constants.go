package common

// SuiteID is the fixed suite identifier ACDP stamps into every transcript
// and hash-to-curve call, per spec §6.5.
const SuiteID = "ACDP-ARC-P256-v1"

// Domain-separation sub-tags, appended to SuiteID.
const (
	// DSTGeneratorG separates the derivation of the fixed generator G; pkg/mac
	// also uses it as the hash-to-scalar tag when deriving M2 from M2Seed.
	DSTGeneratorG = SuiteID + "-generator-G"

	// DSTGeneratorH separates the derivation of the fixed generator H.
	DSTGeneratorH = SuiteID + "-generator-H"

	// DSTIssueRequest separates the client's blinded-issuance request proof.
	DSTIssueRequest = SuiteID + "-issue-request"

	// DSTIssueResponse separates the server's blinded-issuance response proof.
	DSTIssueResponse = SuiteID + "-issue-response"

	// DSTPresentation separates the presentation proof transcript.
	DSTPresentation = SuiteID + "-presentation"

	// DSTPresentationTag separates the hash-to-curve derivation of a
	// presentation's per-context tag point.
	DSTPresentationTag = SuiteID + "-presentation-tag"
)

// M2Seed is the textual seed from which pkg/mac derives M2, the
// domain-fixed scalar mixed into every MAC equation as the second attribute
// slot (spec §3, §9 Open Question 1: this repo fixes m2 as a domain
// constant rather than a per-credential server-contributed scalar; see
// DESIGN.md for the rationale).
//
// The seed is built from the suite identifier, so every issuer and verifier
// built against this suite derive the same m2 without needing to exchange
// it.
const M2Seed = SuiteID + "-m2-domain-constant"

// DefaultNonceWindow is the chosen N for the nonce range [0, N) a server may
// assign per presentation (spec §9 Open Question 2). It must be >=
// max_presentations for every credential issued against it; the issuance
// orchestrator enforces that relationship at issuance time.
const DefaultNonceWindow = 4096
