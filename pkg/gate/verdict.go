// Package gate decides, per request, whether a query may reach retrieval.
//
// A RequestGate composes three checks and stops at the first failure:
//
//	RateGate       per-identity sliding window
//	QueryValidator ordered structural/injection rule list
//	AdversarialDetector first-match attack-family patterns
//
// Denials are ordinary Verdict values, never errors.
package gate

import (
	"fmt"

	"github.com/calque-ai/ragate/pkg/audit"
)

// Identity is an opaque requester key. It only groups rate-limit and audit state.
type Identity string

// Reason says which check denied a request.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRateLimited
	ReasonInvalidQuery
	ReasonAdversarial
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonRateLimited:
		return "rate_limited"
	case ReasonInvalidQuery:
		return "invalid_query"
	case ReasonAdversarial:
		return "adversarial"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Severity grades a verdict for audit consumers.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

func (s Severity) audit() audit.Severity {
	switch s {
	case SeverityMedium:
		return audit.SeverityMedium
	case SeverityHigh:
		return audit.SeverityHigh
	default:
		return audit.SeverityLow
	}
}

// Verdict is the outcome of RequestGate.Evaluate. It is produced fresh for
// every request and never stored by the gate.
type Verdict struct {
	Admitted bool
	Reason   Reason
	Severity Severity
	Detail   string

	// Rule is the validator rule that fired, for ReasonInvalidQuery.
	Rule string

	// Family, Pattern and Confidence describe the match, for ReasonAdversarial.
	Family     string
	Pattern    string
	Confidence float64
}

// Admit returns the admitted verdict.
func Admit() Verdict {
	return Verdict{Admitted: true, Reason: ReasonNone, Severity: SeverityLow}
}

// Deny builds a denial verdict.
func Deny(reason Reason, severity Severity, detail string) Verdict {
	return Verdict{Reason: reason, Severity: severity, Detail: detail}
}

func (v Verdict) String() string {
	if v.Admitted {
		return "Admitted"
	}
	return fmt.Sprintf("Denied(%s, %s, %q)", v.Reason, v.Severity, v.Detail)
}

func (v Verdict) eventType() audit.EventType {
	switch v.Reason {
	case ReasonRateLimited:
		return audit.EventRateLimitExceeded
	case ReasonInvalidQuery:
		return audit.EventInvalidQuery
	case ReasonAdversarial:
		return audit.EventAdversarialDetected
	default:
		return audit.EventQueryAdmitted
	}
}
