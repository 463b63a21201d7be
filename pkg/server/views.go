package server

import (
	"time"

	"github.com/calque-ai/ragate/pkg/audit"
	"github.com/calque-ai/ragate/pkg/gate"
	"github.com/calque-ai/ragate/pkg/pipeline"
)

// QueryRequest is the POST /v1/query body.
type QueryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k" binding:"gte=0,lte=100"`
}

// VerdictView is the JSON form of a gate verdict. Denial fields are empty for
// admitted requests.
type VerdictView struct {
	Query      string  `json:"query"`
	Identity   string  `json:"identity"`
	Admitted   bool    `json:"admitted"`
	Reason     string  `json:"reason,omitempty"`
	Severity   string  `json:"severity,omitempty"`
	Detail     string  `json:"detail,omitempty"`
	Rule       string  `json:"rule,omitempty"`
	Family     string  `json:"family,omitempty"`
	Pattern    string  `json:"pattern,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

func NewVerdictView(query string, identity gate.Identity, v gate.Verdict) VerdictView {
	out := VerdictView{Query: query, Identity: string(identity), Admitted: v.Admitted}
	if !v.Admitted {
		out.Reason = v.Reason.String()
		out.Severity = v.Severity.String()
		out.Detail = v.Detail
		out.Rule = v.Rule
		out.Family = v.Family
		out.Pattern = v.Pattern
		out.Confidence = v.Confidence
	}
	return out
}

// PassageView is one ranked passage.
type PassageView struct {
	Rank       int               `json:"rank"`
	SourceID   string            `json:"source_id"`
	Similarity float64           `json:"similarity"`
	Quality    float64           `json:"quality"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// QueryResponse is the JSON form of a pipeline Outcome.
type QueryResponse struct {
	RequestID string        `json:"request_id"`
	Verdict   VerdictView   `json:"verdict"`
	Passages  []PassageView `json:"passages"`
	Fetched   int           `json:"fetched"`
	Relevant  int           `json:"relevant"`
	Diverse   int           `json:"diverse"`
	TimedOut  bool          `json:"timed_out,omitempty"`
	ElapsedMS float64       `json:"elapsed_ms"`
}

func NewQueryResponse(req pipeline.Request, out *pipeline.Outcome) QueryResponse {
	r := QueryResponse{
		RequestID: out.RequestID,
		Verdict:   NewVerdictView(req.Query, req.Identity, out.Verdict),
		Passages:  []PassageView{},
		ElapsedMS: float64(out.Elapsed.Microseconds()) / 1000,
	}
	if res := out.Result; res != nil {
		r.Fetched, r.Relevant, r.Diverse, r.TimedOut = res.Fetched, res.Relevant, res.Diverse, res.TimedOut
		for _, c := range res.Candidates {
			r.Passages = append(r.Passages, PassageView{
				Rank:       c.Rank,
				SourceID:   c.SourceID,
				Similarity: c.Similarity(),
				Quality:    c.Quality,
				Content:    c.Content,
				Metadata:   c.Metadata,
			})
		}
	}
	return r
}

// SecurityStats is the GET /v1/security-stats body.
type SecurityStats struct {
	Status       string        `json:"status"`
	Metrics      audit.Stats   `json:"metrics"`
	RecentEvents []audit.Event `json:"recent_events"`
	Timestamp    time.Time     `json:"timestamp"`
}

// ErrorResponse is returned for malformed requests and retrieval faults.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
