package statements

import "fmt"

// CurationStatus records a human judgment on a piece of evidence. A
// "correct" curation pins the carrying statement's belief to 1; an
// "incorrect" curation pins it to a small epsilon. Both override the
// probabilistic scorer deterministically.
type CurationStatus string

const (
	CurationNone      CurationStatus = ""
	CurationCorrect   CurationStatus = "correct"
	CurationIncorrect CurationStatus = "incorrect"
)

// Epistemics qualifies the epistemic status of a piece of evidence as
// reported by its extraction source.
type Epistemics struct {
	// Hypothesis marks text asserting a hypothesis rather than a finding.
	Hypothesis bool `json:"hypothesis,omitempty"`
	// Negated marks evidence that the relation does NOT hold.
	Negated bool `json:"negated,omitempty"`
	// Direct marks a physically direct interaction.
	Direct bool `json:"direct,omitempty"`
}

// Evidence is one supporting extraction for a Statement: where it came
// from, the text span it was read from, and the extractor's own score.
type Evidence struct {
	SourceAPI   string            `json:"source_api"`
	SourceID    string            `json:"source_id,omitempty"`
	PMID        string            `json:"pmid,omitempty"`
	Text        string            `json:"text,omitempty"`
	Score       float64           `json:"score,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Epistemics  Epistemics        `json:"epistemics,omitempty"`
	Curation    CurationStatus    `json:"curation,omitempty"`
}

// MatchesKey identifies the evidence for deduplication when merging
// duplicate statements: the same source reporting the same span is one
// observation no matter how many raw statements carried it.
func (e *Evidence) MatchesKey() string {
	return fmt.Sprintf("(%s,%s,%s,%s,%t,%t)",
		e.SourceAPI, e.SourceID, e.PMID, e.Text,
		e.Epistemics.Hypothesis, e.Epistemics.Negated)
}

// Clone returns a copy of the evidence with its own annotation map.
func (e *Evidence) Clone() *Evidence {
	c := *e
	if e.Annotations != nil {
		c.Annotations = make(map[string]string, len(e.Annotations))
		for k, v := range e.Annotations {
			c.Annotations[k] = v
		}
	}
	return &c
}
