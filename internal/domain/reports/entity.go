package reports

import "encoding/json"

// Known JSON keys of a report record.
const (
	keySlug            = "slug"
	keyTitle           = "title"
	keyGithubRepo      = "github_repo"
	keyURL             = "url"
	keyExplanationPath = "explanationPath"
	keyHasExplanation  = "hasExplanation"
)

// Report is one audited project's findings summary.
//
// Only a handful of fields are interpreted; everything else coming from the
// records source is kept verbatim in Extra so the record can be written back
// out unchanged.
type Report struct {
	Slug       string
	Title      string
	GithubRepo string
	URL        string

	// Derived during enrichment. ExplanationPath is nil when no document matched.
	ExplanationPath *string
	HasExplanation  bool

	Extra map[string]json.RawMessage
}

// Match is a report picked for a free-text query together with its score.
type Match struct {
	Report Report  `json:"report"`
	Score  float64 `json:"score"`
}

// UnmarshalJSON accepts any JSON object. Known fields with a non-string value
// are treated as absent and kept in Extra.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Report{}
	for k, v := range raw {
		switch k {
		case keySlug, keyTitle, keyGithubRepo, keyURL:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				out.setExtra(k, v)
				continue
			}
			out.setKnown(k, s)
		case keyExplanationPath, keyHasExplanation:
			// recomputed on enrichment
		default:
			out.setExtra(k, v)
		}
	}
	*r = out
	return nil
}

// MarshalJSON writes the known fields merged with Extra.
func (r Report) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+6)
	for k, v := range r.Extra {
		m[k] = v
	}
	if r.Slug != "" {
		m[keySlug] = r.Slug
	}
	if r.Title != "" {
		m[keyTitle] = r.Title
	}
	if r.GithubRepo != "" {
		m[keyGithubRepo] = r.GithubRepo
	}
	if r.URL != "" {
		m[keyURL] = r.URL
	}
	m[keyExplanationPath] = r.ExplanationPath
	m[keyHasExplanation] = r.HasExplanation
	return json.Marshal(m)
}

func (r *Report) setKnown(key, value string) {
	switch key {
	case keySlug:
		r.Slug = value
	case keyTitle:
		r.Title = value
	case keyGithubRepo:
		r.GithubRepo = value
	case keyURL:
		r.URL = value
	}
}

func (r *Report) setExtra(key string, value json.RawMessage) {
	if r.Extra == nil {
		r.Extra = make(map[string]json.RawMessage)
	}
	r.Extra[key] = value
}
