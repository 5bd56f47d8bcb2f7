package reports

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_UnmarshalKeepsExtra(t *testing.T) {
	data := `{"title":"Vault","github_repo":"org/vault","severity":{"high":2},"slug":42,"hasExplanation":true}`

	var r Report
	require.NoError(t, json.Unmarshal([]byte(data), &r))

	assert.Equal(t, "Vault", r.Title)
	assert.Equal(t, "org/vault", r.GithubRepo)
	assert.Empty(t, r.Slug, "non-string slug is treated as absent")
	assert.False(t, r.HasExplanation, "derived fields are not read from input")
	assert.JSONEq(t, `{"high":2}`, string(r.Extra["severity"]))
	assert.JSONEq(t, `42`, string(r.Extra["slug"]))
}

func TestReport_MarshalRoundTrip(t *testing.T) {
	var r Report
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Vault","auditor":"acme","findings":3}`), &r))

	path := "/docs/vault.md"
	r.Slug = "vault"
	r.ExplanationPath = &path
	r.HasExplanation = true

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"slug":"vault",
		"title":"Vault",
		"auditor":"acme",
		"findings":3,
		"explanationPath":"/docs/vault.md",
		"hasExplanation":true
	}`, string(out))
}

func TestReport_MarshalNullExplanation(t *testing.T) {
	out, err := json.Marshal(Report{Slug: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"slug":"x","explanationPath":null,"hasExplanation":false}`, string(out))
}

func TestReport_UnmarshalRejectsNonObject(t *testing.T) {
	var r Report
	assert.Error(t, json.Unmarshal([]byte(`"just a string"`), &r))
}
