package reports

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// DeriveSlug returns the record's slug, or builds one from title, github_repo
// or url (first that yields something), falling back to "report-<n>" where n
// is the 1-based position in the source. Uniqueness is not enforced.
func DeriveSlug(r Report, index int) string {
	if s := strings.TrimSpace(r.Slug); s != "" {
		return s
	}
	for _, v := range []string{r.Title, r.GithubRepo, r.URL} {
		if s := Slugify(v); s != "" {
			return s
		}
	}
	return fmt.Sprintf("report-%d", index+1)
}

// Candidates lists the raw strings that may identify r, deduplicated and in
// discovery order.
func Candidates(r Report, slug string) []string {
	var set candidateSet

	set.add(slug)
	set.add(r.Title)

	if repo := r.GithubRepo; repo != "" {
		set.add(repo)
		if strings.Contains(repo, "/") {
			set.add(lastSegment(repo))
		}
	}

	if raw := r.URL; raw != "" {
		set.add(raw)
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
			if file := lastSegment(u.Path); file != "" {
				set.add(file)
				set.add(strings.TrimSuffix(file, path.Ext(file)))
			}
		}
	}

	return set.items
}

func lastSegment(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

type candidateSet struct {
	items []string
	seen  map[string]struct{}
}

func (c *candidateSet) add(s string) {
	if s == "" {
		return
	}
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[s]; ok {
		return
	}
	c.seen[s] = struct{}{}
	c.items = append(c.items, s)
}
