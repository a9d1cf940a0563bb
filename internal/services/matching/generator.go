// Package matching implements the candidate generator: a pure,
// deterministic scoring pass that ranks catalog products against one
// document line using barcode, article, operator-rule and fuzzy-name
// signals. Nothing in this package touches storage.
package matching

import (
	"sort"
	"strings"

	"document-reconciliation-backend/internal/models"

	"github.com/google/uuid"
)

// Signal scores. Barcode is an exact identifier, article is near-exact,
// a rule is an operator shortcut, and fuzzy name fills the rest of the
// range below these.
const (
	ScoreBarcode = 1.0
	ScoreArticle = 0.95
	ScoreRule    = 0.9
)

// Rule synonyms shorter than this (normalized) never substring-match;
// one and two letter phrases over-match on almost any line name.
const minSynonymLen = 3

// Candidate is an ephemeral ranked suggestion; it is never persisted.
type Candidate struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Score     float64   `json:"score"`
	Source    string    `json:"source"`
}

// Options tunes the generator.
type Options struct {
	TopK            int
	NameScoreCutoff float64
}

// DefaultOptions mirrors the production defaults.
func DefaultOptions() Options {
	return Options{TopK: 8, NameScoreCutoff: 0.6}
}

// Generate ranks catalog products against one line. It is pure and
// deterministic for a fixed catalog/rule snapshot: when several
// signals nominate the same product only the highest-scoring one
// survives, ties are broken by catalog order, and at most TopK
// candidates are returned, sorted by descending score.
func Generate(line models.Line, catalog []models.Product, rules []models.MatchingRule, opts Options) []Candidate {
	if opts.TopK <= 0 {
		opts = DefaultOptions()
	}

	lineBarcode := strings.TrimSpace(line.Barcode)
	lineArticle := strings.TrimSpace(line.Article)
	lineName := Normalize(line.Name)

	best := make(map[uuid.UUID]Candidate)
	order := make(map[uuid.UUID]int)
	byID := make(map[uuid.UUID]*models.Product, len(catalog))

	consider := func(p *models.Product, score float64, source string) {
		cur, ok := best[p.ID]
		if ok && cur.Score >= score {
			return
		}
		best[p.ID] = Candidate{
			ProductID: p.ID,
			Name:      p.Name,
			Type:      p.Type,
			Score:     score,
			Source:    source,
		}
	}

	for i := range catalog {
		p := &catalog[i]
		byID[p.ID] = p
		order[p.ID] = i

		if lineBarcode != "" && strings.TrimSpace(p.Barcode) == lineBarcode {
			consider(p, ScoreBarcode, models.SourceBarcode)
		}
		if lineArticle != "" && p.Article != "" && strings.EqualFold(lineArticle, strings.TrimSpace(p.Article)) {
			consider(p, ScoreArticle, models.SourceArticle)
		}
		if sim := bestNameSimilarity(lineName, p); sim >= opts.NameScoreCutoff {
			consider(p, sim, models.SourceName)
		}
	}

	for _, r := range rules {
		if !ruleMatches(r, lineBarcode, lineArticle, lineName) {
			continue
		}
		// A rule resolves directly to its product; a product missing
		// from the catalog snapshot cannot be suggested.
		if p, ok := byID[r.ProductID]; ok {
			consider(p, ScoreRule, models.SourceRule)
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return order[out[i].ProductID] < order[out[j].ProductID]
	})
	if len(out) > opts.TopK {
		out = out[:opts.TopK]
	}
	return out
}

// bestNameSimilarity returns the best similarity between the
// normalized line name and the product's name or any of its synonyms.
func bestNameSimilarity(lineName string, p *models.Product) float64 {
	if lineName == "" {
		return 0
	}
	best := Similarity(lineName, Normalize(p.Name))
	for _, syn := range p.Synonyms {
		if s := Similarity(lineName, Normalize(syn)); s > best {
			best = s
		}
	}
	return best
}

func ruleMatches(r models.MatchingRule, lineBarcode, lineArticle, lineName string) bool {
	if r.Barcode != "" && lineBarcode != "" && strings.EqualFold(strings.TrimSpace(r.Barcode), lineBarcode) {
		return true
	}
	if r.Article != "" && lineArticle != "" && strings.EqualFold(strings.TrimSpace(r.Article), lineArticle) {
		return true
	}
	if syn := Normalize(r.Synonym); len([]rune(syn)) >= minSynonymLen && lineName != "" {
		if strings.Contains(lineName, syn) || strings.Contains(syn, lineName) {
			return true
		}
	}
	return false
}

// Disputed reports whether the two leading candidates disagree while
// both coming from high-confidence signals at close scores. Advisory
// only, computed at read time; never persisted.
func Disputed(cands []Candidate) bool {
	if len(cands) < 2 {
		return false
	}
	a, b := cands[0], cands[1]
	return a.Source != b.Source &&
		a.Score >= ScoreRule && b.Score >= ScoreRule &&
		a.Score-b.Score < 0.05
}
