package services

import (
	"fmt"
	"strings"

	"bizinsight-api/pkg/models"
)

// NormalizerOptions tunes column role inference.
type NormalizerOptions struct {
	Threshold            float64  // alias similarity must be strictly greater
	NumericFallbackRatio float64  // share of sampled values that must parse as numbers
	NumericSampleSize    int      // non-empty values sampled per column
	IdentifierTokens     []string // header tokens that disqualify a column from the numeric fallback
}

// SchemaNormalizer maps loosely named header columns to canonical roles.
type SchemaNormalizer struct {
	tables []models.RoleAliases
	opts   NormalizerOptions
}

func NewSchemaNormalizer(tables []models.RoleAliases, opts NormalizerOptions) *SchemaNormalizer {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.75
	}
	if opts.NumericFallbackRatio <= 0 {
		opts.NumericFallbackRatio = 0.8
	}
	if opts.NumericSampleSize <= 0 {
		opts.NumericSampleSize = 50
	}
	return &SchemaNormalizer{tables: tables, opts: opts}
}

// Resolve infers the role map for table. overrides pin a role to an exact header column
// and take precedence over inference. When a required role stays unresolved the partial
// map is returned together with a *models.SchemaUnresolvedError.
func (sn *SchemaNormalizer) Resolve(table *models.Table, overrides map[models.Role]string) (models.ColumnRoleMap, error) {
	result := models.ColumnRoleMap{
		Header: table.Header,
		Roles:  make(map[models.Role]models.ColumnResolution, len(sn.tables)),
	}

	claimed := make(map[string]bool, len(table.Header))
	pinned, err := sn.applyOverrides(table.Header, overrides)
	if err != nil {
		return result, err
	}
	for _, col := range pinned {
		claimed[col] = true
	}

	for _, rt := range sn.tables {
		if col, ok := pinned[rt.Role]; ok {
			result.Roles[rt.Role] = models.ColumnResolution{
				Role: rt.Role, Column: col, Resolved: true, Required: rt.Required,
				Source: models.SourceOverride, Similarity: 1,
			}
			continue
		}

		res := sn.resolveRole(rt, table, claimed)
		if res.Resolved {
			claimed[res.Column] = true
		}
		result.Roles[rt.Role] = res
	}

	if missing := result.Unresolved(); len(missing) > 0 {
		return result, &models.SchemaUnresolvedError{Roles: missing, Columns: result}
	}
	return result, nil
}

// applyOverrides validates caller-supplied columns against the header.
func (sn *SchemaNormalizer) applyOverrides(header []string, overrides map[models.Role]string) (map[models.Role]string, error) {
	pinned := make(map[models.Role]string, len(overrides))
	used := make(map[string]models.Role, len(overrides))
	for role, col := range overrides {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if !sn.knowsRole(role) {
			return nil, fmt.Errorf("%w: unknown role %q", models.ErrInvalidOverride, role)
		}
		match := ""
		for _, h := range header {
			if h == col {
				match = h
				break
			}
		}
		if match == "" {
			for _, h := range header {
				if strings.EqualFold(h, col) {
					match = h
					break
				}
			}
		}
		if match == "" {
			return nil, fmt.Errorf("%w: column %q for role %s is not in the header", models.ErrInvalidOverride, col, role)
		}
		if other, dup := used[match]; dup {
			return nil, fmt.Errorf("%w: column %q chosen for both %s and %s", models.ErrInvalidOverride, match, other, role)
		}
		used[match] = role
		pinned[role] = match
	}
	return pinned, nil
}

func (sn *SchemaNormalizer) knowsRole(role models.Role) bool {
	for _, rt := range sn.tables {
		if rt.Role == role {
			return true
		}
	}
	return false
}

func (sn *SchemaNormalizer) resolveRole(rt models.RoleAliases, table *models.Table, claimed map[string]bool) models.ColumnResolution {
	res := models.ColumnResolution{Role: rt.Role, Required: rt.Required}

	// Alias pass: first alias with an accepted header wins; the best score at that alias,
	// earliest column on ties. Identifier columns only match aliases naming the identifier.
	for _, alias := range rt.Aliases {
		bestIdx, bestScore := -1, 0.0
		for i, h := range table.Header {
			if claimed[h] || sn.identifierMismatch(h, alias) {
				continue
			}
			score := headerSimilarity(h, alias)
			if score > sn.opts.Threshold && score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		if bestIdx >= 0 {
			res.Column = table.Header[bestIdx]
			res.Resolved = true
			res.Source = models.SourceAlias
			res.MatchedAlias = alias
			res.Similarity = bestScore
			return res
		}
	}

	// Keyword pass: first header in column order holding a keyword token.
	for _, h := range table.Header {
		if claimed[h] {
			continue
		}
		for _, kw := range rt.Keywords {
			if hasToken(h, kw) && !sn.identifierMismatch(h, kw) {
				res.Column = h
				res.Resolved = true
				res.Source = models.SourceKeyword
				res.MatchedAlias = kw
				return res
			}
		}
	}

	if rt.Role == models.RoleRevenue {
		if col, ratio, ok := sn.numericFallback(table, claimed); ok {
			res.Column = col
			res.Resolved = true
			res.Source = models.SourceNumericFallback
			res.Similarity = ratio
		}
	}
	return res
}

// numericFallback picks the first unclaimed, non-identifier column whose sampled values are mostly numeric.
func (sn *SchemaNormalizer) numericFallback(table *models.Table, claimed map[string]bool) (string, float64, bool) {
	for i, h := range table.Header {
		if claimed[h] || sn.isIdentifier(h) {
			continue
		}
		sampled, numeric := 0, 0
		for _, row := range table.Rows {
			if sampled >= sn.opts.NumericSampleSize {
				break
			}
			if i >= len(row.Cells) || strings.TrimSpace(row.Cells[i]) == "" {
				continue
			}
			sampled++
			if _, err := ParseRevenue(row.Cells[i]); err == nil {
				numeric++
			}
		}
		if sampled == 0 {
			continue
		}
		ratio := float64(numeric) / float64(sampled)
		if ratio >= sn.opts.NumericFallbackRatio {
			return h, ratio, true
		}
	}
	return "", 0, false
}

func (sn *SchemaNormalizer) isIdentifier(header string) bool {
	for _, tok := range sn.opts.IdentifierTokens {
		if hasToken(header, tok) {
			return true
		}
	}
	return false
}

// identifierMismatch reports whether header carries an identifier token that candidate lacks,
// so "Product ID" never matches the alias "product" but does match "product id".
func (sn *SchemaNormalizer) identifierMismatch(header, candidate string) bool {
	for _, tok := range sn.opts.IdentifierTokens {
		if hasToken(header, tok) && !hasToken(candidate, tok) {
			return true
		}
	}
	return false
}
