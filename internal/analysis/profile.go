package analysis

import (
	"dashxcel/internal/models"
	"math"
)

// idealEntropy is the value diversity, in bits, that scores best.
const idealEntropy = 4.0

// Profile computes completeness and diversity metrics for every column of
// ds, in column order.
func Profile(ds *models.Dataset, cls models.Classification) []models.ColumnProfile {
	if ds == nil {
		return []models.ColumnProfile{}
	}
	profiles := make([]models.ColumnProfile, len(ds.Columns))
	for i, col := range ds.Columns {
		profiles[i] = ProfileColumn(col)
		profiles[i].Type = cls.ColumnType(col.Name)
	}
	return profiles
}

// ProfileColumn analyzes quality metrics for a single column. Values are
// compared by their display text.
func ProfileColumn(col *models.Column) models.ColumnProfile {
	profile := models.ColumnProfile{
		Name:      col.Name,
		Declared:  col.Kind,
		TotalRows: col.Len(),
	}

	counts := make(map[string]int)
	for i := range col.Len() {
		if col.IsMissing(i) {
			continue
		}
		profile.NonMissing++
		counts[col.Text(i)]++
	}
	profile.Distinct = len(counts)

	if profile.TotalRows > 0 {
		profile.MissingRate = float64(profile.TotalRows-profile.NonMissing) / float64(profile.TotalRows)
	}
	if profile.NonMissing > 0 {
		profile.Uniqueness = float64(profile.Distinct) / float64(profile.NonMissing)
	}
	profile.Entropy = entropy(counts, profile.NonMissing)

	// Nearly unique and nearly complete.
	profile.CandidateKey = profile.NonMissing > 1 && profile.Uniqueness > 0.95 && profile.MissingRate < 0.05
	profile.QualityScore = qualityScore(profile)
	return profile
}

// entropy computes the Shannon entropy of counts in bits.
func entropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, n := range counts {
		if n > 0 {
			p := float64(n) / float64(total)
			h -= p * math.Log2(p)
		}
	}
	return h
}

// qualityScore is completeness scaled by how far entropy is from
// idealEntropy, clamped to [0, 1].
func qualityScore(p models.ColumnProfile) float64 {
	if p.NonMissing == 0 {
		return 0
	}
	score := 1.0 - p.MissingRate
	penalty := math.Abs(p.Entropy-idealEntropy) / 10.0
	score *= math.Max(0.5, 1.0-penalty)
	return math.Max(0, math.Min(1, score))
}
