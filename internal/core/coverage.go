package core

import "github.com/valter-silva-au/story-digest/pkg/models"

// ComputeCoverage counts mapped and orphan meaningful statements. With no
// meaningful statements coverage is 100.
func ComputeCoverage(pass string, sm *models.StatementMap) models.CoverageSnapshot {
	snap := models.CoverageSnapshot{Pass: pass}
	for _, s := range sm.Statements {
		if !s.Meaningful {
			continue
		}
		snap.Meaningful++
		if s.TopicID != "" {
			snap.Mapped++
		} else {
			snap.Orphans++
		}
	}
	if snap.Meaningful == 0 {
		snap.Percentage = 100
		return snap
	}
	snap.Percentage = round1(float64(snap.Mapped) / float64(snap.Meaningful) * 100)
	return snap
}

// recordCoverage appends a snapshot for pass to the statement map.
func recordCoverage(pass string, sm *models.StatementMap) models.CoverageSnapshot {
	snap := ComputeCoverage(pass, sm)
	sm.CoverageHistory = append(sm.CoverageHistory, snap)
	return snap
}
