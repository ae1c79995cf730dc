package core

import (
	"testing"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

const dashboardTranscript = `Alice: We need a sales dashboard for the regional managers.
Bob: The dashboard should show a table of revenue per region.
Alice: Managers must be able to export the table to CSV.
Bob: The login page should support single sign-on with Google.
Alice: Users must reset their password by email.
`

// extractDashboard runs pass 1 and pass 2 over the dashboard transcript.
func extractDashboard(t *testing.T) (*models.TopicSet, *models.StatementMap) {
	t.Helper()
	norm := NewNormalizer(nil).Normalize(dashboardTranscript)
	e := NewExtractor(DefaultConfig().Extraction, nil)
	topics, statements := e.Extract(norm.Entries)
	sm := &models.StatementMap{Statements: statements}
	e.Associate(&topics, sm)
	return &topics, sm
}

func activeTopic(id, title string, keywords, entities []string) models.Topic {
	return models.Topic{
		ID:       id,
		Title:    title,
		Keywords: keywords,
		Entities: entities,
		Source:   models.TopicFromExtraction,
		Status:   models.TopicStatusActive,
	}
}

func transcriptStatement(id, text string) models.Statement {
	return models.Statement{ID: id, Text: text, Meaningful: true, Source: models.SourceTranscript}
}
