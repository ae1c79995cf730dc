package models

// TopicSource records which pass created a topic.
type TopicSource string

const (
	TopicFromExtraction TopicSource = "pass-1-extraction"
	TopicFromOrphans    TopicSource = "orphan_resolution"
	TopicCatchAll       TopicSource = "catch_all"
)

// TopicStatusActive is the only status topics currently take.
const TopicStatusActive = "active"

// Topic is a detected feature or requirement cluster. Topics never hold
// statement references; statements point at topics by ID.
type Topic struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Keywords    []string    `yaml:"keywords"`
	Entities    []string    `yaml:"entities,omitempty"`
	Source      TopicSource `yaml:"source"`
	Status      string      `yaml:"status"`
	NeedsReview bool        `yaml:"needs_review"`
	ChunkIDs    []string    `yaml:"chunk_ids,omitempty"`
}

// TopicSet is the persisted topics document for a session.
type TopicSet struct {
	Topics []Topic `yaml:"topics"`
}

// Find returns a pointer to the topic with the given ID, or nil.
func (ts *TopicSet) Find(id string) *Topic {
	for i := range ts.Topics {
		if ts.Topics[i].ID == id {
			return &ts.Topics[i]
		}
	}
	return nil
}

// Active returns the topics whose status is active.
func (ts *TopicSet) Active() []Topic {
	var out []Topic
	for _, t := range ts.Topics {
		if t.Status == TopicStatusActive {
			out = append(out, t)
		}
	}
	return out
}
