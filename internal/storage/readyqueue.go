package storage

import (
	"fmt"
	"sort"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

const readyKey = "ready"

// ReadyFilter specifies criteria for filtering ready-queue tasks.
// All specified fields use AND logic.
type ReadyFilter struct {
	Priority  []models.Priority
	SessionID string
	Tags      []string
}

// ReadyQueueFile represents the top-level structure of ready.yaml.
type ReadyQueueFile struct {
	Version string                      `yaml:"version"`
	Tasks   map[string]models.ReadyTask `yaml:"tasks"`
}

// ReadyQueueManager defines the interface for the task-ready queue that
// finalized stories are handed to.
type ReadyQueueManager interface {
	AddTask(task models.ReadyTask) error
	GetTask(taskID string) (*models.ReadyTask, error)
	FindByStory(sessionID, storyID string) *models.ReadyTask
	GetAllTasks() []models.ReadyTask
	FilterTasks(filter ReadyFilter) []models.ReadyTask
	Load() error
	Save() error
}

type readyQueueManager struct {
	backend Backend
	data    ReadyQueueFile
}

// NewReadyQueueManager creates a ReadyQueueManager persisted through backend.
func NewReadyQueueManager(backend Backend) ReadyQueueManager {
	return &readyQueueManager{
		backend: backend,
		data: ReadyQueueFile{
			Version: "1.0",
			Tasks:   make(map[string]models.ReadyTask),
		},
	}
}

func (m *readyQueueManager) AddTask(task models.ReadyTask) error {
	if task.ID == "" {
		return fmt.Errorf("adding task: ID must not be empty")
	}
	if _, exists := m.data.Tasks[task.ID]; exists {
		return fmt.Errorf("adding task: task %s already exists", task.ID)
	}
	if task.StoryID != "" {
		if existing := m.FindByStory(task.SessionID, task.StoryID); existing != nil {
			return fmt.Errorf("adding task: story %s already queued as %s", task.StoryID, existing.ID)
		}
	}
	m.data.Tasks[task.ID] = task
	return nil
}

func (m *readyQueueManager) GetTask(taskID string) (*models.ReadyTask, error) {
	task, exists := m.data.Tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("task %s not found", taskID)
	}
	return &task, nil
}

// FindByStory returns the task created from the given story, or nil.
func (m *readyQueueManager) FindByStory(sessionID, storyID string) *models.ReadyTask {
	for _, task := range m.data.Tasks {
		if task.StoryID == storyID && task.SessionID == sessionID {
			cp := task
			return &cp
		}
	}
	return nil
}

func (m *readyQueueManager) GetAllTasks() []models.ReadyTask {
	tasks := make([]models.ReadyTask, 0, len(m.data.Tasks))
	for _, task := range m.data.Tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})
	return tasks
}

func (m *readyQueueManager) FilterTasks(filter ReadyFilter) []models.ReadyTask {
	var result []models.ReadyTask
	for _, task := range m.GetAllTasks() {
		if matchesReadyFilter(task, filter) {
			result = append(result, task)
		}
	}
	return result
}

func matchesReadyFilter(task models.ReadyTask, filter ReadyFilter) bool {
	if len(filter.Priority) > 0 && !containsPriority(filter.Priority, task.Priority) {
		return false
	}
	if filter.SessionID != "" && task.SessionID != filter.SessionID {
		return false
	}
	if len(filter.Tags) > 0 && !hasAllTags(task.Tags, filter.Tags) {
		return false
	}
	return true
}

func containsPriority(haystack []models.Priority, needle models.Priority) bool {
	for _, p := range haystack {
		if p == needle {
			return true
		}
	}
	return false
}

func hasAllTags(taskTags []string, requiredTags []string) bool {
	tagSet := make(map[string]struct{}, len(taskTags))
	for _, t := range taskTags {
		tagSet[t] = struct{}{}
	}
	for _, req := range requiredTags {
		if _, found := tagSet[req]; !found {
			return false
		}
	}
	return true
}

// Load reads the ready queue. A missing queue is treated as empty.
func (m *readyQueueManager) Load() error {
	f, err := loadOrDefault[ReadyQueueFile](m.backend, readyKey)
	if err != nil {
		return fmt.Errorf("loading ready queue: %w", err)
	}
	if f.Version == "" {
		f.Version = "1.0"
	}
	if f.Tasks == nil {
		f.Tasks = make(map[string]models.ReadyTask)
	}
	m.data = *f
	return nil
}

func (m *readyQueueManager) Save() error {
	if err := save(m.backend, readyKey, &m.data); err != nil {
		return fmt.Errorf("saving ready queue: %w", err)
	}
	return nil
}
