package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/nhle/focus/internal/logging"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/store"
)

// Submitter queues a persistence write.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error)
}

// CategoryRemover clears a category from every task using it.
// *tasks.Manager implements it.
type CategoryRemover interface {
	RemoveCategory(category string) int
}

// Service holds the owner's preferences and custom categories.
type Service struct {
	store  store.Store
	owner  string
	writer Submitter
	tasks  CategoryRemover
	log    logrus.FieldLogger
	theme  string

	mu       sync.Mutex
	settings model.Settings
	gen      uint64
	pending  atomic.Int64
}

// Option configures a Service.
type Option func(*Service)

// WithWriter sends writes through w.
func WithWriter(w Submitter) Option { return func(s *Service) { s.writer = w } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

// WithTasks lets RemoveCategory clear the category from tasks.
func WithTasks(r CategoryRemover) Option { return func(s *Service) { s.tasks = r } }

// WithDefaultTheme sets the theme used until the owner stores one.
func WithDefaultTheme(name string) Option { return func(s *Service) { s.theme = name } }

// NewService returns a service holding the default settings.
func NewService(st store.Store, owner string, opts ...Option) *Service {
	s := &Service{
		store:    st,
		owner:    owner,
		settings: model.DefaultSettings(owner),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.theme != "" {
		s.settings.Theme = s.theme
	}
	return s
}

// Load fetches stored settings; missing settings keep the defaults. While
// a save is pending the fetched row is dropped and another load is queued
// behind it.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	busy := s.pending.Load() > 0

	st, err := s.store.GetSettings(ctx, s.owner)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	s.mu.Lock()
	if busy || s.gen != gen || s.pending.Load() > 0 {
		s.mu.Unlock()
		s.submit("reload settings", s.Load)
		return nil
	}
	s.settings = *st
	s.settings.OwnerID = s.owner
	if s.settings.Theme == "" {
		s.settings.Theme = s.defaultTheme()
	}
	if s.settings.Categories == nil {
		s.settings.Categories = []model.Category{}
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) defaultTheme() string {
	if s.theme != "" {
		return s.theme
	}
	return model.DefaultSettings(s.owner).Theme
}

// Reload is Load, used as a reconcile hook.
func (s *Service) Reload(ctx context.Context) error { return s.Load(ctx) }

// Current returns a copy of the settings.
func (s *Service) Current() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.settings
	c.Categories = append([]model.Category{}, s.settings.Categories...)
	return c
}

// SetTheme stores the theme name.
func (s *Service) SetTheme(name string) {
	s.mu.Lock()
	s.settings.Theme = name
	s.touch()
	s.mu.Unlock()
	s.save("save theme", store.Fields{model.ColTheme: name})
}

// SetSoundEnabled stores the sound preference.
func (s *Service) SetSoundEnabled(on bool) {
	s.mu.Lock()
	s.settings.SoundEnabled = on
	s.touch()
	s.mu.Unlock()
	s.save("save sound", store.Fields{model.ColSoundEnabled: on})
}

// SetShowCompleted stores whether completed tasks are listed.
func (s *Service) SetShowCompleted(on bool) {
	s.mu.Lock()
	s.settings.ShowCompleted = on
	s.touch()
	s.mu.Unlock()
	s.save("save show completed", store.Fields{model.ColShowCompleted: on})
}

// Categories returns the built-in categories followed by custom ones.
func (s *Service) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Category, 0, len(model.DefaultCategories)+len(s.settings.Categories))
	out = append(out, model.DefaultCategories...)
	return append(out, s.settings.Categories...)
}

// Category looks up a category by id.
func (s *Service) Category(id string) (model.Category, bool) {
	for _, c := range s.Categories() {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// AddCategory creates a custom category named name. It returns false for
// a blank name or when the derived id already exists.
func (s *Service) AddCategory(name, color string) (model.Category, bool) {
	name = strings.TrimSpace(name)
	id := model.Slugify(name)
	if id == "" {
		return model.Category{}, false
	}
	if _, exists := s.Category(id); exists {
		return model.Category{}, false
	}
	if color == "" {
		color = "#A0A0A0"
	}

	c := model.Category{ID: id, Name: name, Color: color}
	s.mu.Lock()
	s.settings.Categories = append(s.settings.Categories, c)
	custom := append([]model.Category(nil), s.settings.Categories...)
	s.touch()
	s.mu.Unlock()

	s.save("add category", store.Fields{model.ColCategories: custom})
	return c, true
}

// RemoveCategory deletes a custom category and clears it from tasks.
// Built-in categories cannot be removed.
func (s *Service) RemoveCategory(id string) bool {
	if model.IsDefaultCategory(id) {
		return false
	}

	s.mu.Lock()
	idx := -1
	for i, c := range s.settings.Categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.settings.Categories = append(s.settings.Categories[:idx:idx], s.settings.Categories[idx+1:]...)
	custom := append([]model.Category{}, s.settings.Categories...)
	s.touch()
	s.mu.Unlock()

	s.save("remove category", store.Fields{model.ColCategories: custom})
	if s.tasks != nil {
		n := s.tasks.RemoveCategory(id)
		s.log.WithFields(logrus.Fields{"category": id, "tasks": n}).Info("category removed")
	}
	return true
}

func (s *Service) save(name string, fields store.Fields) {
	st, owner := s.store, s.owner
	s.submit(name, func(ctx context.Context) error {
		defer s.pending.Add(-1)
		return st.UpsertSettings(ctx, owner, fields)
	})
}

// touch marks a local change that save will persist. Callers hold s.mu.
func (s *Service) touch() {
	s.gen++
	s.pending.Add(1)
}

func (s *Service) submit(name string, fn func(ctx context.Context) error) {
	if s.writer != nil {
		s.writer.Submit(name, fn)
		return
	}
	if err := fn(context.Background()); err != nil {
		s.log.WithField("op", name).WithError(err).Error("write failed")
	}
}
