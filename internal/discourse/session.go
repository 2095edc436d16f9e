// Package discourse holds the interactive exploration state: the idea, its
// classification and the forest of generated nodes.
package discourse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/weitblick/internal/classify"
	"github.com/ppiankov/weitblick/internal/fanout"
	"github.com/ppiankov/weitblick/internal/model"
)

var (
	ErrBusy                    = errors.New("a generation is already in progress")
	ErrEmptyIdea               = errors.New("idea is empty")
	ErrSessionStarted          = errors.New("session already started, reset first")
	ErrNotStarted              = errors.New("session not started")
	ErrNoSelection             = errors.New("no node selected")
	ErrUnknownNode             = errors.New("unknown node")
	ErrQuintessenceUnavailable = errors.New("not enough perspectives for a quintessence at this level")
	ErrQuintessenceExists      = errors.New("quintessence already exists at this level")
	ErrEmptyAnswer             = errors.New("answer is empty")
	ErrGuideComplete           = errors.New("every phase is already answered")
)

// Analyzer fans a request out to the configured providers
type Analyzer interface {
	AnalyzeWithAll(ctx context.Context, req fanout.Request, creds model.Credentials) (fanout.Results, error)
}

// CredentialSource supplies the current provider credentials
type CredentialSource interface {
	Load() (model.Credentials, error)
}

// Session is one exploration. All methods are safe for concurrent use;
// generating transitions are exclusive and a concurrent one gets ErrBusy.
type Session struct {
	analyzer Analyzer
	creds    CredentialSource
	cfg      model.AnalysisConfig
	logger   *zap.Logger
	now      func() time.Time

	mu             sync.Mutex
	idea           string
	classification model.Classification
	nodes          []model.Node
	index          map[string]int
	selected       string
	inFlight       bool
}

// New creates an empty session
func New(analyzer Analyzer, creds CredentialSource, cfg model.AnalysisConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinQuintessenceSiblings < 2 {
		cfg.MinQuintessenceSiblings = 2
	}
	return &Session{
		analyzer: analyzer,
		creds:    creds,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		index:    make(map[string]int),
	}
}

// Start classifies the idea and generates the level-0 layer
func (s *Session) Start(ctx context.Context, idea string) ([]model.Node, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, ErrEmptyIdea
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.idea != "" || len(s.nodes) > 0 {
		s.mu.Unlock()
		return nil, ErrSessionStarted
	}
	s.inFlight = true
	s.mu.Unlock()

	cls := classify.Classify(idea)
	s.logger.Info("session started",
		zap.String("language", string(cls.Language)),
		zap.String("level", string(cls.Level)),
		zap.String("category", string(cls.Category)))

	layer, err := s.generateLayer(ctx, idea, idea, cls, 0, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return nil, err
	}

	s.idea = idea
	s.classification = cls
	s.appendLocked(layer)
	return s.withChildrenLocked(layer), nil
}

// ThinkForward expands the selected node by one level
func (s *Session) ThinkForward(ctx context.Context) ([]model.Node, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.selected == "" {
		s.mu.Unlock()
		return nil, ErrNoSelection
	}
	parent := s.nodes[s.index[s.selected]]
	idea := s.idea
	cls := s.classification
	s.inFlight = true
	s.mu.Unlock()

	s.logger.Info("thinking forward",
		zap.String("parent", parent.ID),
		zap.Int("level", parent.Level+1))

	layer, err := s.generateLayer(ctx, parent.Content, idea, cls, parent.Level+1, parent.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return nil, err
	}

	s.appendLocked(layer)
	return s.withChildrenLocked(layer), nil
}

// GenerateQuintessence condenses the nodes of one level into a single node
func (s *Session) GenerateQuintessence(ctx context.Context, level int) (model.Node, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return model.Node{}, ErrBusy
	}
	sources, err := s.quintessenceSourcesLocked(level)
	if err != nil {
		s.mu.Unlock()
		return model.Node{}, err
	}
	idea := s.idea
	cls := s.classification
	s.inFlight = true
	s.mu.Unlock()

	node, err := s.generateQuintessence(ctx, sources, idea, cls, level)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return model.Node{}, err
	}

	s.appendLocked([]model.Node{node})
	return node, nil
}

// CanGenerateQuintessence reports whether GenerateQuintessence would be accepted
func (s *Session) CanGenerateQuintessence(level int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	_, err := s.quintessenceSourcesLocked(level)
	return err == nil
}

// Select marks a node as the base for ThinkForward
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	s.selected = id
	return nil
}

// Selected returns the selected node
func (s *Session) Selected() (model.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return model.Node{}, false
	}
	return s.nodeLocked(s.selected), true
}

// Reset discards the idea and all nodes
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrBusy
	}
	s.idea = ""
	s.classification = model.Classification{}
	s.nodes = nil
	s.index = make(map[string]int)
	s.selected = ""
	return nil
}

// Nodes returns every node in creation order
func (s *Session) Nodes() []model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withChildrenLocked(s.nodes)
}

// Node returns one node by id
func (s *Session) Node(id string) (model.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; !ok {
		return model.Node{}, false
	}
	return s.nodeLocked(id), true
}

// Level returns the nodes at one depth, in creation order
func (s *Session) Level(level int) []model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Node
	for _, n := range s.nodes {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return s.withChildrenLocked(out)
}

// Snapshot returns a read-only copy of the session
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Snapshot{
		Idea:           s.idea,
		Classification: s.classification,
		Nodes:          s.withChildrenLocked(s.nodes),
		SelectedID:     s.selected,
		InFlight:       s.inFlight,
	}
}

// Idea returns the idea the session was started with
func (s *Session) Idea() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idea
}

// Classification returns the classification of the idea
func (s *Session) Classification() model.Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classification
}

func (s *Session) quintessenceSourcesLocked(level int) ([]model.Node, error) {
	if s.idea == "" {
		return nil, ErrNotStarted
	}
	var sources []model.Node
	for _, n := range s.nodes {
		if n.Level != level {
			continue
		}
		if n.Kind == model.KindQuintessence {
			return nil, ErrQuintessenceExists
		}
		sources = append(sources, n)
	}
	if len(sources) < s.cfg.MinQuintessenceSiblings {
		return nil, ErrQuintessenceUnavailable
	}
	return sources, nil
}

func (s *Session) appendLocked(nodes []model.Node) {
	for _, n := range nodes {
		s.index[n.ID] = len(s.nodes)
		s.nodes = append(s.nodes, n)
	}
}

func (s *Session) nodeLocked(id string) model.Node {
	return s.withChildrenLocked([]model.Node{s.nodes[s.index[id]]})[0]
}

// withChildrenLocked copies nodes and fills ChildIDs from parent links
func (s *Session) withChildrenLocked(nodes []model.Node) []model.Node {
	children := make(map[string][]string)
	for _, n := range s.nodes {
		if n.ParentID != "" {
			children[n.ParentID] = append(children[n.ParentID], n.ID)
		}
	}

	out := make([]model.Node, len(nodes))
	for i, n := range nodes {
		n.ChildIDs = append([]string(nil), children[n.ID]...)
		n.SourceIDs = append([]string(nil), n.SourceIDs...)
		out[i] = n
	}
	return out
}

func (s *Session) newNode(kind model.NodeKind, cls model.Classification, level int, parentID string) model.Node {
	return model.Node{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title(kind, "", cls.Language),
		Category:  cls.Category,
		Level:     level,
		ParentID:  parentID,
		CreatedAt: s.now(),
	}
}

func (s *Session) credentials() (model.Credentials, error) {
	return loadCredentials(s.creds)
}

func loadCredentials(src CredentialSource) (model.Credentials, error) {
	if src == nil {
		return model.Credentials{}, nil
	}
	creds, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return creds, nil
}

var kindTitles = map[model.NodeKind]map[model.Language]string{
	model.KindThesis:       {model.LanguageGerman: "These", model.LanguageEnglish: "Thesis"},
	model.KindAntithesis:   {model.LanguageGerman: "Antithese", model.LanguageEnglish: "Antithesis"},
	model.KindQuintessence: {model.LanguageGerman: "Quintessenz", model.LanguageEnglish: "Quintessence"},
}

func title(kind model.NodeKind, p model.Perspective, language model.Language) string {
	if kind == model.KindPerspective {
		return string(p)
	}
	if t, ok := kindTitles[kind][language]; ok {
		return t
	}
	return kindTitles[kind][model.LanguageGerman]
}
