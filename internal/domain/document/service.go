package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
)

var (
	ErrCorpusNotFound = errors.New("corpus not found")
	ErrInvalidCorpus  = errors.New("invalid corpus")
)

type CreateCorpusInput struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	Root string `json:"root"`
}

// CorpusService manages corpus definitions.
type CorpusService struct {
	repo CorpusRepository
}

func NewCorpusService(repo CorpusRepository) *CorpusService {
	return &CorpusService{repo: repo}
}

// Create registers a corpus. Directory roots are made absolute and must exist.
func (s *CorpusService) Create(ctx context.Context, in CreateCorpusInput) (*Corpus, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidCorpus(ctx, "name is required")
	}
	kind := in.Kind
	if kind == "" {
		kind = KindDirectory
	}
	if kind != KindDirectory {
		return nil, invalidCorpus(ctx, fmt.Sprintf("unsupported kind %q", kind))
	}
	if strings.TrimSpace(in.Root) == "" {
		return nil, invalidCorpus(ctx, "root is required")
	}

	root, err := filepath.Abs(in.Root)
	if err != nil {
		return nil, invalidCorpus(ctx, fmt.Sprintf("resolve root: %v", err))
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, invalidCorpus(ctx, fmt.Sprintf("root %q is not a readable directory", root))
	}

	corpus := &Corpus{Name: name, Kind: kind, Root: root}
	if err := s.repo.Create(ctx, corpus); err != nil {
		return nil, fmt.Errorf("create corpus: %w", err)
	}

	log.Info().Uint("corpus_id", corpus.ID).Str("name", corpus.Name).Str("root", corpus.Root).Msg("Corpus created")
	return corpus, nil
}

func (s *CorpusService) List(ctx context.Context) ([]Corpus, error) {
	corpora, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}
	return corpora, nil
}

func (s *CorpusService) Get(ctx context.Context, id uint) (*Corpus, error) {
	return s.repo.FindByID(ctx, id)
}

func invalidCorpus(ctx context.Context, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, message, ErrInvalidCorpus)
}
