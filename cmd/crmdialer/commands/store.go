package commands

import (
	"context"
	"fmt"

	"github.com/gavet/crmdialer/internal/storage"
	"github.com/gavet/crmdialer/internal/storage/memory"
	"github.com/gavet/crmdialer/internal/storage/sqlite"
	"github.com/gavet/crmdialer/internal/storage/xlsx"
)

// newRepository returns the task store selected by the global flags and its closer.
func newRepository(ctx context.Context, root RootCommand) (storage.Repository, func() error, error) {
	noClose := func() error { return nil }

	switch root.Store {
	case StoreSQLite:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: root.ResolvedStorePath(),
			Logger: root.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create sqlite repository: %w", err)
		}
		return repo, repo.Close, nil

	case StoreMemory:
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: root.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create memory repository: %w", err)
		}
		return repo, noClose, nil

	case StoreXLSX, "":
		repo, err := xlsx.NewRepository(xlsx.RepositoryConfig{
			Path:   root.ResolvedStorePath(),
			Logger: root.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create xlsx repository: %w", err)
		}
		return repo, noClose, nil
	}

	return nil, nil, fmt.Errorf("unknown store %q", root.Store)
}
