// Package huggingface fetches tokenizer files from the Hugging Face Hub, or
// from a local mirror of it.
package huggingface

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gomlx/go-huggingface/hub"
)

// TokenEnvVars are the environment variables holding a Hub access token, used
// for gated repositories such as meta-llama.
var TokenEnvVars = []string{"HUGGINGFACE_TOKEN", "HF_TOKEN"}

// Fetcher resolves a file of a Hub repository to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, repoID, file string) (string, error)
}

// HubFetcher downloads files from the Hub into its cache directory.
type HubFetcher struct {
	// Token authenticates gated downloads. It may be empty for public repos.
	Token string
	// CacheDir overrides the default Hub cache location.
	CacheDir string
}

// Fetch implements Fetcher.
func (f *HubFetcher) Fetch(ctx context.Context, repoID, file string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	repo := hub.New(repoID).WithAuth(f.Token)
	if f.CacheDir != "" {
		repo = repo.WithCacheDir(f.CacheDir)
	}

	path, err := repo.DownloadFile(file)
	if err != nil {
		if f.Token == "" {
			return "", fmt.Errorf("failed to download %s from %s (no Hugging Face token set, the repository may be gated): %w", file, repoID, err)
		}
		return "", fmt.Errorf("failed to download %s from %s: %w", file, repoID, err)
	}
	return path, nil
}

// LocalFetcher serves files from a directory laid out as <Dir>/<repo>/<file>.
type LocalFetcher struct {
	Dir string
}

// Fetch implements Fetcher.
func (f *LocalFetcher) Fetch(_ context.Context, repoID, file string) (string, error) {
	path := filepath.Join(f.Dir, filepath.FromSlash(repoID), filepath.FromSlash(file))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("tokenizer file %s of %s not available locally: %w", file, repoID, err)
	}
	return path, nil
}
