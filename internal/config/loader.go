package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const defaultFetchTimeout = 10 * time.Second

// Source supplies the boot and operating documents.
type Source interface {
	LoadBoot(ctx context.Context) (BootConfig, error)
	LoadOperating(ctx context.Context, src SourceConfig) (OperatingConfig, error)
}

// Loader reads boot.json from disk and the operating document from config_file
// or config_url, whichever boot.json names (config_file wins).
type Loader struct {
	BootPath string
	Client   *http.Client
}

// NewLoader returns a Loader. A nil client gets a default one with a fetch timeout.
func NewLoader(bootPath string, client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Loader{BootPath: bootPath, Client: client}
}

func (l *Loader) LoadBoot(ctx context.Context) (BootConfig, error) {
	if err := ctx.Err(); err != nil {
		return BootConfig{}, err
	}
	return LoadBoot(l.BootPath)
}

func (l *Loader) LoadOperating(ctx context.Context, src SourceConfig) (OperatingConfig, error) {
	data, err := l.fetch(ctx, src)
	if err != nil {
		return OperatingConfig{}, err
	}
	return DecodeOperating(data)
}

func (l *Loader) fetch(ctx context.Context, src SourceConfig) ([]byte, error) {
	switch {
	case src.ConfigFile != "":
		path := src.ConfigFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(l.BootPath), path)
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("read operating config %s: %w", path, err)
		}
		return data, nil

	case src.ConfigURL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.ConfigURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build config request: %w", err)
		}
		resp, err := l.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s: %v", ErrConfigFileNotFound, src.ConfigURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %s returned %d", ErrConfigFileNotFound, src.ConfigURL, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read config response: %w", err)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("%w: boot config names neither config_file nor config_url", ErrConfigFileNotFound)
	}
}
