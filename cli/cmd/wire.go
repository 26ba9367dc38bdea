package cmd

import (
	"context"
	"fmt"

	"github.com/formstep-io/formstep/archive"
	"github.com/formstep-io/formstep/cli/config"
	"github.com/formstep-io/formstep/form"
	"github.com/formstep-io/formstep/log"
	"github.com/formstep-io/formstep/persist"
	persistredis "github.com/formstep-io/formstep/persist/redis"
	"github.com/formstep-io/formstep/submit"
	"github.com/formstep-io/formstep/submit/webhook"
)

// buildStore constructs the snapshot store declared by the definition.
// Returns nil when persistence is disabled.
func buildStore(cfg *config.Config) (persist.Store, error) {
	switch cfg.Persistence.Backend {
	case "":
		return nil, nil
	case "memory":
		return persist.NewMemoryStore(), nil
	case "redis":
		return persistredis.New(persistredis.Config{
			URL:     cfg.Persistence.URL,
			Prefix:  cfg.Persistence.Prefix,
			Timeout: cfg.Persistence.Timeout.Duration,
		})
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.Persistence.Backend)
	}
}

// buildSubmitter constructs the webhook submitter, or nil when no
// submit URL is configured.
func buildSubmitter(cfg *config.Config) (submit.Submitter, error) {
	if cfg.Submit.URL == "" {
		return nil, nil
	}
	wcfg := webhook.Config{
		URL:     cfg.Submit.URL,
		Headers: cfg.Submit.Headers,
		Timeout: cfg.Submit.Timeout.Duration,
	}
	if cfg.Submit.Retries != nil {
		wcfg.Retries = *cfg.Submit.Retries
	} else {
		wcfg.Retries = webhook.DefaultRetries
	}
	return webhook.New(wcfg)
}

// buildArchiver constructs the S3 archive, or nil when no bucket is
// configured.
func buildArchiver(ctx context.Context, cfg *config.Config) (archive.Archiver, error) {
	if cfg.Archive.Bucket == "" {
		return nil, nil
	}
	return archive.New(ctx, archive.Config{
		Bucket:       cfg.Archive.Bucket,
		Prefix:       cfg.Archive.Prefix,
		Region:       cfg.Archive.Region,
		Endpoint:     cfg.Archive.Endpoint,
		UsePathStyle: cfg.Archive.S3PathStyle,
	})
}

// buildForm wires a full form instance from a loaded definition.
func buildForm(ctx context.Context, cfg *config.Config, logger *log.Logger) (*form.Form, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}
	submitter, err := buildSubmitter(cfg)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	archiver, err := buildArchiver(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	opts := cfg.Form.Options.FormOptions()
	opts.Store = store
	opts.Submitter = submitter
	opts.Archiver = archiver
	opts.Logger = logger

	return form.New(cfg.Form.ID, cfg.Form.Name, cfg.Form.SlideDefs(), cfg.Form.GroupDefs(), opts)
}
