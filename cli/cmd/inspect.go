package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/formstep-io/formstep/cli/config"
	"github.com/formstep-io/formstep/cli/render"
	"github.com/formstep-io/formstep/iox"
)

// InspectResponse summarizes a form definition and any persisted session.
type InspectResponse struct {
	FormID      string          `json:"form_id"`
	Name        string          `json:"name"`
	Slides      int             `json:"slides"`
	Groups      int             `json:"groups"`
	Fields      int             `json:"fields"`
	Persistence string          `json:"persistence"`
	SubmitURL   string          `json:"submit_url,omitempty"`
	Archive     string          `json:"archive,omitempty"`
	Session     *InspectSession `json:"session,omitempty"`
	SlideList   []InspectRow    `json:"slide_list"`
}

// InspectSession describes a persisted session found in the store.
type InspectSession struct {
	SavedAt   string `json:"saved_at"`
	ExpiresAt string `json:"expires_at"`
	Slides    int    `json:"slides_with_data"`
}

// InspectRow describes one slide in the inspect output.
type InspectRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Group    string `json:"group,omitempty"`
	Fields   int    `json:"fields"`
	Required string `json:"required,omitempty"`
}

// InspectCommand returns the inspect command: a read-only summary of a
// form definition, validating it in the process.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:   "inspect",
		Usage:  "Validate and summarize a form definition",
		Flags:  ReadOnlyFlags(),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	resp := InspectResponse{
		FormID:      cfg.Form.ID,
		Name:        cfg.Form.Name,
		Slides:      len(cfg.Form.Slides),
		Groups:      len(cfg.Form.Groups),
		Persistence: cfg.Persistence.Backend,
		SubmitURL:   cfg.Submit.URL,
		Archive:     cfg.Archive.Bucket,
	}
	for _, s := range cfg.Form.Slides {
		resp.Fields += len(s.Fields)
		resp.SlideList = append(resp.SlideList, InspectRow{
			ID:       s.ID,
			Title:    s.Title,
			Group:    s.Group,
			Fields:   len(s.Fields),
			Required: s.Requirement,
		})
	}

	if sess, err := loadSession(c, cfg); err == nil {
		resp.Session = sess
	}

	return r.Render(resp)
}

// loadSession reports the persisted session, if a backend is configured
// and a live record exists. Store errors leave the session empty.
func loadSession(c *cli.Context, cfg *config.Config) (*InspectSession, error) {
	store, err := buildStore(cfg)
	if err != nil || store == nil {
		return nil, err
	}
	defer iox.DiscardClose(store)

	rec, err := store.Load(c.Context, cfg.Form.ID)
	if err != nil || rec == nil {
		return nil, err
	}
	return &InspectSession{
		SavedAt:   time.UnixMilli(rec.Timestamp).UTC().Format(time.RFC3339),
		ExpiresAt: time.UnixMilli(rec.ExpiresAt).UTC().Format(time.RFC3339),
		Slides:    len(rec.Data),
	}, nil
}
