package view

import (
	"context"
	"sync"

	"tracker/internal/api"
	"tracker/internal/core"
	"tracker/internal/log"
)

type ProfileAPI interface {
	Profile(ctx context.Context) (*core.ProfileEnvelope, error)
}

type ProfileState struct {
	Profile *core.Profile
	Error   string
}

// Profile is the profile page controller.
type Profile struct {
	api    ProfileAPI
	opts   Options
	logger *log.Logger

	mu      sync.Mutex
	profile *core.Profile
	errMsg  string
}

func NewProfile(client ProfileAPI, opts Options) *Profile {
	return &Profile{
		api:    client,
		opts:   opts,
		logger: opts.logger(log.ComponentProfile),
	}
}

// Mount fetches the profile.
func (p *Profile) Mount(ctx context.Context) error {
	env, err := p.api.Profile(ctx)
	if err != nil {
		p.mu.Lock()
		p.errMsg = api.Message(err)
		p.mu.Unlock()

		p.logger.WarnContext(ctx, "Profile fetch failed",
			log.FieldOperation, log.OpProfile,
			log.FieldError, err.Error())
		if api.IsUnauthorized(err) {
			handleUnauthorized(ctx, p.opts, p.logger)
		}
		return err
	}

	prof := env.Profile
	p.mu.Lock()
	p.profile = &prof
	p.errMsg = ""
	p.mu.Unlock()
	return nil
}

// GoBack pops one navigation frame.
func (p *Profile) GoBack() {
	if p.opts.Navigator != nil {
		p.opts.Navigator.Back()
	}
}

func (p *Profile) Snapshot() ProfileState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := ProfileState{Error: p.errMsg}
	if p.profile != nil {
		prof := *p.profile
		st.Profile = &prof
	}
	return st
}
