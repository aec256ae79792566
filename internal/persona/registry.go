package persona

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Registry is an immutable, ordered table of profiles keyed by ID. Lookups
// are case-insensitive and ignore surrounding whitespace.
type Registry struct {
	byKey map[string]*Profile
	order []*Profile
}

// Option configures [NewRegistry].
type Option func(*options)

type options struct {
	voiceValid func(string) bool
	logger     *slog.Logger
}

// WithVoiceCheck installs a predicate for explicit voices. Profiles naming a
// voice the predicate rejects keep loading, but their Voice is cleared (and a
// warning logged) so the voice selector falls back to the gender default.
func WithVoiceCheck(valid func(string) bool) Option {
	return func(o *options) { o.voiceValid = valid }
}

// WithLogger sets the logger used for load-time warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewRegistry validates profiles and builds a Registry from copies of them.
// IDs must be unique (case-insensitively). All problems are reported together.
func NewRegistry(profiles []Profile, opts ...Option) (*Registry, error) {
	o := options{logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}

	r := &Registry{byKey: make(map[string]*Profile, len(profiles))}
	var errs []error
	for i, p := range profiles {
		p.normalize()
		if err := Validate(p); err != nil {
			errs = append(errs, fmt.Errorf("persona[%d] %q: %w", i, p.ID, err))
			continue
		}
		key := strings.ToLower(p.ID)
		if _, dup := r.byKey[key]; dup {
			errs = append(errs, fmt.Errorf("persona[%d]: duplicate id %q", i, p.ID))
			continue
		}
		if p.Voice != "" && o.voiceValid != nil && !o.voiceValid(p.Voice) {
			o.logger.Warn("persona voice not recognised, falling back to gender default",
				"persona", p.ID, "voice", p.Voice)
			p.Voice = ""
		}
		cp := p
		r.byKey[key] = &cp
		r.order = append(r.order, &cp)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("persona: %w", errors.Join(errs...))
	}
	return r, nil
}

// Lookup returns the profile for id. Unknown or empty ids yield (nil, false);
// Lookup never panics, even on a nil Registry.
func (r *Registry) Lookup(id string) (*Profile, bool) {
	if r == nil {
		return nil, false
	}
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" {
		return nil, false
	}
	p, ok := r.byKey[key]
	return p, ok
}

// Resolve returns the profile for id, or nil when there is none. Callers
// render [FallbackDescription] for a nil result.
func (r *Registry) Resolve(id string) *Profile {
	p, _ := r.Lookup(id)
	return p
}

// Profiles returns the profiles in load order. The slice is a copy; the
// profiles themselves are shared and must not be modified.
func (r *Registry) Profiles() []*Profile {
	if r == nil {
		return nil
	}
	out := make([]*Profile, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of profiles.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Label returns the metrics/log label for p: its ID, or [GenericID] for nil.
func Label(p *Profile) string {
	if p == nil {
		return GenericID
	}
	return p.ID
}
