package backends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("mirror", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewMirrorBackendFromConfig(cfg, defaultRegistry, log)
	})
}

// MirrorBackend fans operations out over multiple child backends for
// redundancy: writes go to every child, reads fall through the children
// in order until one has the content.
type MirrorBackend struct {
	children []interfaces.Backend
	log      *slog.Logger
}

// NewMirrorBackend creates a mirror over already-constructed children.
// The mirror takes ownership: closing it closes every child.
func NewMirrorBackend(children []interfaces.Backend, log *slog.Logger) (*MirrorBackend, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: mirror requires at least one target", interfaces.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}
	return &MirrorBackend{children: children, log: log}, nil
}

// NewMirrorBackendFromConfig builds the children from the configuration
// map. "targets" names the child schemes, comma-separated; each child's
// own configuration is carried under "<scheme>."-prefixed keys:
//
//	targets:   "memory,fs"
//	fs.root:   "/var/lib/blobs"
func NewMirrorBackendFromConfig(cfg interfaces.Config, reg *Registry, log *slog.Logger) (*MirrorBackend, error) {
	targets := strings.Split(cfg["targets"], ",")
	if cfg["targets"] == "" {
		return nil, fmt.Errorf("%w: targets is required", interfaces.ErrInvalidConfig)
	}

	children := make([]interfaces.Backend, 0, len(targets))
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "mirror" {
			return nil, fmt.Errorf("%w: mirror cannot nest itself", interfaces.ErrInvalidConfig)
		}

		childCfg := make(interfaces.Config)
		for key, value := range cfg {
			if rest, ok := strings.CutPrefix(key, target+"."); ok {
				childCfg[rest] = value
			}
		}

		child, err := reg.New(target, childCfg, log)
		if err != nil {
			// Construction is all-or-nothing; tear down what we built.
			for _, built := range children {
				_ = built.Close(context.Background())
			}
			return nil, fmt.Errorf("failed to construct mirror target %q: %w", target, err)
		}
		children = append(children, child)
	}

	return NewMirrorBackend(children, log)
}

// Read returns the content from the first child that has it. Children
// that report not-found are skipped; if every child misses, the mirror
// reports not-found.
func (m *MirrorBackend) Read(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, child := range m.children {
		data, err := child.Read(ctx, path)
		if err == nil {
			m.log.Debug("Read content from mirror child",
				slog.String("backend_name", child.Name()),
				slog.String("path", path),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}
		if errors.Is(err, interfaces.ErrNotFound) {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", child.Name(), err))
	}

	if len(errs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return nil, fmt.Errorf("all mirror children failed to read %s: %w", path, errors.Join(errs...))
}

// Write stores data in every child. The write succeeds if at least one
// child accepts it; per-child failures are logged and folded into the
// error only when all children fail.
func (m *MirrorBackend) Write(ctx context.Context, path string, data []byte) error {
	var errs []error
	var success bool

	for _, child := range m.children {
		if err := child.Write(ctx, path, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", child.Name(), err))
			m.log.Warn("Failed to write to mirror child",
				slog.String("backend_name", child.Name()),
				slog.String("path", path),
				"err", err)
			continue
		}
		success = true
	}

	if !success {
		return fmt.Errorf("all mirror children failed to write %s: %w", path, errors.Join(errs...))
	}
	return nil
}

// Delete removes the entry from every child. Idempotence carries over
// from the children.
func (m *MirrorBackend) Delete(ctx context.Context, path string) error {
	var errs []error
	for _, child := range m.children {
		if err := child.Delete(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", child.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("mirror delete of %s partially failed: %w", path, errors.Join(errs...))
	}
	return nil
}

// Stat returns metadata from the first child that has the entry.
func (m *MirrorBackend) Stat(ctx context.Context, path string) (interfaces.Stat, error) {
	var errs []error

	for _, child := range m.children {
		stat, err := child.Stat(ctx, path)
		if err == nil {
			return stat, nil
		}
		if errors.Is(err, interfaces.ErrNotFound) {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", child.Name(), err))
	}

	if len(errs) == 0 {
		return interfaces.Stat{}, interfaces.ErrNotFound
	}
	return interfaces.Stat{}, fmt.Errorf("all mirror children failed to stat %s: %w", path, errors.Join(errs...))
}

// List returns the deduplicated union of all children's listings.
func (m *MirrorBackend) List(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	var errs []error

	for _, child := range m.children {
		paths, err := child.List(ctx, prefix)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", child.Name(), err))
			continue
		}
		for _, path := range paths {
			seen[path] = struct{}{}
		}
	}

	if len(seen) == 0 && len(errs) == len(m.children) && len(errs) > 0 {
		return nil, fmt.Errorf("all mirror children failed to list %s: %w", prefix, errors.Join(errs...))
	}

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Close tears down every child, reporting all failures.
func (m *MirrorBackend) Close(ctx context.Context) error {
	var errs []error
	for _, child := range m.children {
		if err := child.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", child.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Scheme returns "mirror".
func (m *MirrorBackend) Scheme() string {
	return "mirror"
}

// Name returns an identifier for logging, listing the children.
func (m *MirrorBackend) Name() string {
	names := make([]string, 0, len(m.children))
	for _, child := range m.children {
		names = append(names, child.Name())
	}
	return "mirror[" + strings.Join(names, ",") + "]"
}
