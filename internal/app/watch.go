package app

import (
	"context"
	"os"
	"time"

	"github.com/vk/weft/internal/devserver"
)

const watchInterval = 500 * time.Millisecond

// stamp is the cheap change detector for one file. Content digests inside
// the analysis graph catch touch-without-change rewrites.
type stamp struct {
	modTime time.Time
	size    int64
}

// watch polls the project globs until ctx is cancelled, feeding every
// observed change into the analysis session and publishing the refreshed
// report.
func (a *App) watch(ctx context.Context, srv *devserver.Server) error {
	seen := a.snapshotStamps()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watch stopped.")
			return nil
		case <-ticker.C:
		}

		templates, err := a.model.TemplateFiles()
		if err != nil {
			a.logger.Error("Template scan failed.", "error", err)
			continue
		}
		manifests, err := a.model.ManifestFiles()
		if err != nil {
			a.logger.Error("Manifest scan failed.", "error", err)
			continue
		}

		current := make(map[string]stamp, len(templates)+len(manifests))
		changed := false
		for _, path := range append(append([]string(nil), templates...), manifests...) {
			st, err := os.Stat(path)
			if err != nil {
				continue
			}
			current[path] = stamp{modTime: st.ModTime(), size: st.Size()}
			if current[path] == seen[path] {
				continue
			}
			contents, err := os.ReadFile(path)
			if err != nil {
				a.logger.Warn("File vanished during scan.", "path", path, "error", err)
				continue
			}
			a.session.UpdateFile(path, contents)
			changed = true
		}
		if len(current) != len(seen) {
			// Additions are caught above; a shrinking set means removals.
			changed = true
		}
		if !changed {
			continue
		}

		seen = current
		a.session.SetFiles(templates, manifests)
		if dirty := a.session.DirtyTemplates(); len(dirty) > 0 {
			a.logger.Info("Templates invalidated.", "count", len(dirty), "paths", dirty)
		}

		rep, err := a.analyzeAndWrite(ctx)
		if err != nil {
			a.logger.Error("Re-analysis failed.", "error", err)
			continue
		}
		if srv != nil {
			srv.Publish(mustYAML(rep))
			a.logger.Debug("Report published.", "subscribers", srv.Subscribers())
		}
	}
}

// snapshotStamps records the stat stamps of the files currently loaded, so
// the first tick does not re-read the whole project.
func (a *App) snapshotStamps() map[string]stamp {
	seen := make(map[string]stamp)
	templates, err := a.model.TemplateFiles()
	if err != nil {
		return seen
	}
	manifests, err := a.model.ManifestFiles()
	if err != nil {
		return seen
	}
	for _, path := range append(append([]string(nil), templates...), manifests...) {
		if st, err := os.Stat(path); err == nil {
			seen[path] = stamp{modTime: st.ModTime(), size: st.Size()}
		}
	}
	return seen
}
