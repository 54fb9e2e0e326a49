package app

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/devserver"
	"github.com/vk/weft/internal/report"
)

// Run executes the main application logic based on the provided
// configuration. In one-shot mode a report with error diagnostics makes Run
// return an error so the process exits non-zero.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.session.LoadProject(ctx); err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	rep, err := a.analyzeAndWrite(ctx)
	if err != nil {
		return err
	}

	if !a.appConfig.Watch {
		if n := rep.ErrorCount(); n > 0 {
			return fmt.Errorf("analysis reported %d error(s)", n)
		}
		a.logger.Debug("App.Run method finished.")
		return nil
	}

	var srv *devserver.Server
	if a.appConfig.Listen != "" {
		srv = devserver.New()
		srv.Publish(mustYAML(rep))
		go func() {
			if err := srv.Start(ctx, a.appConfig.Listen); err != nil {
				a.logger.Error("Live report server failed.", "error", err)
			}
		}()
	}

	a.logger.Info("Watching for changes.", "root", a.model.Root)
	return a.watch(ctx, srv)
}

// analyzeAndWrite runs one analysis pass and writes the report to the
// configured destination.
func (a *App) analyzeAndWrite(ctx context.Context) (*report.Report, error) {
	rep, err := a.session.Analyze(ctx)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	out := a.outW
	if a.appConfig.OutputPath != "" {
		f, err := os.Create(a.appConfig.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open report output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := rep.WriteYAML(out); err != nil {
		return nil, err
	}

	a.logger.Info("Analysis pass complete.",
		"templates", len(rep.Templates),
		"resources", len(rep.Resources),
		"errors", rep.ErrorCount(),
	)
	return rep, nil
}

// mustYAML renders a report for broadcasting. Reports always encode; the
// types carry no cycles or unmarshalable values.
func mustYAML(rep *report.Report) []byte {
	var buf bytes.Buffer
	if err := rep.WriteYAML(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
