// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/addonkit/addonkit/internal/hostrun"
	"github.com/addonkit/addonkit/internal/watch"
	"github.com/addonkit/addonkit/pkg/bundle"
)

type (
	// HostRunner runs one host session. *hostrun.Host implements it.
	HostRunner interface {
		Run(ctx context.Context, opts hostrun.RunOptions) error
	}

	// TestOptions configures Test.
	TestOptions struct {
		// ReleaseDir stages the unzipped bundle. It must lie outside the
		// workspace.
		ReleaseDir string
		// AddonPath is the host's addon folder.
		AddonPath string
		Extension bool
		// Watch redeploys on every source change until the host exits.
		Watch bool
		// PollInterval overrides the watch loop's polling interval.
		PollInterval time.Duration
		Host         HostRunner
	}
)

// Deploy releases the addon into releaseDir without zipping, replaces
// addonPath/<name> with the bundle and writes the bundle signature next to
// it. It returns the deployed folder.
func (w *Workspace) Deploy(ctx context.Context, name, releaseDir, addonPath string, extension bool) (string, error) {
	res, err := w.Release(ctx, name, ReleaseOptions{DestinationDir: releaseDir, Extension: extension})
	if err != nil {
		return "", err
	}
	target := filepath.Join(addonPath, name)
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("failed to remove previous deployment: %w", err)
	}
	if err := bundle.CopyDir(res.BundleDir, target); err != nil {
		return "", fmt.Errorf("failed to deploy %s: %w", name, err)
	}
	sig, err := bundle.Signature(res.BundleDir)
	if err != nil {
		return "", err
	}
	if err := bundle.WriteSignature(target, sig); err != nil {
		return "", err
	}
	w.logger.Debug("addon deployed", "addon", name, "path", target, "signature", sig)
	return target, nil
}

// Test deploys the addon into the host and runs the host. Without Watch the
// addon is enabled once. With Watch the host polls the signature file and
// reloads the addon, while a watcher redeploys on every change to the
// workspace's Python sources. The deployed copy is removed when the host
// exits or ctx is cancelled.
func (w *Workspace) Test(ctx context.Context, name string, opts TestOptions) (err error) {
	if err := w.requireAddon("test", name); err != nil {
		return err
	}
	if opts.Host == nil {
		return errors.New("test: no host configured")
	}
	if opts.AddonPath == "" {
		return errors.New("test: no host addon path configured")
	}

	target, err := w.Deploy(ctx, name, opts.ReleaseDir, opts.AddonPath, opts.Extension)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.RemoveAll(target); rmErr != nil && err == nil {
			err = fmt.Errorf("failed to remove deployed addon: %w", rmErr)
		}
	}()

	run := hostrun.RunOptions{DeployedPath: target, ProjectRoot: w.root}
	if !opts.Watch {
		w.logger.Info("addon will not reload on changes", "addon", name)
		run.Script = hostrun.EnableScript(name)
		return opts.Host.Run(ctx, run)
	}

	watcher, err := watch.New(watch.Config{
		BaseDir: w.root,
		Exclude: []string{opts.ReleaseDir, opts.AddonPath},
		Logger:  w.logger,
	})
	if err != nil {
		return err
	}

	loopCtx, stop := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- watch.Loop(loopCtx, watcher, func(ctx context.Context) error {
			_, err := w.Deploy(ctx, name, opts.ReleaseDir, opts.AddonPath, opts.Extension)
			return err
		}, watch.LoopOptions{Interval: opts.PollInterval, Logger: w.logger})
	}()

	run.Script = hostrun.HotReloadScript(name, filepath.Join(target, bundle.SignatureFile))
	hostErr := opts.Host.Run(ctx, run)

	stop()
	if loopErr := <-loopDone; loopErr != nil {
		w.logger.Error("watcher stopped", "err", loopErr)
	}
	return hostErr
}
