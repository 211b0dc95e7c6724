// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ruleReloadDebounce batches rapid rule-file edits into one reload.
const ruleReloadDebounce = 500 * time.Millisecond

// Provider hands out the current Evaluator. The service uses it so an
// operator can edit an override rule directory without a restart,
// while each individual Evaluate call still sees one immutable rule
// snapshot.
//
// # Thread Safety
//
// Provider is safe for concurrent use.
type Provider struct {
	mu        sync.RWMutex
	evaluator *Evaluator
}

// NewProvider wraps an evaluator in a swappable provider.
func NewProvider(e *Evaluator) *Provider {
	return &Provider{evaluator: e}
}

// Current returns the evaluator backing new evaluations.
func (p *Provider) Current() *Evaluator {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.evaluator
}

// Swap atomically replaces the evaluator.
func (p *Provider) Swap(e *Evaluator) {
	p.mu.Lock()
	p.evaluator = e
	p.mu.Unlock()
}

// WatchRules watches an override rule directory and swaps the
// provider's evaluator when the files change. A reload that fails to
// parse is logged and discarded; the previous rule set stays active.
//
// WatchRules blocks until ctx is cancelled; run it in its own
// goroutine.
//
// # Inputs
//
//   - ctx: Cancels the watch. Must not be nil.
//   - dir: Directory containing the four detector rule files.
//   - provider: Receives reloaded evaluators.
func WatchRules(ctx context.Context, dir string, provider *Provider) error {
	if ctx == nil {
		return fmt.Errorf("ctx must not be nil")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create rule watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch rule dir %s: %w", dir, err)
	}
	slog.Info("Watching rule directory for changes", "dir", dir)

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".yaml" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce editor save bursts into a single reload.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(ruleReloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Rule watcher error", "error", err)
		case <-reload:
			set, err := LoadRuleSet(dir)
			if err != nil {
				slog.Error("Rule reload failed, keeping previous rules", "dir", dir, "error", err)
				continue
			}
			provider.Swap(NewEvaluatorWithRules(set))
			slog.Info("Reloaded detector rules", "dir", dir)
		}
	}
}
