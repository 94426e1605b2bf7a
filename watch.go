package witness

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnolang/witness/internal/validate"
)

// settle is how long Watch waits after a change so a burst of writes
// triggers a single run.
const settle = 100 * time.Millisecond

// Watch validates once, then again whenever the snapshot or the witness
// changes, until ctx is done. Runs happen one at a time on the calling
// goroutine and each run reports to report.
func Watch(ctx context.Context, logger *zap.Logger, config Config, opts ValidateOptions, report func(validate.Stats, error)) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	for _, path := range []string{opts.Snapshot, opts.Witness} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = true
		// editors often replace files, so watch the directory
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	report(Validate(ctx, logger, config, opts))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			logger.Debug("file changed", zap.String("path", event.Name))
			pending = time.After(settle)
		case <-pending:
			pending = nil
			report(Validate(ctx, logger, config, opts))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
