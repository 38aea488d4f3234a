package bridge

import (
	"context"
	"fmt"
	"time"

	"rockerboo/mcp-bridge/async"
	"rockerboo/mcp-bridge/collections"
	"rockerboo/mcp-bridge/interfaces"
	"rockerboo/mcp-bridge/logger"
	"rockerboo/mcp-bridge/session"
	"rockerboo/mcp-bridge/store"
)

// StartAll launches every stored server definition concurrently, staggering
// launches to avoid a spawn stampede. A failed launch is logged and does not
// stop the others; the failed session stays queryable through the registry.
func StartAll(ctx context.Context, registry interfaces.BridgeRegistry, defs []store.Definition, stagger time.Duration) {
	if len(defs) == 0 {
		logger.Info("no stored server definitions to start")
		return
	}

	logger.Info(fmt.Sprintf("starting %d stored servers", len(defs)))

	byName := make(map[string]store.Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	// Sorted names give a deterministic launch order for the stagger.
	names := collections.SortedKeys(byName)

	results, err := async.MapStaggered(ctx, names, stagger, func(name string) (session.Snapshot, error) {
		return registry.StartServer(ctx, name, byName[name])
	})
	if err != nil {
		logger.Error(fmt.Sprintf("startup aborted: %v", err))
		return
	}

	started := 0

	for _, result := range results {
		if result.Error != nil {
			logger.Error(fmt.Sprintf("server %q failed to start: %v", result.Key, result.Error))
			continue
		}

		started++
	}

	logger.Info(fmt.Sprintf("startup complete: %d/%d servers running", started, len(defs)))
}
