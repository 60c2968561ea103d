package artifact

import (
	"log/slog"
	"sync"
)

// Cache loads the artifact on first use and keeps the result, success or
// failure, for the life of the process. Concurrent callers share one load.
type Cache struct {
	dir  string
	log  *slog.Logger
	load func(string) (*Artifact, error)

	once sync.Once
	art  *Artifact
	err  error
}

// NewCache returns a Cache reading from dir.
func NewCache(dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		dir:  dir,
		log:  logger.With("component", "artifact"),
		load: Load,
	}
}

// Get returns the artifact, loading it on the first call. A non-nil error
// wraps ErrUnavailable and means callers must use the heuristic scorer.
func (c *Cache) Get() (*Artifact, error) {
	c.once.Do(func() {
		c.art, c.err = c.load(c.dir)
		if c.err != nil {
			c.log.Warn("trained model unavailable, heuristic scorer will be used",
				"dir", c.dir,
				"error", c.err,
			)
			return
		}
		c.log.Info("trained model loaded",
			"dir", c.dir,
			"kind", c.art.Kind,
			"features", len(c.art.Scaler.Mean),
		)
	})
	return c.art, c.err
}

// Close releases the cached artifact, if any was loaded.
func (c *Cache) Close() error {
	if c.art == nil {
		return nil
	}
	return c.art.Close()
}
