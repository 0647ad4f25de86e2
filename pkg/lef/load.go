package lef

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/cache"
)

// LoadMacroTable parses the given LEF files into one MacroTable. The parsed
// table is cached under the SHA-256 of the concatenated file contents, so a
// library that has not changed is only parsed once. A nil cache disables
// caching.
func LoadMacroTable(ctx context.Context, c cache.Cache, logger *log.Logger, paths ...string) (MacroTable, error) {
	if logger == nil {
		logger = log.Default()
	}
	if c == nil {
		c = cache.NewNullCache()
	}

	var all bytes.Buffer
	sources := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources = append(sources, data)
		all.Write(data)
		all.WriteByte(0)
	}

	key := "lef:" + cache.Hash(all.Bytes())
	if data, hit, err := c.Get(ctx, key); err != nil {
		logger.Warn("macro cache read failed", "err", err)
	} else if hit {
		var table MacroTable
		if err := json.Unmarshal(data, &table); err == nil {
			logger.Debug("macro table from cache", "macros", len(table))
			return table, nil
		}
		logger.Warn("discarding unreadable macro cache entry", "key", key)
	}

	p, err := NewParser()
	if err != nil {
		return nil, err
	}

	table := make(MacroTable)
	for i, data := range sources {
		lib, err := p.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
		macros, skipped := lib.Macros()
		for _, name := range skipped {
			logger.Warn("macro without SIZE skipped", "file", paths[i], "macro", name)
		}
		table.Merge(macros)
	}
	logger.Debug("parsed macro library", "files", len(paths), "macros", len(table))

	if data, err := json.Marshal(table); err == nil {
		if err := c.Set(ctx, key, data, 0); err != nil {
			logger.Warn("macro cache write failed", "err", err)
		}
	}

	return table, nil
}
