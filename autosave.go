// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/z5labs/persistarg/config"
)

// autosavePath names the config file after the current minute,
// e.g. configs/autosaved/config_2024_03_09_17_42.yml.
func (p *Parser) autosavePath() string {
	now := p.now()
	name := fmt.Sprintf(
		"config_%s_%s.%s",
		now.Format("2006_01_02"),
		now.Format("15_04"),
		p.codec.Ext(),
	)
	return filepath.Join(p.autosaveDir, name)
}

// autosave points args at a fresh config file and writes them to it,
// replacing any file already saved within the same minute.
func (p *Parser) autosave(ctx context.Context, args *Args) error {
	path := p.autosavePath()
	args.set(ConfigDest, path)

	err := config.Write(p.fsys, path, p.codec, args.Snapshot())
	if err != nil {
		return ConfigWriteError{Path: path, Cause: err}
	}

	p.log.InfoContext(ctx, "saved the updated config file", slog.String("config", path))
	return nil
}
