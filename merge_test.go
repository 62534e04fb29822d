// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persistarg

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/persistarg/config"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTrainerArgs(t *testing.T, p *Parser) {
	t.Helper()

	require.NoError(t, p.AddArgument(ArgumentSpec{Name: "batch-size", Type: Int, Required: true}))
	require.NoError(t, p.AddArgument(ArgumentSpec{Name: "val-data"}))
	require.NoError(t, p.AddArgument(ArgumentSpec{Name: "learning-rate", Type: Float64, Default: 0.1}))
	require.NoError(t, p.AddArgument(ArgumentSpec{Name: "verbose", Action: StoreTrue}))
	require.NoError(t, p.AddArgument(ArgumentSpec{Name: "timeout", Type: Duration}))
}

func loadSnapshot(t *testing.T, path string) config.Snapshot {
	t.Helper()

	codec, ok := config.CodecFor(path)
	require.True(t, ok)
	snap, err := config.Read(config.OS{}, path, codec)
	require.NoError(t, err)
	return snap
}

func TestParser_Parse_reload(t *testing.T) {
	t.Run("will not rewrite a config file it saved itself", func(t *testing.T) {
		testCases := []struct {
			name  string
			codec config.Codec
			ext   string
		}{
			{name: "yaml", codec: config.Yaml{}, ext: ".yml"},
			{name: "json", codec: config.Json{}, ext: ".json"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				p, fsys := newTestParser(t, Codec(tc.codec))
				addTrainerArgs(t, p)

				first, err := p.Parse(context.Background(), []string{
					"--batch-size", "32",
					"--verbose",
					"--timeout", "90s",
				})
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Len(t, fsys.writes, 1) {
					return
				}
				if !assert.True(t, strings.HasSuffix(first.Config(), tc.ext)) {
					return
				}

				second, err := p.Parse(context.Background(), []string{"--config", first.Config()})
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Len(t, fsys.writes, 1) {
					return
				}
				if diff := cmp.Diff(first.Snapshot(), second.Snapshot()); diff != "" {
					t.Errorf("reloaded arguments differ (-first +second):\n%s", diff)
					return
				}
				if !assert.Equal(t, 90*time.Second, second.Duration("timeout")) {
					return
				}
				if !assert.True(t, second.Bool("verbose")) {
					return
				}
			})
		}
	})

	t.Run("will rewrite a toml config file holding unset arguments", func(t *testing.T) {
		p, fsys := newTestParser(t, Codec(config.Toml{}))
		addTrainerArgs(t, p)

		first, err := p.Parse(context.Background(), []string{"--batch-size", "32"})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.NotContains(t, loadSnapshot(t, first.Config()), "val_data") {
			return
		}

		second, err := p.Parse(context.Background(), []string{"--config", first.Config()})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Len(t, fsys.writes, 2) {
			return
		}
		if !assert.Equal(t, 32, second.Int("batch_size")) {
			return
		}
		if !assert.False(t, second.IsSet("val_data")) {
			return
		}
	})

	t.Run("will use the parser codec for unknown file extensions", func(t *testing.T) {
		path := writeConfigFile(t, "run.conf", `{"batch_size": 8}`)

		p, _ := newTestParser(t, Codec(config.Json{}))
		addTrainerArgs(t, p)

		args, err := p.Parse(context.Background(), []string{"--config", path})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 8, args.Int("batch_size")) {
			return
		}
	})

	t.Run("will render the config file as a template", func(t *testing.T) {
		path := writeConfigFile(t, "run.yml", "batch_size: 8\nval_data: {{ dataDir }}/val\n")

		p, _ := newTestParser(t, TemplateFunc("dataDir", func() string {
			return "/data"
		}))
		addTrainerArgs(t, p)

		args, err := p.Parse(context.Background(), []string{"--config", path})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "/data/val", args.String("val_data")) {
			return
		}
	})
}

func TestParser_Parse_merge(t *testing.T) {
	t.Run("will fill unset arguments from the config file", func(t *testing.T) {
		path := writeConfigFile(t, "run.yml", "")
		err := os.WriteFile(path, []byte(fmt.Sprintf(
			"batch_size: 16\nconfig: %s\nlearning_rate: 0.1\ntimeout: 1m0s\nval_data: /data/val\nverbose: false\n",
			path,
		)), 0o644)
		if !assert.Nil(t, err) {
			return
		}

		p, fsys := newTestParser(t)
		addTrainerArgs(t, p)

		args, err := p.Parse(context.Background(), []string{"--config", path})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Empty(t, fsys.writes) {
			return
		}
		if !assert.Equal(t, path, args.Config()) {
			return
		}
		if !assert.Equal(t, 16, args.Int("batch_size")) {
			return
		}
		if !assert.Equal(t, "/data/val", args.String("val_data")) {
			return
		}
		if !assert.Equal(t, time.Minute, args.Duration("timeout")) {
			return
		}
	})

	t.Run("will satisfy required arguments from the config file", func(t *testing.T) {
		path := writeConfigFile(t, "run.yml", "batch_size: 16\n")

		p, _ := newTestParser(t)
		addTrainerArgs(t, p)

		args, err := p.Parse(context.Background(), []string{"-c", path})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 16, args.Int("batch_size")) {
			return
		}
	})

	t.Run("will prefer the command line and save a new config file", func(t *testing.T) {
		path := writeConfigFile(t, "run.yml", "batch_size: 16\nval_data: /data/val\n")

		p, fsys := newTestParser(t)
		addTrainerArgs(t, p)

		args, err := p.Parse(context.Background(), []string{"--config", path, "--batch-size", "32"})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, []string{args.Config()}, fsys.writes) {
			return
		}
		if !assert.NotEqual(t, path, args.Config()) {
			return
		}
		if !assert.Equal(t, 32, args.Int("batch_size")) {
			return
		}
		if !assert.Equal(t, "/data/val", args.String("val_data")) {
			return
		}

		saved := loadSnapshot(t, args.Config())
		if !assert.Equal(t, 32, saved["batch_size"]) {
			return
		}
		if !assert.Equal(t, "/data/val", saved["val_data"]) {
			return
		}
		if !assert.Equal(t, args.Config(), saved[ConfigDest]) {
			return
		}
		if !assert.Equal(t, 16, loadSnapshot(t, path)["batch_size"]) {
			return
		}
	})

	t.Run("will rewrite a config file with unknown keys", func(t *testing.T) {
		p, fsys := newTestParser(t)
		addTrainerArgs(t, p)

		first, err := p.Parse(context.Background(), []string{"--batch-size", "32"})
		if !assert.Nil(t, err) {
			return
		}

		snap := loadSnapshot(t, first.Config())
		snap["dropout"] = 0.5
		b, err := config.Yaml{}.Dump(snap)
		if !assert.Nil(t, err) {
			return
		}
		err = os.WriteFile(first.Config(), b, 0o644)
		if !assert.Nil(t, err) {
			return
		}

		second, err := p.Parse(context.Background(), []string{"--config", first.Config()})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Len(t, fsys.writes, 2) {
			return
		}
		if !assert.False(t, second.IsSet("dropout")) {
			return
		}
		if !assert.NotContains(t, loadSnapshot(t, second.Config()), "dropout") {
			return
		}
	})

	t.Run("will keep a default over the stored value and rewrite the config file", func(t *testing.T) {
		path := writeConfigFile(t, "run.yml", "batch_size: 16\nlearning_rate: 0.5\n")

		p, fsys := newTestParser(t)
		addTrainerArgs(t, p)

		args, err := p.Parse(context.Background(), []string{"--config", path})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Len(t, fsys.writes, 1) {
			return
		}
		if !assert.Equal(t, 0.1, args.Float64("learning_rate")) {
			return
		}
	})

	t.Run("will adopt the stored value of a constant flag not given on the command line", func(t *testing.T) {
		path := writeConfigFile(t, "run.yml", "batch_size: 16\nverbose: true\nmode: slow\n")

		p, _ := newTestParser(t)
		addTrainerArgs(t, p)
		require.NoError(t, p.AddArgument(ArgumentSpec{Name: "mode", Action: StoreConst, Const: "fast"}))

		args, err := p.Parse(context.Background(), []string{"--config", path})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.True(t, args.Bool("verbose")) {
			return
		}
		if !assert.Equal(t, "slow", args.String("mode")) {
			return
		}
	})

	t.Run("will prefer a constant flag given on the command line", func(t *testing.T) {
		path := writeConfigFile(t, "run.yml", "batch_size: 16\nmode: slow\n")

		p, fsys := newTestParser(t)
		addTrainerArgs(t, p)
		require.NoError(t, p.AddArgument(ArgumentSpec{Name: "mode", Action: StoreConst, Const: "fast"}))

		args, err := p.Parse(context.Background(), []string{"--config", path, "--mode"})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Len(t, fsys.writes, 1) {
			return
		}
		if !assert.Equal(t, "fast", args.String("mode")) {
			return
		}
	})

	t.Run("will reject mutex members set by the config file and the command line together", func(t *testing.T) {
		path := writeConfigFile(t, "run.yml", "train_data: /data/train\n")

		p, fsys := newTestParser(t)
		g := p.BeginMutexGroup(true)
		require.NoError(t, g.AddArgument(ArgumentSpec{Name: "train-data"}))
		require.NoError(t, g.AddArgument(ArgumentSpec{Name: "resume-from"}))

		_, err := p.Parse(context.Background(), []string{"--config", path, "--resume-from", "ckpt"})

		var uerr UsageError
		if !assert.ErrorAs(t, err, &uerr) {
			return
		}
		expected := []string{
			"the following fields are not allowed to be set together: train_data, resume_from",
		}
		if !assert.Equal(t, expected, uerr.Groups) {
			return
		}
		if !assert.Empty(t, fsys.writes) {
			return
		}
	})

	t.Run("will return a ConfigReadError", func(t *testing.T) {
		t.Run("if the config file does not exist", func(t *testing.T) {
			p, _ := newTestParser(t)
			addTrainerArgs(t, p)

			_, err := p.Parse(context.Background(), []string{"--config", "does-not-exist.yml", "--batch-size", "1"})

			var rerr ConfigReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.ErrorIs(t, err, fs.ErrNotExist) {
				return
			}
			if !assert.Equal(t, 1, ExitCode(err)) {
				return
			}
		})

		t.Run("if the config file is not valid yaml", func(t *testing.T) {
			path := writeConfigFile(t, "run.yml", "hello")

			p, _ := newTestParser(t)
			addTrainerArgs(t, p)

			_, err := p.Parse(context.Background(), []string{"--config", path})

			var rerr ConfigReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.Equal(t, path, rerr.Path) {
				return
			}
			var yerr config.InvalidYamlError
			if !assert.ErrorAs(t, err, &yerr) {
				return
			}
		})

		t.Run("if a stored value has the wrong type", func(t *testing.T) {
			path := writeConfigFile(t, "run.yml", "batch_size: lots\n")

			p, _ := newTestParser(t)
			addTrainerArgs(t, p)

			_, err := p.Parse(context.Background(), []string{"--config", path})

			var rerr ConfigReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			var cerr config.TypeCoercionError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
		})

		t.Run("if a stored int has a fractional part", func(t *testing.T) {
			path := writeConfigFile(t, "run.yml", "batch_size: 32.7\nconfig: c.yml\n")

			p, fsys := newTestParser(t)
			addTrainerArgs(t, p)

			args, err := p.Parse(context.Background(), []string{"--config", path})
			if !assert.Nil(t, args) {
				return
			}

			var rerr ConfigReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			var cerr config.TypeCoercionError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.ErrorIs(t, err, config.ErrLossyConversion) {
				return
			}
			if !assert.Empty(t, fsys.writes) {
				return
			}
		})
	})
}
