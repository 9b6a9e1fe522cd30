package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sparkify/datalake"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestSetAllConfig(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "datalake.toml")
	require.NoError(t, os.WriteFile(conf, []byte(`
input-path = "s3://from-config/in"
output_path = "s3://from-config/out"
region = "ap-south-1"
read-concurrency = 9
`), 0644))
	t.Setenv("DATALAKE_REGION", "eu-west-1")
	t.Setenv("DATALAKE_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config := flags.String("config", "", "")
	input := flags.String("input-path", "", "")
	output := flags.String("output-path", "", "")
	region := flags.String("region", "us-west-2", "")
	level := flags.String("log-level", "info", "")
	conc := flags.Int("read-concurrency", 4, "")
	rows := flags.Int("rows-per-file", 1000000, "")
	require.NoError(t, flags.Parse([]string{"--config", conf, "--input-path", "s3://from-flag/in"}))

	require.NoError(t, setAllConfig(viper.New(), flags, "DATALAKE"))
	require.Equal(t, conf, *config)
	require.Equal(t, "s3://from-flag/in", *input, "flags win over the config file")
	require.Equal(t, "s3://from-config/out", *output, "underscore keys are read from the config file")
	require.Equal(t, "eu-west-1", *region, "env wins over the config file")
	require.Equal(t, "debug", *level)
	require.Equal(t, 9, *conc)
	require.Equal(t, 1000000, *rows, "defaults are kept")
}

func TestSetAllConfigBadFile(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}))
	err := setAllConfig(viper.New(), flags, "DATALAKE")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.toml")
}

func TestGenThenRun(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "tables")
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	rc := NewRootCommand(context.Background(), nil, stdout, stderr)
	rc.SetArgs([]string{"gen", "--dir", in, "--songs", "12", "--artists", "4", "--events", "200", "--users", "5"})
	require.NoError(t, rc.Execute())
	require.Contains(t, stdout.String(), "Done:")

	rc = NewRootCommand(context.Background(), nil, stdout, stderr)
	rc.SetArgs([]string{"--input-path", in, "--output-path", out, "--stats", "--log-format", "console"})
	require.NoError(t, rc.Execute())
	require.Equal(t, in, RunMain.InputPath)
	require.True(t, RunMain.Stats)
	require.Contains(t, stdout.String(), "rows.build_songs: 12")

	for _, table := range []string{"songs", "artists", "users", "time", "songplays"} {
		_, err := os.Stat(filepath.Join(out, table, datalake.SuccessMarker))
		require.NoError(t, err, table)
	}
}

func TestRunInvalidFlags(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	rc := NewRootCommand(context.Background(), nil, stdout, stderr)
	rc.SetArgs([]string{"--output-path", t.TempDir(), "--compression", "lz4"})
	err := rc.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "InputPath")
}

func TestRootHelpListsNoCommands(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	rc := NewRootCommand(context.Background(), nil, stdout, stderr)
	gen, _, err := rc.Find([]string{"gen"})
	require.NoError(t, err)
	require.Equal(t, "gen", gen.Name())
	require.True(t, gen.Hidden)

	rc.SetArgs([]string{"--help"})
	require.NoError(t, rc.Execute())
	require.NotContains(t, stdout.String(), "Generate a fake")
	require.NotContains(t, stdout.String(), "completion")
	require.Contains(t, stdout.String(), "--input-path")
}
