package cmd

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tablestat/internal/datasource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd executes the root command with args and returns what it printed.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeDemoDB creates the happiness and beer tables used by the demo.
func writeDemoDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE happiness (country TEXT, score REAL, gdp REAL, family REAL)`,
		`INSERT INTO happiness VALUES
			('a', 1, 2, 3), ('b', 2, 4, 1), ('c', 3, 6, 4), ('d', 4, 8, 1), ('e', 5, 10.5, 5)`,
		`CREATE TABLE beer (name TEXT, brewed DATE, abv REAL, ibu INTEGER)`,
	}
	for i := 0; i < 12; i++ {
		ibu := 30
		if i == 5 {
			ibu = 300
		}
		stmts = append(stmts, fmt.Sprintf(`INSERT INTO beer VALUES ('b%d', '2024-01-%02d', %.1f, %d)`, i, i+1, 4.0+0.1*float64(i), ibu))
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	return path
}

func TestCLI_DemoAgainstSQLite(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeDemoDB(t)

	out, err := runCmd(t, "demo", "--driver", "sqlite", "--database", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Cross correlation example with the happiness db\n"+
		"found correlation between score and gdp with a correlation coefficient of 0.99")
	assert.NotContains(t, out, "family")
	assert.Contains(t, out, "Trendline example with the beer db\nPositive trend detected for abv with a slope of ")
	assert.NotContains(t, out, "Positive trend detected for ibu")
	assert.Contains(t, out, "Cross correlation example with the beer db\nFinding anomalies\n")
	assert.True(t, strings.HasSuffix(out, "Found anomalies in column ibu\n[300]\n"), out)
}

func TestCLI_RootRunsDemo(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeDemoDB(t)

	out, err := runCmd(t, "--driver", "sqlite", "--database", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Cross correlation example with the happiness db\n"), out)
}

func TestCLI_SingleAnalyses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeDemoDB(t)
	conn := []string{"--driver", "sqlite", "--database", path}

	out, err := runCmd(t, append([]string{"trend", "happiness"}, conn...)...)
	require.NoError(t, err)
	assert.Equal(t, "No time-series columns found, cannot fit a trendline.\n", out)

	out, err = runCmd(t, append([]string{"anomalies", "beer"}, conn...)...)
	require.NoError(t, err)
	assert.Equal(t, "Found anomalies in column ibu\n[300]\n", out)

	out, err = runCmd(t, append([]string{"correlate", "beer"}, conn...)...)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = runCmd(t, append([]string{"analyze", "beer"}, conn...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Positive trend detected for abv")
	assert.Contains(t, out, "Found anomalies in column ibu")

	out, err = runCmd(t, append([]string{"columns", "beer"}, conn...)...)
	require.NoError(t, err)
	assert.Equal(t, "numeric: [abv ibu]\ntemporal: [brewed]\n", out)
}

func TestCLI_DataSourceFailureAbortsDemo(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	bad := filepath.Join(t.TempDir(), "missing", "dir", "demo.db")

	out, err := runCmd(t, "demo", "--driver", "sqlite", "--database", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, datasource.ErrDataSource), "got %v", err)
	assert.Equal(t, "Cross correlation example with the happiness db\n", out)
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgPath := filepath.Join(home, "tablestat.yaml")

	_, err := runCmd(t, "config", "set", "port", "6543", "--config", cfgPath)
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "password", "supersecret", "--config", cfgPath)
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "bogus", "1", "--config", cfgPath)
	require.Error(t, err)

	out, err := runCmd(t, "config", "show", "--config", cfgPath, "--driver", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 6543\n")
	assert.Contains(t, out, "password: sup****ret\n")
}
