package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/flyerfed/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaults verifies the out-of-the-box configuration
func TestDefaults(t *testing.T) {
	s := Defaults()

	assert.Equal(t, "https://www.prospektmaschine.de", s.BaseURL)
	assert.Equal(t, "/hypermarkte", s.ShopCategory)
	assert.Equal(t, 10*time.Second, s.Timeout)
	assert.True(t, s.IncludeFuture)
	assert.Equal(t, "Mozilla/5.0 (compatible; FlyerScraper/1.0)", s.UserAgent)
	assert.Equal(t, 1, s.Concurrency)
	assert.Equal(t, "flyers.json", s.OutputPath)
	assert.Empty(t, s.ArchiveDSN)
	assert.Equal(t, "scraper.log", s.LogFile)
	assert.False(t, s.Debug)
	assert.Equal(t, scraper.DefaultSelectors(), s.Selectors)
	assert.NoError(t, s.Validate())
}

// TestResolve_Precedence verifies overrides beat the file and the file
// beats defaults
func TestResolve_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`site:
  category: "/discounter"
  timeout: "20s"
scrape:
  concurrency: 3
storage:
  output: "from-file.json"
`), 0o600))

	s, err := Resolve(path, Overrides{
		OutputPath: "from-flag.json",
		ActiveOnly: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://www.prospektmaschine.de", s.BaseURL, "default kept")
	assert.Equal(t, "/discounter", s.ShopCategory, "file beats default")
	assert.Equal(t, 20*time.Second, s.Timeout)
	assert.Equal(t, 3, s.Concurrency)
	assert.Equal(t, "from-flag.json", s.OutputPath, "override beats file")
	assert.False(t, s.IncludeFuture)
}

// TestResolve_NoFile verifies defaults are used without a config file
func TestResolve_NoFile(t *testing.T) {
	writeHomeConfig(t, "")

	s, err := Resolve("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

// TestResolve_Invalid verifies validation and parse failures surface
func TestResolve_Invalid(t *testing.T) {
	writeHomeConfig(t, "")

	_, err := Resolve("", Overrides{BaseURL: "not a url"})
	assert.ErrorContains(t, err, "invalid base URL")

	_, err = Resolve("", Overrides{Concurrency: -2})
	assert.ErrorContains(t, err, "invalid concurrency")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site:\n  timeout: \"soon\"\n"), 0o600))
	_, err = Resolve(path, Overrides{})
	assert.ErrorContains(t, err, "invalid site.timeout")
}

// TestApplyFile_IncludeFuture verifies an explicit false in the file wins
// over the default
func TestApplyFile_IncludeFuture(t *testing.T) {
	s := Defaults()
	off := false

	require.NoError(t, s.ApplyFile(&FileConfig{Scrape: ScrapeConfig{IncludeFuture: &off}}))
	assert.False(t, s.IncludeFuture)

	require.NoError(t, s.ApplyFile(&FileConfig{}))
	assert.False(t, s.IncludeFuture, "absent value leaves setting alone")
}

// TestApplyFile_Selectors verifies partial selector overrides keep defaults
func TestApplyFile_Selectors(t *testing.T) {
	s := Defaults()
	var f FileConfig
	f.Scrape.Selectors.Flyer.Grid = "section.flyers"

	require.NoError(t, s.ApplyFile(&f))
	assert.Equal(t, "section.flyers", s.Selectors.Flyer.Grid)
	assert.Equal(t, scraper.DefaultSelectors().Flyer.Node, s.Selectors.Flyer.Node)
	assert.Equal(t, scraper.DefaultSelectors().Directory, s.Selectors.Directory)
}

// TestValidate verifies rejected settings
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"relative base URL", func(s *Settings) { s.BaseURL = "/hypermarkte" }},
		{"zero timeout", func(s *Settings) { s.Timeout = 0 }},
		{"negative timeout", func(s *Settings) { s.Timeout = -time.Second }},
		{"zero concurrency", func(s *Settings) { s.Concurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.modify(s)
			assert.Error(t, s.Validate())
		})
	}
}

// TestServiceConfig verifies settings carry over to the scrape service
func TestServiceConfig(t *testing.T) {
	s := Defaults()
	s.Apply(Overrides{ShopCategory: "/baumarkt", Concurrency: 2, ActiveOnly: true})

	sc := s.ServiceConfig()
	assert.Equal(t, s.BaseURL, sc.BaseURL)
	assert.Equal(t, "/baumarkt", sc.ShopCategory)
	assert.Equal(t, 2, sc.Concurrency)
	assert.False(t, sc.IncludeFuture)
	assert.Equal(t, s.Selectors, sc.Selectors)
}
