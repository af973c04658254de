package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/dbconfig"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/store"
)

// Branding mirrors the team entries of the fixture file.
type Branding struct {
	NameAbbr       string `json:"name_abbr"`
	NameFull       string `json:"name_full"`
	LogoURL        string `json:"logo_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	FontColor      string `json:"font_color"`
}

// Fixture is one match to create.
type Fixture struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Format      models.GameFormat `json:"format"`
	Home        Branding          `json:"home"`
	Away        Branding          `json:"away"`
}

func main() {
	owner := flag.String("owner", "local", "owner id the matches are created for")
	file := flag.String("file", "go/internal/assets/matches.json", "fixture file")
	flag.Parse()

	// 1) Load the fixtures
	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var fixtures []Fixture
	if err := sonic.Unmarshal(data, &fixtures); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	ctx := context.Background()
	pool, err := cfg.NewPool(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	matches := store.NewPostgresStore(pool)

	// 3) Insert and count
	var created, errs int
	for _, f := range fixtures {
		m := buildMatch(f, *owner, time.Now())
		if _, err := matches.Create(ctx, m); err != nil {
			fmt.Fprintf(os.Stderr, "create %q: %v\n", f.Name, err)
			errs++
			continue
		}
		fmt.Printf("created %s  %s\n", m.ID, f.Name)
		created++
	}

	fmt.Printf("\nSeed complete: total=%d created=%d errors=%d\n", len(fixtures), created, errs)
	if errs > 0 {
		os.Exit(1)
	}
}

func buildMatch(f Fixture, owner string, now time.Time) models.Match {
	m := models.NewMatch(uuid.New(), owner, f.Name, now)
	m.Description = f.Description
	if f.Format.Type.Valid() && f.Format.DurationSec > 0 {
		m.GameFormat = f.Format
		m.TimerRemainingSec = f.Format.DurationSec
	}
	applyBranding(&m.HomeTeam, f.Home)
	applyBranding(&m.AwayTeam, f.Away)
	return m
}

func applyBranding(t *models.Team, b Branding) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.NameAbbr, b.NameAbbr)
	set(&t.NameFull, b.NameFull)
	set(&t.LogoURL, b.LogoURL)
	set(&t.PrimaryColor, b.PrimaryColor)
	set(&t.SecondaryColor, b.SecondaryColor)
	set(&t.FontColor, b.FontColor)
}
