// Command spritekiln is the CLI tool for the spritekiln icon pipeline.
// It ingests IcoMoon exports (selection.json manifests or SVG sprites),
// maintains the derived icon catalog, and serves it over a REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/spritekiln/spritekiln/core/catalog"
	"github.com/spritekiln/spritekiln/internal/api"
	"github.com/spritekiln/spritekiln/internal/backup"
	"github.com/spritekiln/spritekiln/internal/ingest"
	"github.com/spritekiln/spritekiln/internal/logging"
	"github.com/spritekiln/spritekiln/internal/store"
	"github.com/spritekiln/spritekiln/internal/validation"
	"github.com/spritekiln/spritekiln/internal/version"
)

// CLI defines the command-line interface for spritekiln.
var CLI struct {
	// Global flags
	Store     string `name:"store" short:"s" help:"SQLite store path (default: in-memory)" type:"path"`
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`

	// Command groups (noun-first organization)
	Ingest  IngestCmd    `cmd:"" help:"Ingest a selection.json manifest or SVG sprite"`
	Catalog CatalogGroup `cmd:"" help:"Catalog operations (list, show, clear)"`
	Sprite  SpriteGroup  `cmd:"" help:"Sprite operations (show, export)"`
	Backup  BackupGroup  `cmd:"" help:"Backup operations (export, import)"`
	Serve   ServeCmd     `cmd:"" help:"Start REST API server"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// CatalogGroup contains catalog read and maintenance operations.
type CatalogGroup struct {
	List  CatalogListCmd  `cmd:"" help:"List all icons in the catalog"`
	Show  CatalogShowCmd  `cmd:"" help:"Show one icon by name or alias"`
	Clear CatalogClearCmd `cmd:"" help:"Remove the catalog, sprite, and upload fingerprint"`
}

// SpriteGroup contains sprite read operations.
type SpriteGroup struct {
	Show   SpriteShowCmd   `cmd:"" help:"Print the stored sprite document"`
	Export SpriteExportCmd `cmd:"" help:"Write the stored sprite to a file"`
}

// BackupGroup contains snapshot export and import operations.
type BackupGroup struct {
	Export BackupExportCmd `cmd:"" help:"Export the store as an xz-compressed snapshot"`
	Import BackupImportCmd `cmd:"" help:"Import a snapshot into the store"`
}

// openStore opens the configured store. With no --store flag an ingest or
// read would touch nothing persistent, so most commands require it.
func openStore() (store.Store, error) {
	if CLI.Store == "" {
		return nil, fmt.Errorf("no store configured (pass --store <path>)")
	}
	return store.OpenSQLite(CLI.Store)
}

// IngestCmd ingests a manifest or sprite file into the store.
type IngestCmd struct {
	Path string `arg:"" help:"Path to selection.json or sprite .svg" type:"existingfile"`
}

func (c *IngestCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	asset := catalog.UploadedAsset{
		Filename: filepath.Base(c.Path),
		Size:     int64(len(data)),
		Data:     data,
	}

	ing := ingest.New(st)
	ctx := context.Background()

	var res *ingest.Result
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".json":
		res, err = ing.IngestJSON(ctx, asset)
	case ".svg":
		res, err = ing.IngestSVG(ctx, asset)
	default:
		return fmt.Errorf("unsupported file type: %s (expected .json or .svg)", c.Path)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if res.Deduplicated {
		fmt.Printf("Skipped: %s\n", c.Path)
		fmt.Printf("  Identical to the last ingested upload.\n")
		fmt.Printf("  Fingerprint: %s\n", res.Fingerprint)
		return nil
	}

	fmt.Printf("Ingested: %s\n", c.Path)
	fmt.Printf("  Upload ID: %s\n", res.UploadID)
	fmt.Printf("  BLAKE3: %s\n", res.Fingerprint)
	fmt.Printf("  Icons: %d\n", res.Icons)
	if res.SpriteBuilt {
		fmt.Printf("  Sprite: stored\n")
	}
	return nil
}

// CatalogListCmd lists all icons in the catalog.
type CatalogListCmd struct{}

func (c *CatalogListCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cat, err := st.Catalog(context.Background())
	if err != nil {
		return err
	}
	if cat.IsEmpty() {
		fmt.Println("Catalog is empty.")
		return nil
	}

	fmt.Printf("Catalog: %d icon(s)\n\n", len(cat))
	for _, icon := range cat {
		fmt.Printf("  %s", icon.Name)
		if icon.Unicode != "" {
			fmt.Printf("  u+%s", icon.Unicode)
		}
		if len(icon.Aliases) > 0 {
			fmt.Printf("  (aliases: %s)", strings.Join(icon.Aliases, ", "))
		}
		fmt.Println()
	}
	return nil
}

// CatalogShowCmd shows one icon by name or alias.
type CatalogShowCmd struct {
	Name string `arg:"" help:"Icon name or alias"`
}

func (c *CatalogShowCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cat, err := st.Catalog(context.Background())
	if err != nil {
		return err
	}

	icon, ok := cat.Find(c.Name)
	if !ok {
		return fmt.Errorf("icon not found: %s", c.Name)
	}

	fmt.Printf("Icon: %s\n", icon.Name)
	fmt.Printf("  Class: %s\n", icon.Class)
	if icon.Unicode != "" {
		fmt.Printf("  Unicode: u+%s\n", icon.Unicode)
	}
	if len(icon.Tags) > 0 {
		fmt.Printf("  Tags: %s\n", strings.Join(icon.Tags, ", "))
	}
	if len(icon.Aliases) > 0 {
		fmt.Printf("  Aliases: %s\n", strings.Join(icon.Aliases, ", "))
	}
	return nil
}

// CatalogClearCmd removes everything from the store.
type CatalogClearCmd struct{}

func (c *CatalogClearCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := ingest.New(st).Clear(context.Background()); err != nil {
		return fmt.Errorf("failed to clear: %w", err)
	}
	fmt.Println("Catalog cleared.")
	return nil
}

// SpriteShowCmd prints the stored sprite document to stdout.
type SpriteShowCmd struct{}

func (c *SpriteShowCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	spr, err := st.Sprite(context.Background())
	if err != nil {
		return err
	}
	if spr == "" {
		return fmt.Errorf("no sprite has been ingested")
	}

	fmt.Println(spr)
	return nil
}

// SpriteExportCmd writes the stored sprite to a file.
type SpriteExportCmd struct {
	Out string `arg:"" help:"Output SVG path" type:"path"`
}

func (c *SpriteExportCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	spr, err := st.Sprite(context.Background())
	if err != nil {
		return err
	}
	if spr == "" {
		return fmt.Errorf("no sprite has been ingested")
	}

	if err := os.WriteFile(c.Out, []byte(spr), 0644); err != nil {
		return fmt.Errorf("failed to write sprite: %w", err)
	}
	fmt.Printf("Sprite written: %s (%d bytes)\n", c.Out, len(spr))
	return nil
}

// BackupExportCmd exports the store as an xz-compressed snapshot.
type BackupExportCmd struct {
	Out string `arg:"" help:"Output snapshot path" type:"path"`
}

func (c *BackupExportCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := backup.ExportFile(context.Background(), st, c.Out); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("Snapshot written: %s\n", c.Out)
	return nil
}

// BackupImportCmd imports a snapshot into the store.
type BackupImportCmd struct {
	Path string `arg:"" help:"Snapshot path" type:"existingfile"`
}

func (c *BackupImportCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := backup.ImportFile(ctx, st, c.Path); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cat, err := st.Catalog(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot imported: %s\n", c.Path)
	fmt.Printf("  Icons: %d\n", len(cat))
	return nil
}

// ServeCmd starts the REST API server.
type ServeCmd struct {
	Port              int      `help:"HTTP server port" default:"8081"`
	RateLimitRequests int      `name:"rate-limit" help:"Rate limit in requests per minute (0 = disabled)" default:"0"`
	RateLimitBurst    int      `name:"rate-limit-burst" help:"Rate limit burst size" default:"10"`
	APIKey            string   `name:"api-key" env:"SPRITEKILN_API_KEY" help:"Require this API key via X-API-Key header"`
	TLSCert           string   `name:"tls-cert" help:"Path to TLS certificate file" type:"path"`
	TLSKey            string   `name:"tls-key" help:"Path to TLS private key file" type:"path"`
	AllowedOrigins    []string `name:"allowed-origins" help:"CORS allowed origins (default: allow all)"`
}

func (c *ServeCmd) Run() error {
	cfg := api.Config{
		Port:              c.Port,
		StorePath:         CLI.Store,
		RateLimitRequests: c.RateLimitRequests,
		RateLimitBurst:    c.RateLimitBurst,
		AllowedOrigins:    c.AllowedOrigins,
		Auth: api.AuthConfig{
			Enabled: c.APIKey != "",
			APIKey:  c.APIKey,
		},
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "" || c.TLSKey != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	}
	return api.Start(cfg)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("spritekiln %s\n", version.Version)
	fmt.Printf("  max upload size: %d bytes\n", validation.MaxUploadSize)
	return nil
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}

	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("spritekiln"),
		kong.Description("spritekiln - IcoMoon icon catalog and sprite pipeline"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
