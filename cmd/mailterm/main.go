package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apastor/mailterm/internal/config"
	"github.com/apastor/mailterm/internal/db"
	"github.com/apastor/mailterm/internal/mailbox"
	"github.com/apastor/mailterm/internal/services"
	"github.com/apastor/mailterm/internal/tui"
	"github.com/apastor/mailterm/internal/version"
	"github.com/apastor/mailterm/pkg/auth"
)

// mailScope covers read, modify, compose, and permanent delete. The
// narrower gmail.modify scope cannot hard-delete messages.
const mailScope = "https://mail.google.com/"

// bodyCacheMaxAge bounds how long filter-scanned bodies stay cached.
const bodyCacheMaxAge = 30 * 24 * time.Hour

func main() {
	configPathFlag := flag.String("config", "", "Path to JSON configuration file (default: ~/.config/mailterm/config.json)")
	credPathFlag := flag.String("credentials", "", "Path to OAuth client credentials JSON (default: ~/.config/mailterm/credentials.json)")
	setupFlag := flag.Bool("setup", false, "Run interactive setup wizard")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Run with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --setup                # Run interactive setup wizard\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version              # Show version information\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config custom.json   # Use custom configuration\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MAILTERM_CONFIG       Override default config file path\n")
		fmt.Fprintf(os.Stderr, "  MAILTERM_CREDENTIALS  Override default credentials file path\n")
		fmt.Fprintf(os.Stderr, "  MAILTERM_TOKEN        Override default token file path\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	if *setupFlag {
		runSetupWizard()
		return
	}

	configPath := getConfigPath(*configPathFlag)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: could not load configuration: %v", err)
		cfg = config.DefaultConfig()
	}

	credPath := getCredentialsPath(*credPathFlag, cfg.Credentials)
	tokenPath := getTokenPath(cfg.Token)

	if credPath == "" {
		log.Fatal("OAuth credentials file is required. Provide it via --credentials or config file.")
	}
	if _, err := os.Stat(credPath); err != nil {
		log.Fatalf("Credentials file not found at %s. Download client credentials from Google Cloud Console and place it there.", credPath)
	}

	ctx := context.Background()
	service, err := auth.NewGmailService(ctx, credPath, tokenPath, mailScope)
	if err != nil {
		log.Fatalf("Could not initialize mail service: %v", err)
	}

	client := mailbox.NewClient(service)
	accountEmail, err := client.ActiveAccountEmail(ctx)
	if err != nil {
		log.Printf("Warning: could not resolve account email: %v", err)
	}

	repo := services.NewMailboxRepository(client)
	repo.SetTimeout(cfg.GetTimeout())

	// The body cache feeds the filter path; run without it if it fails.
	cachePath := cfg.CachePath
	if cachePath == "" {
		cachePath = config.DefaultCachePath()
	}
	var store *db.Store
	if cachePath != "" {
		if st, err := db.Open(ctx, cachePath); err == nil {
			store = st
			cache := db.NewBodyCacheStore(st)
			repo.SetBodyCache(cache, accountEmail)
			if _, err := cache.Prune(ctx, accountEmail, time.Now().Add(-bodyCacheMaxAge)); err != nil {
				log.Printf("Warning: could not prune body cache: %v", err)
			}
		} else {
			log.Printf("Warning: could not open body cache: %v", err)
		}
	}

	listService := services.NewListService(repo, services.ListOptions{
		PageSize:        cfg.List.PageSize,
		SearchBatchSize: cfg.List.SearchBatchSize,
		MaxSearch:       cfg.List.MaxSearch,
	})
	messageService := services.NewMessageService(repo, client)

	app := tui.NewApp(cfg, client, listService, messageService)
	listService.SetLogger(app.Logger())
	messageService.SetLogger(app.Logger())
	repo.SetLogger(app.Logger())

	runErr := app.Run()
	if store != nil {
		_ = store.Close()
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", runErr)
		os.Exit(1)
	}
}

// getConfigPath returns the configuration file path using the following priority:
// 1. CLI flag
// 2. Environment variable MAILTERM_CONFIG
// 3. Default path ~/.config/mailterm/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("MAILTERM_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}

	return config.DefaultConfigPath()
}

// getCredentialsPath returns the credentials file path using the following priority:
// 1. CLI flag
// 2. Environment variable MAILTERM_CREDENTIALS
// 3. Config file setting
// 4. Default path ~/.config/mailterm/credentials.json
func getCredentialsPath(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("MAILTERM_CREDENTIALS"); envPath != "" {
		return expandPath(envPath)
	}

	if configValue != "" {
		return expandPath(configValue)
	}

	credPath, _ := config.DefaultCredentialPaths()
	return credPath
}

// getTokenPath returns the token file path using the following priority:
// 1. Environment variable MAILTERM_TOKEN
// 2. Config file setting
// 3. Default path ~/.config/mailterm/token.json
func getTokenPath(configValue string) string {
	if envPath := os.Getenv("MAILTERM_TOKEN"); envPath != "" {
		return expandPath(envPath)
	}

	if configValue != "" {
		return expandPath(configValue)
	}

	_, tokenPath := config.DefaultCredentialPaths()
	return tokenPath
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}

// runSetupWizard walks through first-run configuration.
func runSetupWizard() {
	fmt.Println("📧 mailterm Setup Wizard")
	fmt.Println("========================")
	fmt.Println()

	defaultConfigPath := config.DefaultConfigPath()
	credPath, tokenPath := config.DefaultCredentialPaths()

	if _, err := os.Stat(defaultConfigPath); err == nil {
		fmt.Printf("✅ Configuration file already exists: %s\n", defaultConfigPath)
	} else {
		fmt.Printf("📝 Will create configuration file: %s\n", defaultConfigPath)
	}

	if _, err := os.Stat(credPath); err == nil {
		fmt.Printf("✅ Credentials file found: %s\n", credPath)
	} else {
		fmt.Printf("⚠️  Credentials file missing: %s\n", credPath)
		fmt.Println()
		fmt.Println("📋 To set up API credentials:")
		fmt.Println("1. Go to https://console.cloud.google.com/")
		fmt.Println("2. Create a new project or select an existing one")
		fmt.Println("3. Enable the Gmail API")
		fmt.Println("4. Create OAuth 2.0 credentials (Desktop application)")
		fmt.Println("5. Download the JSON file and save it as:")
		fmt.Printf("   %s\n", credPath)
		fmt.Println()
	}

	if _, err := os.Stat(tokenPath); err == nil {
		fmt.Printf("✅ Token file exists: %s\n", tokenPath)
	} else {
		fmt.Printf("🔐 Token will be created on first login: %s\n", tokenPath)
	}

	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		fmt.Println()
		fmt.Print("📄 Create default configuration file? [Y/n]: ")

		var response string
		_, _ = fmt.Scanln(&response)

		if response == "" || strings.ToLower(response) == "y" || strings.ToLower(response) == "yes" {
			cfg := config.DefaultConfig()
			if err := cfg.SaveConfig(defaultConfigPath); err != nil {
				fmt.Printf("❌ Failed to create config file: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✅ Created configuration file: %s\n", defaultConfigPath)
		}
	}

	fmt.Println()
	fmt.Println("🚀 Setup complete! You can now run:")
	fmt.Printf("   %s\n", os.Args[0])
}
