package banner

import (
	"fmt"

	"framelabel/pkg/config"
)

const banner = `
███████╗██████╗  █████╗ ███╗   ███╗███████╗██╗      █████╗ ██████╗ ███████╗██╗
██╔════╝██╔══██╗██╔══██╗████╗ ████║██╔════╝██║     ██╔══██╗██╔══██╗██╔════╝██║
█████╗  ██████╔╝███████║██╔████╔██║█████╗  ██║     ███████║██████╔╝█████╗  ██║
██╔══╝  ██╔══██╗██╔══██║██║╚██╔╝██║██╔══╝  ██║     ██╔══██║██╔══██╗██╔══╝  ██║
██║     ██║  ██║██║  ██║██║ ╚═╝ ██║███████╗███████╗██║  ██║██████╔╝███████╗███████╗
╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚══════╝
`

// PrintWithEff prints the banner plus a config summary from the
// effective config.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	datasetPath := eff.DatasetPath
	if datasetPath == "" && eff.Config != nil {
		datasetPath = eff.Config.Dataset.Path
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("Dataset:  %s\n", datasetPath)
	if eff.Config != nil {
		switch eff.Config.Store.Backend {
		case "sheets":
			fmt.Printf("Store:    sheets (%s / %s)\n", eff.Config.Store.Sheets.SpreadsheetID, eff.Config.Store.Sheets.Worksheet)
		case "sqlite":
			fmt.Printf("Store:    sqlite (%s)\n", eff.Config.Store.SQLite.Path)
		default:
			fmt.Printf("Store:    pebble (%s)\n", eff.Config.Store.Pebble.Path)
		}
	}
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config: %s\n", src)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET  /                 - annotation form (browser)")
	fmt.Println("GET  /annotations      - recent annotations view")
	fmt.Println("GET  /export.csv       - download all annotations")
	fmt.Println("GET  /v1/annotations?annotator=<id>&limit=<n> - list records (API key)")
	fmt.Println("GET  /v1/annotators/<id>/progress             - annotator progress (API key)")
	fmt.Println("GET  /v1/dataset/stats                        - dataset summary (API key)")
	fmt.Println("GET  /v1/coverage                             - per-sentence counts (API key)")

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("open http://localhost%s/ in a browser to annotate\n", addr)
	fmt.Println("curl -H 'X-API-Key: <key>' 'http://<host>:<port>/v1/annotations?limit=10'")

	fmt.Println("\n== Production? =================================================")
	be := 0
	ak := 0
	if eff.Config != nil {
		be = len(eff.Config.Security.APIKeys.Backend)
		ak = len(eff.Config.Security.APIKeys.Admin)
	}
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for the /v1 API)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for admin tooling)")
	}

	tlsOK := eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != ""
	if tlsOK {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	if eff.Config != nil && eff.Config.Session.Secret != "" {
		fmt.Println("- Session secret: set")
	} else {
		fmt.Println("- Session secret: MISSING (sessions reset on every restart)")
	}

	if eff.Config != nil && eff.Config.Export.Enabled {
		fmt.Printf("- Export: enabled (cron=%s, keep_last=%d)\n", eff.Config.Export.Cron, eff.Config.Export.KeepLast)
	} else {
		fmt.Println("- Export: disabled")
	}

	fmt.Println("\n== Logs: =================================================")
}
