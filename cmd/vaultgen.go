package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/panyam/vaultgen"
)

var (
	config_file       = flag.String("config_file", "vaultgen.yaml", "Config file to load site config from")
	site_prefix       = flag.String("site_prefix", "", "The path prefix the site is served under.  Overrides the respective value in the config if provided")
	templates_dir     = flag.String("templates_dir", "", "Folder from which page templates are loaded.  Overrides the respective value in the config if provided")
	min_variant_width = flag.Int("min_variant_width", 0, "Floor width for responsive image variants.  Overrides the respective value in the config if provided")
	serve_addr        = flag.String("serve_addr", "", "If set, the built site is served on this address after building")
)

func main() {
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("Usage: vaultgen [flags] <content_root> <output_dir>")
		flag.PrintDefaults()
		log.Fatal("content root and output dir are required")
	}

	config, err := vaultgen.LoadConfig(*config_file)
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	config.ContentRoot = flag.Arg(0)
	config.OutputDir = flag.Arg(1)
	if *site_prefix != "" {
		config.PathPrefix = *site_prefix
	}
	if *templates_dir != "" {
		config.TemplateFolders = []string{*templates_dir}
	}
	if *min_variant_width > 0 {
		config.MinVariantWidth = *min_variant_width
	}

	site := config.Site()
	stats, err := site.Build()
	if err != nil {
		log.Fatal("Build failed: ", err)
	}
	fmt.Println(stats)

	if *serve_addr != "" {
		router := mux.NewRouter()
		router.PathPrefix(site.PathPrefix).Handler(http.StripPrefix(site.PathPrefix, site))

		srv := &http.Server{
			Handler: withLogger(router),
			Addr:    *serve_addr,
		}
		log.Printf("Serving site on %s:", *serve_addr)
		log.Fatal(srv.ListenAndServe())
	}
}

func withLogger(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		// pass the handler to httpsnoop to get http status and latency
		m := httpsnoop.CaptureMetrics(handler, writer, request)
		log.Printf("http[%d]-- %s -- %s\n", m.Code, m.Duration, request.URL.Path)
	})
}
