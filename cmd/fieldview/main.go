package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agromaps/fieldview/internal/logger"
	"github.com/agromaps/fieldview/internal/server"
)

// Options defines all CLI flags and env vars for the fieldview server.
// Flags: --host, --port, --data-dir, --web-dir, --inference-url,
// --inference-timeout, --environment
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host             string `doc:"Host to bind to" default:"0.0.0.0"`
	Port             int    `doc:"Port to listen on" short:"p" default:"8090"`
	DataDir          string `doc:"Directory for uploads and preferences" default:".data"`
	WebDir           string `doc:"Path to web/ directory" default:"web"`
	InferenceURL     string `doc:"Field delineation inference endpoint" default:"http://localhost:8502/api/v1/delineate"`
	InferenceTimeout int    `doc:"Inference request timeout in seconds" default:"300"`
	Environment      string `doc:"Environment (development or production)" default:"development"`
}

func newServer(opts *Options) (*server.Server, error) {
	log := logger.New(opts.Environment)
	return server.New(server.Config{
		Host:             opts.Host,
		Port:             fmt.Sprintf("%d", opts.Port),
		DataDir:          opts.DataDir,
		WebDir:           opts.WebDir,
		InferenceURL:     opts.InferenceURL,
		InferenceTimeout: time.Duration(opts.InferenceTimeout) * time.Second,
	}, log)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		srv, err := newServer(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
			os.Exit(1)
		}

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("fieldview server starting...\n")
			fmt.Printf("  Server:    %s\n", baseURL)
			fmt.Printf("  Data:      %s\n", opts.DataDir)
			fmt.Printf("  Inference: %s\n", opts.InferenceURL)
			fmt.Println()
			fmt.Printf("  Viewer:  %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
				os.Exit(1)
			}
		})
	})

	cli.Root().Use = "fieldview"
	cli.Root().Short = "Map server for agricultural field boundary delineation"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Run()
}
