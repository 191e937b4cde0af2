package cmd

import (
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a commented config.yaml with every recognized key set to its
default value. The API key itself stays out of the file; set it with the
JEWELGEN_API_KEY environment variable or a .env file.

Example:
  jewelgen init
  jewelgen init --path ./configs/jewelgen.yaml --force`,
	RunE: runInit,
}

var (
	initPath  string
	initForce bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initPath, "path", "config.yaml", "Where to write the config file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}

const defaultConfigYAML = `# jewelgen configuration.
#
# Every key can also be set via environment variable with the JEWELGEN_
# prefix, e.g. JEWELGEN_DEFAULTS_MATERIAL=silver. The API key is read from
# JEWELGEN_API_KEY (or the legacy MESHY_API_KEY) and is deliberately not
# stored here.

api:
  base_url: https://api.meshy.ai
  timeout: 60s
  poll_interval: 5s
  # Requests per second against the API. 0 means unlimited.
  rate_limit: 0

paths:
  output_dir: output
  models_dir: output/models
  metadata_dir: output/metadata

defaults:
  material: gold
  jewelry_type: chain
  chain_style: cuban
  batch_size: 10
  max_workers: 3

generation:
  enable_pbr: true
  art_style: realistic
  symmetry_mode: "on"
  should_remesh: true
  topology: quad
  target_polycount: 100000
  ai_model: meshy-4
  formats: [glb, fbx]

logging:
  level: info
  structured: false

server:
  host: localhost
  port: 8080
`

func runInit(_ *cobra.Command, _ []string) error {
	if !initForce {
		if _, err := os.Stat(initPath); err == nil {
			return exitError(foundry.ExitInvalidArgument, "Config file already exists",
				fmt.Errorf("%s exists; use --force to overwrite", initPath))
		}
	}

	if err := os.WriteFile(initPath, []byte(defaultConfigYAML), 0644); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write config file", err)
	}

	fmt.Printf("Wrote %s\n", initPath)
	fmt.Println("Set JEWELGEN_API_KEY to enable live generation.")
	return nil
}
