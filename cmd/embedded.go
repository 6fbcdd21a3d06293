package main

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

// defaultConfigName is the embedded config used by serve and invoke when no
// file is found on disk. It reads AWS settings and store options from the
// environment with ${VAR:-default} fallbacks.
const defaultConfigName = "config"

//go:embed configs/*.yaml
var configsFS embed.FS

// getEmbeddedConfig returns a service config compiled into the binary.
// name may omit the .yaml extension.
func getEmbeddedConfig(name string) ([]byte, error) {
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	return configsFS.ReadFile(path.Join("configs", name))
}

// listEmbeddedConfigs names the configs shipped in the binary, for help output.
func listEmbeddedConfigs() ([]string, error) {
	entries, err := configsFS.ReadDir("configs")
	if err != nil {
		return nil, fmt.Errorf("read embedded configs: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}
