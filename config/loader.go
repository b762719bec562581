package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// resolvedFiles contains the config and env file paths to load.
type resolvedFiles struct {
	configFile string
	envFile    string
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// resolveFiles returns explicit paths when set, otherwise the first existing
// file in the standard search locations.
func resolveFiles(exists func(string) bool, serviceName string, lc LoaderConfig) resolvedFiles {
	first := func(paths []string) string {
		for _, p := range paths {
			if exists(p) {
				return p
			}
		}
		return ""
	}
	files := resolvedFiles{configFile: lc.ConfigFile, envFile: lc.EnvFile}
	if files.configFile == "" {
		files.configFile = first(configCandidates(serviceName))
	}
	if files.envFile == "" {
		files.envFile = first(envCandidates(serviceName))
	}
	return files
}

func configCandidates(serviceName string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../../cmd/%s/config.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
	}
}

func envCandidates(serviceName string) []string {
	var paths []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		paths = append(paths,
			fmt.Sprintf("./cmd/%s/%s", serviceName, name),
			fmt.Sprintf("../cmd/%s/%s", serviceName, name),
			"./"+name,
			"../"+name,
		)
	}
	return paths
}

// LoaderConfig holds optional file overrides.
type LoaderConfig struct {
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig loads configuration for a service into cfg. YAML is read first,
// then the .env file is loaded into the environment and every environment
// variable is bound over it, so LLM_API_KEY overrides llm.api_key.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	files := resolveFiles(fileExists, serviceName, lc)

	v := viper.New()
	if files.configFile != "" && fileExists(files.configFile) {
		v.SetConfigFile(files.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", files.configFile, err)
		}
	}
	if files.envFile != "" && fileExists(files.envFile) {
		if err := godotenv.Load(files.envFile); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: failed to load .env file %s: %v\n", files.envFile, err)
		}
	}
	bindEnv(v)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv maps every environment variable onto the nested keys it could
// address. Only keys already known to viper are overridden.
func bindEnv(v *viper.Viper) {
	known := make(map[string]bool)
	for _, k := range v.AllKeys() {
		known[k] = true
	}
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		for _, variant := range envKeyVariants(key) {
			if known[variant] {
				v.Set(variant, value)
			}
		}
	}
}

// envKeyVariants returns the dotted keys an UPPER_SNAKE variable may refer to.
//
//	ROUTER_CALL_TIMEOUT -> [router_call_timeout, router.call.timeout, router.call_timeout, router_call.timeout]
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
		variants = append(variants, strings.Join(parts[:i], "_")+"."+strings.Join(parts[i:], "_"))
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
