package creds

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"crossposter/internal/platform"
)

// DefaultEnvPrefix is the variable prefix the env provider scans for.
const DefaultEnvPrefix = "CROSSPOSTER"

// Env resolves credentials from the process environment, optionally merged
// with a dotenv file. Variables follow
//
//	<PREFIX>_<PLATFORM>_<KEY>=value
//
// e.g. CROSSPOSTER_TELEGRAM_TOKEN becomes bundle key "token" for telegram.
// Process environment wins over the dotenv file, so deployments can
// override individual entries without editing the file.
//
// The file is re-read on every Resolve, so rotated tokens are picked up
// on the next dispatch cycle without a restart.
type Env struct {
	prefix  string
	envFile string
}

func NewEnv(prefix, envFile string) *Env {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return &Env{prefix: strings.ToUpper(prefix), envFile: strings.TrimSpace(envFile)}
}

func (p *Env) Resolve(ctx context.Context) (Set, error) {
	_ = ctx

	vars := map[string]string{}
	if p.envFile != "" {
		fileVars, err := godotenv.Read(p.envFile)
		if err != nil {
			return nil, &ResolveError{Err: fmt.Errorf("read %s: %w", p.envFile, err)}
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			vars[k] = v
		}
	}

	set := Set{}
	prefix := p.prefix + "_"
	for k, v := range vars {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		plat, key, ok := strings.Cut(rest, "_")
		if !ok || plat == "" || key == "" {
			continue
		}
		id := platform.ID(strings.ToLower(plat))
		if !platform.Known(id) {
			continue
		}
		b, ok := set[id]
		if !ok {
			b = platform.Bundle{}
			set[id] = b
		}
		b[strings.ToLower(key)] = v
	}
	return set, nil
}
