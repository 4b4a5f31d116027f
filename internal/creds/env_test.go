package creds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"crossposter/internal/platform"
)

func TestEnvResolve(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "CROSSPOSTER_TELEGRAM_TOKEN=file-token\n" +
		"CROSSPOSTER_TELEGRAM_CHAT_ID=12345\n" +
		"CROSSPOSTER_LINKEDIN_CLIENT_SECRET=shh\n" +
		"CROSSPOSTER_MYSPACE_TOKEN=ignored\n" +
		"UNRELATED=ignored\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Process environment wins over the file.
	t.Setenv("CROSSPOSTER_TELEGRAM_TOKEN", "env-token")

	set, err := NewEnv("", envFile).Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	tg := set.Bundle(platform.Telegram)
	if tg["token"] != "env-token" {
		t.Fatalf("expected env override, got %q", tg["token"])
	}
	if tg["chat_id"] != "12345" {
		t.Fatalf("expected chat_id from file, got %q", tg["chat_id"])
	}
	if set.Bundle(platform.Linkedin)["client_secret"] != "shh" {
		t.Fatal("multi-word keys must map to snake_case")
	}
	if _, ok := set[platform.ID("myspace")]; ok {
		t.Fatal("unknown platforms must be skipped")
	}
}

func TestEnvResolveMissingFile(t *testing.T) {
	_, err := NewEnv("", filepath.Join(t.TempDir(), "absent.env")).Resolve(context.Background())
	var re *ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolveError, got %v", err)
	}
}

func TestEnvResolveCustomPrefix(t *testing.T) {
	t.Setenv("POSTER_DISCORD_WEBHOOK_URL", "https://discord.test/hook")

	set, err := NewEnv("poster", "").Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if set.Bundle(platform.Discord)["webhook_url"] != "https://discord.test/hook" {
		t.Fatalf("custom prefix not honored: %+v", set)
	}
}

func TestStaticResolve(t *testing.T) {
	want := Set{platform.X: {"token": "x"}}
	got, err := NewStatic(want).Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Bundle(platform.X)["token"] != "x" {
		t.Fatalf("unexpected set: %+v", got)
	}
	if b := got.Bundle(platform.Reddit); len(b) != 0 {
		t.Fatalf("expected empty bundle for unset platform, got %+v", b)
	}
}
