// Package main runs the interactive catalog client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/atinyakov/herbcatalog/internal/client"
)

var (
	version   string
	buildDate string
)

// main parses command-line flags, restores the saved session and starts the shell.
func main() {
	var (
		baseURL     string
		sessionFile string
		showVer     bool
	)

	home, _ := os.UserHomeDir()
	flag.StringVar(&baseURL, "url", "", "server base URL (default: saved session or http://localhost:8080)")
	flag.StringVar(&sessionFile, "session", filepath.Join(home, client.DefaultSessionFile), "path to session file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Herbcatalog Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	sessions := client.NewSessionStore(afero.NewOsFs(), sessionFile)
	sess, err := sessions.Load()
	if err != nil {
		log.Fatalf("cannot read session: %v", err)
	}

	if baseURL == "" {
		baseURL = sess.BaseURL
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c := client.New(baseURL, &http.Client{Timeout: 30 * time.Second})
	if sess.BaseURL == c.BaseURL {
		c.Token = sess.Token
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shell := &client.Shell{Client: c, Sessions: sessions, Out: os.Stdout}
	shell.Run(ctx, os.Stdin)
}
