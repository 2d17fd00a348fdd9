// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var seedFile string // YAML file of articles; empty means the built-in demo set

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load articles into the knowledge base",
	Long: `Loads knowledge-base articles through the server's admin API.

Without --file, a small built-in demo set is loaded so a fresh deployment
has something to answer from. With --file, articles come from a YAML list:

  - title: Reset your password
    slug: reset-password
    tags: [account, login]
    body: |
      To reset your password, go to Login and click 'Forgot password'.

Each article is embedded server-side as it is created.`,
	Run: runSeedCommand,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "",
		"YAML file containing the articles to load")
	rootCmd.AddCommand(seedCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// seedArticle is the YAML/JSON shape of one article to load.
type seedArticle struct {
	Title string   `yaml:"title" json:"title"`
	Slug  string   `yaml:"slug" json:"slug"`
	Body  string   `yaml:"body" json:"body"`
	Tags  []string `yaml:"tags" json:"tags"`
}

// demoArticles is the built-in starter corpus for fresh deployments.
var demoArticles = []seedArticle{
	{
		Title: "Reset your password",
		Slug:  "reset-password",
		Tags:  []string{"account", "login"},
		Body: "To reset your password: 1) Go to Login. 2) Click 'Forgot password'. 3) Enter your email. " +
			"4) Open the reset link sent to your inbox. 5) Set a new password.",
	},
	{
		Title: "Refund policy",
		Slug:  "refund-policy",
		Tags:  []string{"billing", "payments"},
		Body: "Refunds are available within 7 days of purchase if the service was not used. " +
			"To request a refund, contact support with your order ID and reason.",
	},
	{
		Title: "Update profile information",
		Slug:  "update-profile",
		Tags:  []string{"account", "profile"},
		Body:  "To update your profile: 1) Go to Settings. 2) Edit your info. 3) Click Save.",
	},
}

func runSeedCommand(cmd *cobra.Command, args []string) {
	articles := demoArticles
	if seedFile != "" {
		data, err := os.ReadFile(seedFile)
		if err != nil {
			log.Fatalf("Error reading %s: %v", seedFile, err)
		}
		articles = nil
		if err := yaml.Unmarshal(data, &articles); err != nil {
			log.Fatalf("Error parsing %s: %v", seedFile, err)
		}
	}

	if len(articles) == 0 {
		log.Fatal("No articles to load")
	}

	loaded := 0
	for _, article := range articles {
		var created struct {
			ID   string `json:"id"`
			Slug string `json:"slug"`
		}
		if err := postAdmin("/v1/articles", article, &created); err != nil {
			log.Fatalf("Failed to create article %q after %d loaded: %v", article.Slug, loaded, err)
		}
		loaded++
		fmt.Printf("Created article %s (%s)\n", created.Slug, created.ID)
	}

	fmt.Printf("Seeded %d articles\n", loaded)
}
