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

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed every stored article",
	Long: `Re-embeds the whole knowledge base with the server's current
embedding model. Run this after changing EMBEDDING_MODEL_NAME so stored
vectors and query vectors come from the same model again.

The sweep is sequential on the server; expect roughly one embedding call
per article.`,
	Run: runReindexCommand,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindexCommand(cmd *cobra.Command, args []string) {
	var result struct {
		Updated int `json:"updated"`
	}
	if err := postAdmin("/v1/articles/reindex", nil, &result); err != nil {
		log.Fatalf("Reindex failed: %v", err)
	}
	fmt.Printf("Reindexed %d articles\n", result.Updated)
}
