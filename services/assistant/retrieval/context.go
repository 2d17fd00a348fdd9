// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
)

// excerptBudget caps how much of an article body reaches the prompt. The
// cut is a hard cap of 700 characters (runes, not bytes, so multi-byte
// text is never split mid-character), not word-boundary aware: bounding
// prompt size matters more than a clean sentence ending.
const excerptBudget = 700

// BuildContext renders ranked articles into the knowledge-base context block
// fed to the generation call. Blocks keep input order and are separated by a
// blank line. Empty input yields an empty string; the caller substitutes its
// placeholder.
func BuildContext(articles []datatypes.Article) string {
	if len(articles) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(articles))
	for i, a := range articles {
		excerpt := a.Body
		// Byte length bounds rune count, so short bodies skip the conversion.
		if len(excerpt) > excerptBudget {
			if runes := []rune(excerpt); len(runes) > excerptBudget {
				excerpt = string(runes[:excerptBudget])
			}
		}
		blocks = append(blocks, fmt.Sprintf(
			"# Article %d\nTitle: %s\nSlug: %s\nTags: %s\nExcerpt:\n%s\n",
			i+1, a.Title, a.Slug, strings.Join(a.Tags, ", "), excerpt,
		))
	}

	return strings.Join(blocks, "\n")
}
