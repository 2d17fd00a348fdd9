// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// QueryLogEntry is one immutable telemetry row, written once per completed
// turn. Failed turns write nothing, so latency figures only reflect
// successful turns. MatchedArticleIDs preserves the ranking order the answer
// was generated with, not any later re-ranking.
type QueryLogEntry struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"sessionId"`
	Query             string    `json:"query"`
	ResponseTimeMs    int64     `json:"responseTimeMs"`
	MatchedArticleIDs []string  `json:"matchedArticleIds"`
	Model             string    `json:"model"`
	CreatedAt         time.Time `json:"createdAt"`
}
