package retrieval

import (
	"context"
	"fmt"

	"podcastqa/apps/backend/internal/degrade"
	"podcastqa/apps/backend/internal/llm"
)

const rewritePrompt = `You are analyzing a user query to improve podcast transcript retrieval.

Identify the explicit topics and keywords in the query, related implicit topics, and the speaker expertise that would help answer it.

User Query: %s

Produce an expanded query for semantic search that covers the explicit and implicit topics. Keep it concise and focused on retrieving relevant information.

Output only the expanded query text with no additional formatting or explanation.`

// RewriteQuery expands query for retrieval. Any failure or an empty answer
// falls back to the original query.
func RewriteQuery(ctx context.Context, chat llm.ChatCompleter, query string) degrade.Result[string] {
	if chat == nil {
		return degrade.OK(query)
	}
	out, err := chat.Complete(ctx, llm.Ask("", fmt.Sprintf(rewritePrompt, query), 1024))
	if err != nil {
		return degrade.FromError(query, err)
	}
	out, err = llm.CheckCompletion(out)
	if err != nil {
		return degrade.Fallback(query, degrade.ReasonMalformed, err)
	}
	return degrade.OK(out)
}
