package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes markdown code-fence markers the model sometimes
// wraps around its JSON output.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// DecodeObject decodes strict JSON into v; on failure it retries against the
// first top-level object-looking span ('{' through the final '}').
func DecodeObject(s string, v any) error {
	s = StripCodeFences(s)
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("decode extracted object: %w", err)
	}
	return nil
}
