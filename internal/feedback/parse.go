package feedback

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeJSON unmarshals an LLM reply, tolerating markdown code fences and
// prose around the object.
func decodeJSON(content string, dest any) error {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if start, end := strings.IndexByte(content, '{'), strings.LastIndexByte(content, '}'); start >= 0 && end > start {
		content = content[start : end+1]
	}

	if err := json.Unmarshal([]byte(content), dest); err != nil {
		return fmt.Errorf("parse llm response: %w", err)
	}
	return nil
}
