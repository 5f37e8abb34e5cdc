package flow

import (
	"bytes"
	"encoding/json"
	"fmt"

	"filesearch/genai"
)

// renderOperationResponse serializes a completed operation's response
// payload for display, substituting a fixed placeholder when the service
// returned none.
func renderOperationResponse(op *genai.Operation) string {
	if op == nil || len(op.Response) == 0 {
		return "Indexed."
	}
	pretty, err := indentJSON(op.Response)
	if err != nil {
		return string(op.Response)
	}
	return pretty
}

// renderGrounding extracts the grounding evidence of the first candidate as
// formatted text. Absence and parse failures both yield displayable
// strings, never errors.
func renderGrounding(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || len(resp.Candidates[0].GroundingMetadata) == 0 {
		return "No grounding metadata returned."
	}
	pretty, err := indentJSON(resp.Candidates[0].GroundingMetadata)
	if err != nil {
		return fmt.Sprintf("(could not parse grounding metadata: %v)", err)
	}
	return pretty
}

func indentJSON(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
