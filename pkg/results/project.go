package results

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
)

// Project evaluates a JSONPath expression such as "$.nodes[0].id" against a
// published result.
func Project(result json.RawMessage, path string) (any, error) {
	if len(result) == 0 {
		return nil, fmt.Errorf("no result to project")
	}

	var doc any
	if err := json.Unmarshal(result, &doc); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}

	value, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", path, err)
	}

	return value, nil
}
