package interceptors

import "encoding/json"

func argumentsToString(args json.RawMessage) string {
	if len(args) == 0 {
		return "{}"
	}

	return string(args)
}
