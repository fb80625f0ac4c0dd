package registrar

import (
	"encoding/json"
	"os"
)

func readJSONConfig(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return map[string]interface{}{}, nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

func writeJSONConfig(path string, doc map[string]interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// nestedObject returns (creating if absent) the map stored at key
// within doc, coercing a non-object existing value to a fresh object.
func nestedObject(doc map[string]interface{}, key string) map[string]interface{} {
	if existing, ok := doc[key].(map[string]interface{}); ok {
		return existing
	}
	obj := map[string]interface{}{}
	doc[key] = obj
	return obj
}

func mcpConfigToJSON(cfg *McpConfig) map[string]interface{} {
	out := map[string]interface{}{"command": cfg.Command, "cwd": cfg.Cwd}
	if len(cfg.Args) > 0 {
		out["args"] = cfg.Args
	}
	if len(cfg.Env) > 0 {
		out["env"] = cfg.Env
	}
	if cfg.Type != "" {
		out["type"] = cfg.Type
	}
	return out
}
