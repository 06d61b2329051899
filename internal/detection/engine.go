package detection

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// Result is one secret found in an outgoing argument.
type Result struct {
	Method      string
	Index       int // position of the argument list within the batch
	RuleID      string
	Description string
}

type Engine struct {
	detector *detect.Detector
}

// NewEngine creates a detection engine from a gitleaks TOML rule file, or
// from the gitleaks built-in rules when rulesPath is empty.
func NewEngine(rulesPath string) (*Engine, error) {
	v := viper.New()
	v.SetConfigType("toml")

	if rulesPath == "" {
		if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
			return nil, fmt.Errorf("failed to read default rules: %w", err)
		}
	} else {
		v.SetConfigFile(rulesPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read rules: %w", err)
		}
	}

	// Parse into gitleaks config format
	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate rules: %w", err)
	}

	return &Engine{
		detector: detect.NewDetector(cfg),
	}, nil
}

// Scan checks every string inside argsList, including strings nested in
// slices and maps. methods[i] names the call argsList[i] belongs to.
func (e *Engine) Scan(methods []string, argsList [][]interface{}) []Result {
	var results []Result

	for i, args := range argsList {
		method := ""
		if i < len(methods) {
			method = methods[i]
		}
		for _, arg := range args {
			e.scanValue(arg, func(s string) {
				for _, f := range e.detector.DetectString(s) {
					results = append(results, Result{
						Method:      method,
						Index:       i,
						RuleID:      f.RuleID,
						Description: f.Description,
					})
				}
			})
		}
	}
	return results
}

func (e *Engine) scanValue(data interface{}, visit func(string)) {
	switch v := data.(type) {
	case string:
		visit(v)
	case map[string]interface{}:
		for key, value := range v {
			visit(key)
			e.scanValue(value, visit)
		}
	case []interface{}:
		for _, item := range v {
			e.scanValue(item, visit)
		}
	}
}

// Summary formats results as a single line for error messages.
func Summary(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("%s (%s in %s)", r.Description, r.RuleID, r.Method))
	}
	return strings.Join(parts, "; ")
}
