package util

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/inswing/procspec/pkg/types"
)

var (
	validProcessName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
)

func ValidProcessName(name string) bool {
	if len(name) > types.MaximumProcessNameSize {
		return false
	}
	return validProcessName.MatchString(name)
}

// ValidateEnvName returns the reasons key cannot be used as an environment
// variable name, or nil.
func ValidateEnvName(key string) []string {
	return validation.IsEnvVarName(key)
}

func ParseEnvAssignments(assignments []string) (map[string]string, error) {
	result := map[string]string{}
	for _, assignment := range assignments {
		kv := strings.SplitN(assignment, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid assignment not in <key>=<value> format %v", assignment)
		}
		key := kv[0]
		value := kv[1]
		if errList := ValidateEnvName(key); len(errList) > 0 {
			return nil, fmt.Errorf("invalid key %v for environment: %v", key, errList[0])
		}
		// Empty values are allowed, an empty variable is still set in the child.
		result[key] = value
	}
	return result, nil
}

// MergeEnviron overlays env on base, a list of KEY=VALUE pairs as returned by
// os.Environ. The result is sorted by key.
func MergeEnviron(base []string, env map[string]string) []string {
	merged := map[string]string{}
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+merged[k])
	}
	return result
}
