package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${env://VAR} and ${env://VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{env://([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// parseVariableWithDefault splits "VAR:-default" into its name and default.
func parseVariableWithDefault(varPart string) (varName, defaultValue string, hasDefault bool) {
	if strings.Contains(varPart, ":-") {
		parts := strings.SplitN(varPart, ":-", 2)
		return parts[0], parts[1], true
	}
	return varPart, "", false
}

// EnvSubstituter replaces environment references in configuration content
// (config files and pricing overlays). Getenv defaults to os.Getenv.
type EnvSubstituter struct {
	Getenv func(string) string
}

// SubstituteEnvVars replaces ${env://VAR} and ${env://VAR:-default} patterns.
// Unset variables take their default when one is given; otherwise every
// missing variable is reported in a single error.
func (e *EnvSubstituter) SubstituteEnvVars(content string) (string, error) {
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	var missing []string
	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varPart := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${env://")
		varName, defaultValue, hasDefault := parseVariableWithDefault(varPart)

		if envValue := getenv(varName); envValue != "" {
			return envValue
		}
		if hasDefault {
			return defaultValue
		}

		missing = append(missing, fmt.Sprintf("required environment variable %s not set in %s", varName, match))
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("environment variable substitution failed: %s", strings.Join(missing, ", "))
	}

	return result, nil
}

// HasEnvVars reports whether content contains ${env://...} references.
func HasEnvVars(content string) bool {
	return envVarPattern.MatchString(content)
}
