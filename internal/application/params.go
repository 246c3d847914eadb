package application

import (
	"math"
	"strings"

	"rawg-mcp-server/internal/domain"
)

// Page size bounds accepted by the list tools. Values outside are clamped.
const (
	minPageSize = 1
	maxPageSize = 20
)

// getStringParam extracts a string parameter from the arguments map.
// The value is trimmed; a required parameter that is missing, not a string or
// blank after trimming is a validation error.
func getStringParam(args map[string]interface{}, name string, required bool) (string, error) {
	value, exists := args[name]
	if !exists {
		if required {
			return "", domain.NewValidationError("missing required parameter: %s", name)
		}
		return "", nil
	}

	strValue, ok := value.(string)
	if !ok {
		return "", domain.NewValidationError("parameter %s must be a string", name)
	}

	strValue = strings.TrimSpace(strValue)
	if required && strValue == "" {
		return "", domain.NewValidationError("parameter %s cannot be empty", name)
	}

	return strValue, nil
}

// getPageSizeParam reads page_size, falling back to defaultSize when absent,
// and clamps the result to [minPageSize, maxPageSize].
func getPageSizeParam(args map[string]interface{}, defaultSize int) (int, error) {
	value, exists := args["page_size"]
	if !exists || value == nil {
		return clampPageSize(defaultSize), nil
	}

	// Handle both float64 (from JSON) and int
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, domain.NewValidationError("parameter page_size must be an integer")
		}
		// Clamp before converting; whole numbers beyond int range are still valid.
		if v < minPageSize {
			return minPageSize, nil
		}
		if v > maxPageSize {
			return maxPageSize, nil
		}
		return int(v), nil
	case int:
		return clampPageSize(v), nil
	default:
		return 0, domain.NewValidationError("parameter page_size must be an integer")
	}
}

func clampPageSize(size int) int {
	if size < minPageSize {
		return minPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
