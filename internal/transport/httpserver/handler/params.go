package handler

import (
	"fmt"
	"strconv"
	"strings"
)

func parseIDParam(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("id is required")
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return parsed, nil
}

func parseFormatParam(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "json":
		return "json", nil
	case "csv":
		return "csv", nil
	default:
		return "", fmt.Errorf("unsupported format")
	}
}
