package config

import (
	"fmt"
	"strconv"
	"strings"
)

// SeasonCode converts a four-digit start year to the compact code used in
// file names: 2024 -> "2425".
func SeasonCode(year int) string {
	return fmt.Sprintf("%02d%02d", year%100, (year+1)%100)
}

// PreviousSeason returns the code of the season before code: "2324" -> "2223".
func PreviousSeason(code string) (string, error) {
	if len(code) != 4 {
		return "", fmt.Errorf("season code %q: want four digits", code)
	}
	start, err := strconv.Atoi(code[:2])
	if err != nil {
		return "", fmt.Errorf("season code %q: %w", code, err)
	}
	end, err := strconv.Atoi(code[2:])
	if err != nil {
		return "", fmt.Errorf("season code %q: %w", code, err)
	}
	return fmt.Sprintf("%02d%02d", (start+99)%100, (end+99)%100), nil
}

// ParseStartYears parses a comma list of start years into season codes.
// Two-digit years are read as 20xx.
func ParseStartYears(list string) ([]string, error) {
	var codes []string
	for _, part := range splitList(list) {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("season start %q: %w", part, err)
		}
		if year < 0 {
			return nil, fmt.Errorf("season start %q: negative year", part)
		}
		if year < 100 {
			year += 2000
		}
		codes = append(codes, SeasonCode(year))
	}
	return codes, nil
}
