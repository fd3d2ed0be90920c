package api

import (
	"io"
	"strconv"
	"strings"
)

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func readAll(r io.Reader) ([]byte, error) { return io.ReadAll(r) }
