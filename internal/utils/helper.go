package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ParseProductID accepts only positive decimal ids.
func ParseProductID(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid product id %d", n)
	}
	return n, nil
}
