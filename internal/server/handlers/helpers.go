// Package handlers implements the HTTP handlers for the review API.
package handlers

import (
	"net/http"
)

func getRequestID(r *http.Request) string {
	if requestID, ok := r.Context().Value("request_id").(string); ok {
		return requestID
	}
	return "unknown"
}

func getPagination(r *http.Request) (page, pageSize, offset int) {
	if pagination, ok := r.Context().Value("pagination").(map[string]int); ok {
		return pagination["page"], pagination["page_size"], pagination["offset"]
	}
	return 1, 20, 0
}
