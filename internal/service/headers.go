package service

import "net/http"

// browserHeaders is sent on every upstream call so requests look like they
// come from desktop Firefox. Inbound request headers are never forwarded.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/117.0",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.5",
	"Accept-Encoding": "gzip, deflate, br",
	"Connection":      "keep-alive",
	"Pragma":          "no-cache",
	"Cache-Control":   "no-cache",
}

// BrowserHeaders returns a fresh copy of the browser header set.
func BrowserHeaders() http.Header {
	h := make(http.Header, len(browserHeaders))
	for k, v := range browserHeaders {
		h.Set(k, v)
	}
	return h
}
