package shield

import "net/http"

// HeadToGet rewrites HEAD requests as GET before routing. The overlay's
// report endpoints are registered with r.Get(), and net/http drops the
// body on HEAD responses anyway.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
